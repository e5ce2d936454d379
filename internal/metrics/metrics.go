// Package metrics exposes Prometheus counters and gauges for a running
// ring buffer: claims, publishes, consumes, detected gaps, and current
// occupancy, served over HTTP for scraping.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config holds the metrics HTTP server's settings.
type Config struct {
	Host   string
	Port   int
	Enable bool
	Path   string
}

// SetDefaults fills in the zero-valued fields of Config.
func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 9090
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
}

// Collector is the set of instruments one Sequencer (or Disruptor)
// reports against. Callers increment these directly from producer and
// consumer loops; Collector itself holds no reference back to the core
// package so core stays free of metrics concerns.
type Collector struct {
	Claimed      prometheus.Counter
	Published    prometheus.Counter
	Consumed     prometheus.Counter
	GapsObserved prometheus.Counter
	Occupancy    prometheus.Gauge
	ClaimLatency prometheus.Histogram
}

// NewCollector builds a Collector whose instruments are registered under
// reg with the given name as a label value, so multiple ring buffers in
// one process can be told apart on one registry.
func NewCollector(reg prometheus.Registerer, name string) *Collector {
	labels := prometheus.Labels{"ring": name}
	c := &Collector{
		Claimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "ringbus",
			Name:        "claimed_total",
			Help:        "Sequences claimed by producers.",
			ConstLabels: labels,
		}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "ringbus",
			Name:        "published_total",
			Help:        "Sequences marked published.",
			ConstLabels: labels,
		}),
		Consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "ringbus",
			Name:        "consumed_total",
			Help:        "Sequences marked consumed.",
			ConstLabels: labels,
		}),
		GapsObserved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "ringbus",
			Name:        "gaps_observed_total",
			Help:        "Times GetHighestPublished stopped short of the requested upper bound.",
			ConstLabels: labels,
		}),
		Occupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "ringbus",
			Name:        "occupancy",
			Help:        "cursor - gating_sequence, the number of slots currently claimed but not yet released.",
			ConstLabels: labels,
		}),
		ClaimLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "ringbus",
			Name:        "claim_latency_seconds",
			Help:        "Time spent inside Next/NextBatch, including any backpressure wait.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1e-7, 4, 12),
		}),
	}
	reg.MustRegister(c.Claimed, c.Published, c.Consumed, c.GapsObserved, c.Occupancy, c.ClaimLatency)
	return c
}

// Server serves one Prometheus registry over HTTP.
type Server struct {
	config Config
	log    *zap.Logger
	server *http.Server
	reg    *prometheus.Registry
}

// NewServer creates a registry seeded with the standard Go runtime and
// process collectors, ready to have per-ring Collectors registered
// against it via NewCollector.
func NewServer(cfg Config, log *zap.Logger) *Server {
	cfg.SetDefaults()
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Server{config: cfg, log: log, reg: reg}
}

// Registry returns the underlying registry so callers can attach
// Collectors before or after Start.
func (s *Server) Registry() *prometheus.Registry { return s.reg }

// Start launches the HTTP listener in the background. It is a no-op if
// the server is disabled in config.
func (s *Server) Start() error {
	if !s.config.Enable {
		s.log.Info("metrics server disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(s.config.Path, promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		s.log.Info("metrics listener started", zap.String("address", addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics listener exited", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the HTTP listener down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
