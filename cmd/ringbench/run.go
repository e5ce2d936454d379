package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/streamforge/ringbus/internal/core"
	"github.com/streamforge/ringbus/internal/metrics"
	"github.com/streamforge/ringbus/internal/telemetry"
)

// payload is the benchmark's ring buffer element: just enough to make
// publish and consume do real work without claiming to model any
// particular business domain.
type payload struct {
	producerID int
	seq        int64
	stamp      int64
}

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a producer/consumer benchmark against the disruptor core",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(v)
		},
	}

	flags := cmd.Flags()
	flags.Int64("buffer-size", 4096, "ring buffer capacity, must be a power of two")
	flags.Int("producers", 4, "number of concurrent producer goroutines")
	flags.Int64("events-per-producer", 1_000_000, "events each producer publishes")
	flags.String("wait-strategy", "yielding", "busy-spin | yielding | blocking | timeout-blocking")
	flags.String("availability-layout", "dense", "dense | padded")
	flags.String("log-level", "info", "debug | info | warn | error")
	flags.Bool("metrics", false, "serve Prometheus metrics while the benchmark runs")
	flags.Int("metrics-port", 9090, "metrics HTTP port, used when --metrics is set")

	_ = v.BindPFlags(flags)
	return cmd
}

func runBenchmark(v *viper.Viper) error {
	logger := telemetry.Must(telemetry.Config{Level: v.GetString("log-level")})
	defer logger.Sync()

	wait, err := parseWaitStrategy(v.GetString("wait-strategy"))
	if err != nil {
		return err
	}
	layout, err := parseAvailabilityLayout(v.GetString("availability-layout"))
	if err != nil {
		return err
	}

	cfg := core.DefaultSequencerConfig()
	cfg.BufferSize = v.GetInt64("buffer-size")
	cfg.WaitStrategy = wait
	cfg.AvailabilityLayout = layout

	d, err := core.NewDisruptor[payload](cfg)
	if err != nil {
		return fmt.Errorf("ringbench: %w", err)
	}

	var collector *metrics.Collector
	var metricsServer *metrics.Server
	if v.GetBool("metrics") {
		mcfg := metrics.Config{Enable: true, Port: v.GetInt("metrics-port")}
		metricsServer = metrics.NewServer(mcfg, logger)
		collector = metrics.NewCollector(metricsServer.Registry(), "ringbench")
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("ringbench: starting metrics server: %w", err)
		}
	}

	producers := v.GetInt("producers")
	perProducer := v.GetInt64("events-per-producer")
	total := int64(producers) * perProducer

	logger.Info("starting benchmark",
		zap.Int64("buffer_size", cfg.BufferSize),
		zap.Int("producers", producers),
		zap.Int64("events_per_producer", perProducer),
		zap.String("wait_strategy", v.GetString("wait-strategy")),
		zap.String("availability_layout", v.GetString("availability-layout")),
	)

	consumed := make(chan int64, 1)
	go runConsumer(d, total, collector, consumed)

	start := time.Now()
	var eg errgroup.Group
	for p := 0; p < producers; p++ {
		p := p
		eg.Go(func() error {
			for i := int64(0); i < perProducer; i++ {
				seq, slot := d.Claim()
				*slot = payload{producerID: p, seq: i, stamp: time.Now().UnixNano()}
				d.Publish(seq)
				if collector != nil {
					collector.Claimed.Inc()
					collector.Published.Inc()
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	consumedAt := <-consumed
	elapsed := time.Since(start)
	rate := float64(total) / elapsed.Seconds()

	logger.Info("benchmark complete",
		zap.Int64("events", total),
		zap.Int64("last_sequence_consumed", consumedAt),
		zap.Duration("elapsed", elapsed),
		zap.Float64("events_per_second", rate),
	)

	if metricsServer != nil {
		logger.Info("metrics server still running; press ctrl-c to exit")
		select {}
	}
	return nil
}

// runConsumer drains the disruptor until it has observed `total` events,
// then reports the last sequence it consumed on done.
func runConsumer(d *core.Disruptor[payload], total int64, collector *metrics.Collector, done chan<- int64) {
	c := core.NewConsumer[payload](d)
	var seen int64
	var last int64
	for seen < total {
		lower, upper := c.NextBatch()
		for s := lower; s <= upper; s++ {
			_ = c.Slot(s) // a real handler would process the event here
			seen++
		}
		c.MarkBatchConsumed(lower, upper)
		last = upper
		if collector != nil {
			collector.Consumed.Add(float64(upper - lower + 1))
			collector.Occupancy.Set(float64(d.Sequencer().GetCursor() - d.Sequencer().GetGatingSequence()))
		}
	}
	done <- last
}

func parseWaitStrategy(name string) (core.WaitStrategy, error) {
	switch name {
	case "busy-spin":
		return core.BusySpinWaitStrategy{}, nil
	case "yielding":
		return core.YieldingWaitStrategy{}, nil
	case "blocking":
		return core.NewBlockingWaitStrategy(), nil
	case "timeout-blocking":
		return core.NewTimeoutBlockingWaitStrategy(core.DefaultTimeoutBlockingInterval), nil
	default:
		return nil, fmt.Errorf("ringbench: unknown wait strategy %q", name)
	}
}

func parseAvailabilityLayout(name string) (core.AvailabilityLayout, error) {
	switch name {
	case "dense":
		return core.DenseAvailability, nil
	case "padded":
		return core.PaddedAvailability, nil
	default:
		return 0, fmt.Errorf("ringbench: unknown availability layout %q", name)
	}
}
