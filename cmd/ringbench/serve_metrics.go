package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/streamforge/ringbus/internal/metrics"
	"github.com/streamforge/ringbus/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeMetricsCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Run a standalone Prometheus metrics endpoint, for dashboard wiring without a benchmark",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveMetrics(v)
		},
	}

	flags := cmd.Flags()
	flags.Int("port", 9090, "metrics HTTP port")
	flags.String("path", "/metrics", "metrics HTTP path")
	flags.String("log-level", "info", "debug | info | warn | error")

	_ = v.BindPFlags(flags)
	return cmd
}

func serveMetrics(v *viper.Viper) error {
	logger := telemetry.Must(telemetry.Config{Level: v.GetString("log-level")})
	defer logger.Sync()

	server := metrics.NewServer(metrics.Config{
		Enable: true,
		Port:   v.GetInt("port"),
		Path:   v.GetString("path"),
	}, logger)
	metrics.NewCollector(server.Registry(), "standalone")

	if err := server.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Stop(ctx)
}
