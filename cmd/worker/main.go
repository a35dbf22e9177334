// The worker binary consumes analysis tasks from the configured message
// broker and publishes status events and results. It exits non-zero when the
// broker connection or queue declaration fails at startup, and exits zero on
// graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/queueworks/tabq/internal/config"
	"github.com/queueworks/tabq/internal/logging"
	"github.com/queueworks/tabq/internal/tracing"
	"github.com/queueworks/tabq/internal/transport"
	"github.com/queueworks/tabq/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	baseLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	logger := logging.NewSlogServiceLogger(baseLogger)

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", err, nil)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, shutdownTracing, err := tracing.New(ctx, tracing.Config{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		logger.Error("initialising tracing failed", err, nil)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("shutting down tracing failed", err, nil)
		}
	}()
	logger.Info("tracing initialised", logging.LogFields{"endpoint": cfg.OTLPEndpoint})

	logger.Info("connecting to broker", logging.LogFields{
		"system": cfg.PubSubSystem,
		"config": cfg,
	})
	tp, err := transport.Build(ctx, cfg, logging.NewWatermillAdapter(logger))
	if err != nil {
		logger.Error("connecting to broker failed", err, nil)
		return 1
	}

	queues := []string{worker.QueueTasks, worker.QueueResults, worker.QueueTaskStatus}
	if err := transport.DeclareQueues(tp.Subscriber, queues...); err != nil {
		logger.Error("declaring queues failed", err, nil)
		return 1
	}

	if cfg.MetricsPort > 0 {
		serveMetrics(cfg.MetricsPort, logger)
	}

	w, err := worker.New(worker.Options{
		Name:            cfg.WorkerName,
		MessagingSystem: cfg.PubSubSystem,
		Logger:          logger,
		Tracer:          tracer,
		Publisher:       tp.Publisher,
		Subscriber:      tp.Subscriber,
		Metrics:         worker.NewMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logger.Error("constructing worker failed", err, nil)
		return 1
	}

	logger.Info("worker started, waiting for tasks", logging.LogFields{"worker": cfg.WorkerName})
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", err, nil)
		return 1
	}

	logger.Info("worker stopped", nil)
	return 0
}

func serveMetrics(port int, logger logging.ServiceLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info("serving metrics", logging.LogFields{"address": addr})
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server failed", err, logging.LogFields{"address": addr})
		}
	}()
}
