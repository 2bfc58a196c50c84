// Command analytics starts the standalone analytics aggregation service.
//
// It consumes analysis events from Kafka, aggregates them in memory
// (analysis counts, latency percentiles, cache hit rate, top and missing
// speakers) and serves them at GET /api/v1/analytics. When PostgreSQL is
// configured the aggregate is snapshotted periodically, restored on start,
// and its history served at GET /api/v1/analytics/snapshots.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.Kafka.Brokers) == 0 {
		slog.Error("analytics service requires kafka brokers")
		os.Exit(1)
	}

	m := metrics.New(nil)
	agg := analytics.NewAggregator()
	checker := health.NewChecker()

	var snapshots analytics.SnapshotLister
	if cfg.Postgres.Host != "" {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, snapshots disabled", "error", err)
		} else {
			defer db.Close()
			st := aggregator.NewStore(db)
			if err := st.Migrate(ctx); err != nil {
				slog.Error("failed to migrate analytics schema", "error", err)
				os.Exit(1)
			}
			latest, err := st.LatestSnapshot(ctx)
			if err != nil {
				slog.Warn("could not load latest snapshot", "error", err)
			} else if latest != nil {
				agg.Restore(*latest)
			}
			st.StartPeriodicSave(ctx, agg, cfg.Analytics.SnapshotInterval)
			snapshots = st
			checker.Register("postgres", health.Ping(db.Ping, true))
		}
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(agg))
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("aggregator consumer error", "error", err)
		}
	}()
	slog.Info("analytics aggregator started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

	h := analytics.NewHandler(agg, snapshots)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", h.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", h.Snapshots)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	chain := middleware.Chain(mux,
		middleware.Recover,
		middleware.RequestID,
		middleware.Metrics(m),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("analytics service stopped")
}
