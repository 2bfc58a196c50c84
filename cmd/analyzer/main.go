// Command analyzer starts the debate transcript analysis service.
//
// It serves synchronous analyses at POST /api/v1/analyses, queues
// asynchronous ones on Kafka via POST /api/v1/analyses/async, exposes stored
// reports under /api/v1/reports and cross-debate comparisons at
// POST /api/v1/comparisons. With -worker it also consumes queued requests.
// PostgreSQL, Redis and Kafka are optional; each missing dependency disables
// the matching feature.
//
// Usage:
//
//	go run ./cmd/analyzer [-config configs/development.yaml] [-worker]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis/handler"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis/service"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis/worker"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analytics/collector"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report/cache"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report/store"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	runWorker := flag.Bool("worker", false, "also consume queued analysis requests")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	tracing.SetLogging(cfg.Tracing.Enabled)
	slog.Info("starting analyzer service", "port", cfg.Server.Port, "worker", *runWorker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	a, err := build(ctx, cfg, *runWorker, nil)
	if err != nil {
		slog.Error("failed to start analyzer", "error", err)
		os.Exit(1)
	}
	defer a.close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.handler,
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

	slog.Info("analyzer service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	a.workers.Wait()
	slog.Info("analyzer service stopped")
}

// analyzer is the wired service: the HTTP handler plus whatever background
// workers and connections it owns.
type analyzer struct {
	handler http.Handler
	svc     *service.Service
	workers sync.WaitGroup
	closers []func()
}

func (a *analyzer) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// build connects the optional dependencies named in cfg, degrading
// gracefully when one is unreachable, and starts background goroutines
// bound to ctx. A nil reg registers metrics with the default registry.
func build(ctx context.Context, cfg *config.Config, runWorker bool, reg prometheus.Registerer) (*analyzer, error) {
	a := &analyzer{}
	m := metrics.New(reg)

	opts, err := analysis.OptionsFromConfig(cfg.Analysis)
	if err != nil {
		return nil, fmt.Errorf("analysis options: %w", err)
	}
	assembler, err := report.NewAssembler(opts)
	if err != nil {
		return nil, fmt.Errorf("creating assembler: %w", err)
	}

	checker := health.NewChecker()
	deps := service.Deps{
		Assembler: assembler,
		Metrics:   m,
		Timeout:   cfg.Server.RequestTimeout,
	}

	if cfg.Postgres.Host != "" {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, report persistence disabled", "error", err)
		} else {
			a.closers = append(a.closers, func() { db.Close() })
			reports := store.New(db)
			if err := reports.Migrate(ctx); err != nil {
				a.close()
				return nil, fmt.Errorf("migrating report schema: %w", err)
			}
			deps.Repository = reports
			checker.Register("postgres", health.Ping(db.Ping, false))
			slog.Info("report store enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		}
	}

	var reportCache *cache.ReportCache
	if cfg.Redis.Addr != "" {
		rc, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, report caching disabled", "error", err)
		} else {
			a.closers = append(a.closers, func() { rc.Close() })
			reportCache = cache.New(rc, cfg.Redis.CacheTTL, m)
			deps.Cache = reportCache
			checker.Register("redis", health.Ping(rc.Ping, true))
			slog.Info("report cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	kafkaEnabled := len(cfg.Kafka.Brokers) > 0
	if kafkaEnabled {
		topics := cfg.Kafka.Topics

		requests := kafka.NewProducer(cfg.Kafka, topics.AnalysisRequests)
		a.closers = append(a.closers, func() { requests.Close() })
		deps.Requests = requests

		completedProducer := kafka.NewProducer(cfg.Kafka, topics.ReportsCompleted)
		completions := collector.NewBatchCollector(completedProducer, 50, 2*time.Second)
		completions.Start(ctx)
		a.closers = append(a.closers, func() {
			completions.Close()
			completedProducer.Close()
		})
		deps.Completions = completions

		eventsProducer := kafka.NewProducer(cfg.Kafka, topics.AnalyticsEvents)
		tracker := analytics.NewCollector(eventsProducer, cfg.Analytics.BufferSize)
		tracker.Start(ctx)
		a.closers = append(a.closers, func() { eventsProducer.Close() })
		deps.Tracker = tracker

		slog.Info("kafka enabled",
			"brokers", cfg.Kafka.Brokers,
			"requests_topic", topics.AnalysisRequests,
			"completed_topic", topics.ReportsCompleted,
			"analytics_topic", topics.AnalyticsEvents,
		)
	} else if runWorker {
		slog.Warn("worker requested but no kafka brokers configured")
	}

	a.svc, err = service.New(deps)
	if err != nil {
		a.close()
		return nil, err
	}

	if runWorker && kafkaEnabled {
		n := max(cfg.Analysis.Workers, 1)
		for i := 0; i < n; i++ {
			c := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalysisRequests, worker.HandleMessage(a.svc))
			a.workers.Add(1)
			go func() {
				defer a.workers.Done()
				if err := c.Start(ctx); err != nil {
					slog.Error("analysis worker error", "error", err)
				}
			}()
		}
		checker.Register("workers", func(context.Context) health.ComponentHealth {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d consumers", n)}
		})
		slog.Info("analysis workers started", "count", n, "topic", cfg.Kafka.Topics.AnalysisRequests)
	}

	api := http.NewServeMux()
	handler.New(a.svc, cfg.Server.MaxBodyBytes).Register(api)
	if reportCache != nil {
		handler.NewCacheHandler(reportCache).Register(api)
	}
	var apiHandler http.Handler = api
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		go limiter.Cleanup(ctx, cfg.RateLimit.CleanupInterval)
		apiHandler = middleware.RateLimit(limiter)(apiHandler)
		slog.Info("rate limiting enabled", "per_minute", cfg.RateLimit.RequestsPerMinute, "burst", cfg.RateLimit.Burst)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	a.handler = middleware.Chain(mux,
		middleware.Recover,
		middleware.RequestID,
		middleware.Metrics(m),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)
	return a, nil
}
