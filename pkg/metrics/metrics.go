// Package metrics defines the Prometheus collectors used by the analyzer and
// analytics services and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	AnalysesTotal        *prometheus.CounterVec
	AnalysisDuration     *prometheus.HistogramVec
	TokensProcessed      prometheus.Counter
	SpeakersMissing      prometheus.Counter
	ReportCacheHits      prometheus.Counter
	ReportCacheMisses    prometheus.Counter
	ReportsPersisted     *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg uses the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debate_analyses_total",
				Help: "Transcript analyses by kind (debate, comparison) and outcome (ok, cached, error).",
			},
			[]string{"kind", "outcome"},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "debate_analysis_duration_seconds",
				Help:    "Time spent assembling a report.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind"},
		),
		TokensProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "debate_tokens_processed_total",
				Help: "Normalised tokens scored across all speakers.",
			},
		),
		SpeakersMissing: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "debate_speakers_missing_total",
				Help: "Requested speakers that had no header in the transcript.",
			},
		),
		ReportCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "report_cache_hits_total",
				Help: "Report cache hits.",
			},
		),
		ReportCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "report_cache_misses_total",
				Help: "Report cache misses.",
			},
		),
		ReportsPersisted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reports_persisted_total",
				Help: "Report writes to the store by status.",
			},
			[]string{"status"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.TokensProcessed,
		m.SpeakersMissing,
		m.ReportCacheHits,
		m.ReportCacheMisses,
		m.ReportsPersisted,
		m.CircuitBreakerState,
	)
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}
