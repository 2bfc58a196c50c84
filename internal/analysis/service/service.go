// Package service coordinates transcript analysis: it validates requests,
// runs the report assembler behind the report cache, persists finished
// reports, and emits completion and analytics events.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis/validator"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/resilience"
)

// Cache is implemented by cache.ReportCache.
// Cache coalesces identical analyses. GetOrAnalyze reports true unless this
// call ran analyze itself, so only one caller persists and counts a report.
type Cache interface {
	Get(ctx context.Context, id string) (*report.DebateReport, bool)
	Put(ctx context.Context, r *report.DebateReport)
	GetOrAnalyze(ctx context.Context, req report.Request, analyze func(ctx context.Context) (*report.DebateReport, error)) (*report.DebateReport, bool, error)
}

// Notifier is implemented by collector.BatchCollector.
type Notifier interface {
	Track(key string, value any)
}

// Deps wires the service. Only Assembler is required; every other
// dependency degrades the matching feature when nil.
type Deps struct {
	Assembler   *report.Assembler
	Cache       Cache
	Repository  report.Repository
	Requests    kafka.Publisher
	Completions Notifier
	Tracker     analytics.Tracker
	Metrics     *metrics.Metrics
	Timeout     time.Duration
}

type Service struct {
	assembler   *report.Assembler
	cache       Cache
	repo        report.Repository
	requests    kafka.Publisher
	completions Notifier
	tracker     analytics.Tracker
	metrics     *metrics.Metrics
	timeout     time.Duration
	persistCfg  resilience.RetryConfig
}

func New(d Deps) (*Service, error) {
	if d.Assembler == nil {
		return nil, errors.New("service: assembler is required")
	}
	tracker := d.Tracker
	if tracker == nil {
		tracker = analytics.Discard
	}
	return &Service{
		assembler:   d.Assembler,
		cache:       d.Cache,
		repo:        d.Repository,
		requests:    d.Requests,
		completions: d.Completions,
		tracker:     tracker,
		metrics:     d.Metrics,
		timeout:     d.Timeout,
		persistCfg: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
		},
	}, nil
}

// Analyze runs a synchronous analysis. The boolean reports whether the
// report came from the cache.
func (s *Service) Analyze(ctx context.Context, req report.Request) (*report.DebateReport, bool, error) {
	return s.analyze(ctx, req, false)
}

// Process runs an analysis dequeued by a worker and always publishes a
// completion event, including for failures.
func (s *Service) Process(ctx context.Context, req report.Request) (*report.DebateReport, error) {
	r, _, err := s.analyze(ctx, req, true)
	if err != nil {
		s.notify(analysis.CompletedEvent{
			ReportID:    req.ID,
			Title:       req.Title,
			Status:      analysis.StatusFailed,
			Error:       err.Error(),
			CompletedAt: time.Now().UTC(),
		})
	}
	return r, err
}

func (s *Service) analyze(ctx context.Context, req report.Request, async bool) (*report.DebateReport, bool, error) {
	start := time.Now()
	if err := validator.ValidateRequest(&req); err != nil {
		return nil, false, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	ctx = logger.WithAnalysisID(ctx, req.ID)
	log := logger.FromContext(ctx)

	var (
		r      *report.DebateReport
		cached bool
	)
	err := resilience.WithTimeout(ctx, s.timeout, "analyze", func(ctx context.Context) error {
		run := func(ctx context.Context) (*report.DebateReport, error) {
			return s.assembler.Analyze(ctx, req)
		}
		var err error
		// Queued reports must be stored under the ID handed to the submitter.
		if s.cache != nil && !async {
			r, cached, err = s.cache.GetOrAnalyze(ctx, req, run)
		} else {
			r, err = run(ctx)
		}
		return err
	})

	event := analytics.Event{
		Type:      analytics.EventAnalysis,
		ReportID:  req.ID,
		Async:     async,
		LatencyMs: time.Since(start).Milliseconds(),
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	}
	if err != nil {
		event.Error = err.Error()
		s.tracker.Track(event)
		s.observe("debate", "error", start)
		log.Warn("analysis failed", "error", err)
		return nil, false, err
	}

	tokens := 0
	for _, sp := range r.Speakers {
		tokens += sp.TokenCount
		event.Speakers = append(event.Speakers, sp.Speaker)
	}
	event.ReportID = r.ID
	event.Missing = r.Missing
	event.Tokens = tokens
	event.CacheHit = cached
	s.tracker.Track(event)

	outcome := "ok"
	if cached {
		outcome = "cached"
	} else {
		s.persist(ctx, r)
		if async && s.cache != nil {
			s.cache.Put(ctx, r)
		}
		if s.metrics != nil {
			s.metrics.TokensProcessed.Add(float64(tokens))
			s.metrics.SpeakersMissing.Add(float64(len(r.Missing)))
		}
	}
	s.observe("debate", outcome, start)

	sum := r.Summary()
	s.notify(analysis.CompletedEvent{
		ReportID:    r.ID,
		Title:       r.Title,
		Status:      analysis.StatusCompleted,
		Speakers:    sum.Speakers,
		Missing:     sum.Missing,
		DurationMs:  r.DurationMs,
		CompletedAt: time.Now().UTC(),
	})
	return r, cached, nil
}

// Submit validates req, assigns it an ID and queues it for a worker.
func (s *Service) Submit(ctx context.Context, req report.Request) (*analysis.SubmitResponse, error) {
	if s.requests == nil {
		return nil, apperrors.New(apperrors.ErrUnavailable, 503, "asynchronous analysis is not enabled")
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	event := kafka.Event{
		Key:   req.ID,
		Value: analysis.RequestEvent{Request: req, SubmittedAt: time.Now().UTC()},
	}
	if err := s.requests.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("%w: queueing analysis %s: %v", apperrors.ErrUnavailable, req.ID, err)
	}
	logger.FromContext(ctx).Info("analysis queued", "report_id", req.ID, "speakers", len(req.Speakers))
	return &analysis.SubmitResponse{ReportID: req.ID, Status: analysis.StatusAccepted}, nil
}

// Report returns a stored report, consulting the cache first.
func (s *Service) Report(ctx context.Context, id string) (*report.DebateReport, error) {
	if s.cache != nil {
		if r, ok := s.cache.Get(ctx, id); ok {
			return r, nil
		}
	}
	if s.repo == nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrReportNotFound, id)
	}
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Put(ctx, r)
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, filter report.ListFilter) ([]report.Summary, error) {
	if s.repo == nil {
		return []report.Summary{}, nil
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Compare(ctx context.Context, req report.ComparisonRequest) (*report.Comparison, error) {
	start := time.Now()
	if err := validator.ValidateComparison(&req); err != nil {
		return nil, err
	}
	var c *report.Comparison
	err := resilience.WithTimeout(ctx, s.timeout, "compare", func(ctx context.Context) error {
		var err error
		c, err = s.assembler.Compare(ctx, req)
		return err
	})
	event := analytics.Event{
		Type:      analytics.EventComparison,
		Speakers:  []string{req.Speaker},
		LatencyMs: time.Since(start).Milliseconds(),
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	}
	if err != nil {
		event.Error = err.Error()
		s.tracker.Track(event)
		s.observe("comparison", "error", start)
		return nil, err
	}
	s.tracker.Track(event)
	s.observe("comparison", "ok", start)
	return c, nil
}

// persist saves r with retries. Failures are logged; the report is still
// returned to the caller and remains reachable through the cache.
func (s *Service) persist(ctx context.Context, r *report.DebateReport) {
	if s.repo == nil {
		return
	}
	err := resilience.Retry(ctx, "save report", s.persistCfg, func(ctx context.Context) error {
		return s.repo.Save(ctx, r)
	})
	status := "ok"
	if err != nil {
		status = "error"
		logger.FromContext(ctx).Error("persisting report failed", "report_id", r.ID, "error", err)
	}
	if s.metrics != nil {
		s.metrics.ReportsPersisted.WithLabelValues(status).Inc()
	}
}

func (s *Service) notify(ev analysis.CompletedEvent) {
	if s.completions != nil {
		s.completions.Track(ev.ReportID, ev)
	}
}

func (s *Service) observe(kind, outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.AnalysesTotal.WithLabelValues(kind, outcome).Inc()
	s.metrics.AnalysisDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
