package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis/validator"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report/cache"
	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/metrics"
)

const debate = `WALLACE: Good evening.
TRUMP: We built the greatest economy. Jobs jobs jobs.
BIDEN: Come on. The economy is failing working families.
TRUMP: Jobs are coming back. The economy is booming.
BIDEN: Health care, health care for every family.`

type memoryRepo struct {
	mu      sync.Mutex
	reports map[string]*report.DebateReport
	fails   int
	saves   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{reports: make(map[string]*report.DebateReport)}
}

func (m *memoryRepo) Save(_ context.Context, r *report.DebateReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.fails > 0 {
		m.fails--
		return errors.New("connection reset")
	}
	m.reports[r.ID] = r
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id string) (*report.DebateReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, apperrors.ErrReportNotFound
	}
	return r, nil
}

func (m *memoryRepo) List(_ context.Context, _ report.ListFilter) ([]report.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]report.Summary, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r.Summary())
	}
	return out, nil
}

// mapCache keys requests by transcript, which is enough for these tests.
type mapCache struct {
	mu    sync.Mutex
	byID  map[string]*report.DebateReport
	byReq map[string]*report.DebateReport
}

func newMapCache() *mapCache {
	return &mapCache{byID: map[string]*report.DebateReport{}, byReq: map[string]*report.DebateReport{}}
}

func (c *mapCache) Get(_ context.Context, id string) (*report.DebateReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.byID[id]
	return r, ok
}

func (c *mapCache) Put(_ context.Context, r *report.DebateReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[r.ID] = r
}

func (c *mapCache) GetOrAnalyze(ctx context.Context, req report.Request, analyze func(context.Context) (*report.DebateReport, error)) (*report.DebateReport, bool, error) {
	c.mu.Lock()
	r, ok := c.byReq[req.Transcript]
	c.mu.Unlock()
	if ok {
		return r, true, nil
	}
	r, err := analyze(ctx)
	if err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	c.byReq[req.Transcript] = r
	c.byID[r.ID] = r
	c.mu.Unlock()
	return r, false, nil
}

type recorder struct {
	mu     sync.Mutex
	events []analytics.Event
	done   []analysis.CompletedEvent
	queued []kafka.Event
	err    error
}

func (r *recorder) Track(e analytics.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type notifier struct{ *recorder }

func (n notifier) Track(_ string, v any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.done = append(n.done, v.(analysis.CompletedEvent))
}

func (r *recorder) Publish(ctx context.Context, e kafka.Event) error {
	return r.PublishBatch(ctx, []kafka.Event{e})
}

func (r *recorder) PublishBatch(_ context.Context, events []kafka.Event) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued = append(r.queued, events...)
	return nil
}

type fixture struct {
	svc     *Service
	repo    *memoryRepo
	cache   *mapCache
	rec     *recorder
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	a, err := report.NewAssembler(report.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		repo:    newMemoryRepo(),
		cache:   newMapCache(),
		rec:     &recorder{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.svc, err = New(Deps{
		Assembler:   a,
		Cache:       f.cache,
		Repository:  f.repo,
		Requests:    f.rec,
		Completions: notifier{f.rec},
		Tracker:     f.rec,
		Metrics:     f.metrics,
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestNewRequiresAssembler(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Fatal("expected error without assembler")
	}
}

func TestAnalyzePersistsAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := report.Request{Title: "t", Transcript: debate, Speakers: []string{"TRUMP", "BIDEN", "PENCE"}}

	r, cached, err := f.svc.Analyze(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if cached {
		t.Fatal("first analysis should not be cached")
	}
	if _, err := f.repo.Get(ctx, r.ID); err != nil {
		t.Fatalf("report not persisted: %v", err)
	}

	again, cached, err := f.svc.Analyze(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if !cached || again.ID != r.ID {
		t.Fatalf("second analysis cached=%v id=%s, want cached %s", cached, again.ID, r.ID)
	}
	if f.repo.saves != 1 {
		t.Fatalf("saves = %d, want 1", f.repo.saves)
	}

	if got := testutil.ToFloat64(f.metrics.AnalysesTotal.WithLabelValues("debate", "ok")); got != 1 {
		t.Fatalf("ok analyses = %v", got)
	}
	if got := testutil.ToFloat64(f.metrics.AnalysesTotal.WithLabelValues("debate", "cached")); got != 1 {
		t.Fatalf("cached analyses = %v", got)
	}
	if got := testutil.ToFloat64(f.metrics.SpeakersMissing); got != 1 {
		t.Fatalf("missing speakers = %v", got)
	}
	if got := testutil.ToFloat64(f.metrics.ReportsPersisted.WithLabelValues("ok")); got != 1 {
		t.Fatalf("persisted = %v", got)
	}

	if len(f.rec.events) != 2 || f.rec.events[0].Tokens == 0 || !f.rec.events[1].CacheHit {
		t.Fatalf("unexpected analytics events %+v", f.rec.events)
	}
	if len(f.rec.done) != 2 || f.rec.done[0].Status != analysis.StatusCompleted || f.rec.done[0].Missing[0] != "PENCE" {
		t.Fatalf("unexpected completion events %+v", f.rec.done)
	}
}

// gatedBackend holds every read until open is closed, so concurrent callers
// all miss the cache together.
type gatedBackend struct {
	open chan struct{}
	mu   sync.Mutex
	data map[string][]byte
}

func (b *gatedBackend) GetBytes(ctx context.Context, key string) ([]byte, error) {
	select {
	case <-b.open:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return nil, redis.Nil
	}
	return v, nil
}

func (b *gatedBackend) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	return nil
}

func (b *gatedBackend) FlushByPattern(context.Context, string) (int64, error) { return 0, nil }

func TestConcurrentIdenticalAnalysesPersistOnce(t *testing.T) {
	a, err := report.NewAssembler(report.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	backend := &gatedBackend{open: make(chan struct{}), data: map[string][]byte{}}
	repo := newMemoryRepo()
	m := metrics.New(prometheus.NewRegistry())
	svc, err := New(Deps{
		Assembler:  a,
		Cache:      cache.New(backend, time.Minute, m),
		Repository: repo,
		Metrics:    m,
	})
	if err != nil {
		t.Fatal(err)
	}
	req := report.Request{Title: "t", Transcript: debate, Speakers: []string{"TRUMP", "BIDEN", "PENCE"}}

	const callers = 4
	var (
		wg    sync.WaitGroup
		fresh sync.Map
	)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, cached, err := svc.Analyze(context.Background(), req)
			if err != nil {
				t.Error(err)
				return
			}
			if !cached {
				fresh.Store(i, r)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(backend.open)
	wg.Wait()

	var tokens int
	n := 0
	fresh.Range(func(_, v any) bool {
		n++
		for _, sp := range v.(*report.DebateReport).Speakers {
			tokens += sp.TokenCount
		}
		return true
	})
	if n != 1 {
		t.Fatalf("%d callers ran the analysis, want 1", n)
	}
	if repo.saves != 1 {
		t.Fatalf("saves = %d, want 1", repo.saves)
	}
	if got := testutil.ToFloat64(m.SpeakersMissing); got != 1 {
		t.Fatalf("missing speakers = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TokensProcessed); got != float64(tokens) {
		t.Fatalf("tokens processed = %v, want %d", got, tokens)
	}
	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("debate", "cached")); got != callers-1 {
		t.Fatalf("cached analyses = %v, want %d", got, callers-1)
	}
}

func TestAnalyzeRetriesPersistence(t *testing.T) {
	f := newFixture(t)
	f.repo.fails = 1
	r, _, err := f.svc.Analyze(context.Background(), report.Request{Transcript: debate, Speakers: []string{"TRUMP"}})
	if err != nil {
		t.Fatal(err)
	}
	if f.repo.saves != 2 {
		t.Fatalf("saves = %d, want 2", f.repo.saves)
	}
	if _, err := f.repo.Get(context.Background(), r.ID); err != nil {
		t.Fatal(err)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Analyze(ctx, report.Request{Transcript: debate})
	var ve *validator.ValidationError
	if !errors.As(err, &ve) || ve.Fields["speakers"] == "" {
		t.Fatalf("expected speakers validation error, got %v", err)
	}

	_, _, err = f.svc.Analyze(ctx, report.Request{Transcript: debate, Speakers: []string{"PENCE"}})
	if !errors.Is(err, apperrors.ErrSpeakerNotFound) {
		t.Fatalf("expected ErrSpeakerNotFound, got %v", err)
	}
	if len(f.rec.events) != 1 || !f.rec.events[0].Failed() {
		t.Fatalf("expected one failed analytics event, got %+v", f.rec.events)
	}
	if got := testutil.ToFloat64(f.metrics.AnalysesTotal.WithLabelValues("debate", "error")); got != 1 {
		t.Fatalf("error analyses = %v", got)
	}
}

func TestSubmitAndProcess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := report.Request{Transcript: debate, Speakers: []string{"TRUMP", "BIDEN"}}

	// Warm the request cache so Process has to ignore it.
	first, _, err := f.svc.Analyze(ctx, req)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := f.svc.Submit(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != analysis.StatusAccepted || resp.ReportID == "" || resp.ReportID == first.ID {
		t.Fatalf("unexpected submit response %+v", resp)
	}
	if len(f.rec.queued) != 1 || f.rec.queued[0].Key != resp.ReportID {
		t.Fatalf("unexpected queued events %+v", f.rec.queued)
	}

	queued := f.rec.queued[0].Value.(analysis.RequestEvent)
	r, err := f.svc.Process(ctx, queued.Request)
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != resp.ReportID {
		t.Fatalf("processed report id %s, want %s", r.ID, resp.ReportID)
	}
	got, err := f.svc.Report(ctx, resp.ReportID)
	if err != nil || got.ID != resp.ReportID {
		t.Fatalf("Report(%s) = %v, %v", resp.ReportID, got, err)
	}
	if !f.rec.events[len(f.rec.events)-1].Async {
		t.Fatal("expected async analytics event")
	}
}

func TestProcessFailureNotifies(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Process(context.Background(), report.Request{ID: "r1", Transcript: debate, Speakers: []string{"PENCE"}})
	if !errors.Is(err, apperrors.ErrSpeakerNotFound) {
		t.Fatalf("expected ErrSpeakerNotFound, got %v", err)
	}
	last := f.rec.done[len(f.rec.done)-1]
	if last.ReportID != "r1" || last.Status != analysis.StatusFailed || last.Error == "" {
		t.Fatalf("unexpected completion %+v", last)
	}
}

func TestSubmitErrors(t *testing.T) {
	a, _ := report.NewAssembler(report.DefaultOptions())
	svc, _ := New(Deps{Assembler: a})
	if _, err := svc.Submit(context.Background(), report.Request{Transcript: debate, Speakers: []string{"TRUMP"}}); !errors.Is(err, apperrors.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable without publisher, got %v", err)
	}

	f := newFixture(t)
	f.rec.err = errors.New("broker down")
	if _, err := f.svc.Submit(context.Background(), report.Request{Transcript: debate, Speakers: []string{"TRUMP"}}); !errors.Is(err, apperrors.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on publish failure, got %v", err)
	}
}

func TestReportLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := &report.DebateReport{ID: "stored"}
	f.repo.reports["stored"] = stored

	got, err := f.svc.Report(ctx, "stored")
	if err != nil || got != stored {
		t.Fatalf("Report = %v, %v", got, err)
	}
	if _, ok := f.cache.Get(ctx, "stored"); !ok {
		t.Fatal("repository hit should populate the cache")
	}
	if _, err := f.svc.Report(ctx, "nope"); !errors.Is(err, apperrors.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}

	a, _ := report.NewAssembler(report.DefaultOptions())
	bare, _ := New(Deps{Assembler: a})
	if _, err := bare.Report(ctx, "x"); !errors.Is(err, apperrors.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound without repository, got %v", err)
	}
	list, err := bare.List(ctx, report.ListFilter{})
	if err != nil || len(list) != 0 {
		t.Fatalf("List without repository = %v, %v", list, err)
	}
}

func TestCompare(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.Compare(context.Background(), report.ComparisonRequest{
		Speaker: "TRUMP",
		First:   report.Document{Title: "one", Transcript: debate},
		Second:  report.Document{Title: "two", Transcript: "TRUMP: Jobs jobs and more jobs."},
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.Jaccard[1] <= 0 || c.Jaccard[1] > 1 {
		t.Fatalf("unexpected unigram jaccard %v", c.Jaccard[1])
	}
	if got := testutil.ToFloat64(f.metrics.AnalysesTotal.WithLabelValues("comparison", "ok")); got != 1 {
		t.Fatalf("comparisons = %v", got)
	}

	_, err = f.svc.Compare(context.Background(), report.ComparisonRequest{Speaker: "TRUMP"})
	var ve *validator.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
}
