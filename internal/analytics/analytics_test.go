package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/kafka"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e kafka.Event) error {
	return p.PublishBatch(ctx, []kafka.Event{e})
}

func (p *recordingPublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestAggregatorRecord(t *testing.T) {
	agg := NewAggregator()
	agg.Record(Event{Type: EventAnalysis, Speakers: []string{"TRUMP", "BIDEN"}, Missing: []string{"WALLACE"}, Tokens: 100, LatencyMs: 10})
	agg.Record(Event{Type: EventAnalysis, Speakers: []string{"TRUMP"}, Tokens: 50, LatencyMs: 30, CacheHit: true, Async: true})
	agg.Record(Event{Type: EventComparison, Speakers: []string{"BIDEN"}, Tokens: 20, LatencyMs: 20})
	agg.Record(Event{Type: EventAnalysis, Error: "speaker not found", LatencyMs: 999})

	s := agg.Stats()
	if s.TotalAnalyses != 3 || s.TotalComparisons != 1 || s.AsyncAnalyses != 1 || s.Failures != 1 {
		t.Fatalf("unexpected totals %+v", s)
	}
	if s.CacheHits != 1 || s.CacheMisses != 2 {
		t.Fatalf("cache hits/misses = %d/%d", s.CacheHits, s.CacheMisses)
	}
	if s.TokensProcessed != 170 {
		t.Fatalf("tokens = %d, want 170", s.TokensProcessed)
	}
	if s.AvgLatencyMs != 20 || s.P50LatencyMs != 20 || s.P99LatencyMs != 30 {
		t.Fatalf("unexpected latency stats %+v", s)
	}
	if len(s.TopSpeakers) != 2 || s.TopSpeakers[0] != (SpeakerCount{"BIDEN", 2}) || s.TopSpeakers[1] != (SpeakerCount{"TRUMP", 2}) {
		t.Fatalf("top speakers = %+v", s.TopSpeakers)
	}
	if len(s.MissingSpeakers) != 1 || s.MissingSpeakers[0].Speaker != "WALLACE" {
		t.Fatalf("missing speakers = %+v", s.MissingSpeakers)
	}
}

func TestAggregatorRestore(t *testing.T) {
	agg := NewAggregator()
	agg.Restore(AggregatedStats{TotalAnalyses: 7, TopSpeakers: []SpeakerCount{{"TRUMP", 5}}})
	agg.Record(Event{Type: EventAnalysis, Speakers: []string{"TRUMP"}})
	s := agg.Stats()
	if s.TotalAnalyses != 8 || s.TopSpeakers[0].Count != 6 {
		t.Fatalf("unexpected stats after restore %+v", s)
	}
}

func TestHandleEvent(t *testing.T) {
	agg := NewAggregator()
	h := HandleEvent(agg)
	data, _ := json.Marshal(Event{Type: EventComparison})
	if err := h(context.Background(), nil, data); err != nil {
		t.Fatal(err)
	}
	if err := h(context.Background(), nil, []byte("not json")); !errors.Is(err, kafka.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if agg.Stats().TotalComparisons != 1 {
		t.Fatal("event not recorded")
	}
}

func TestPercentileAndTopN(t *testing.T) {
	if percentile(nil, 50) != 0 {
		t.Fatal("empty percentile should be 0")
	}
	if got := percentile([]int64{1, 2, 3, 4}, 100); got != 4 {
		t.Fatalf("p100 = %d", got)
	}
	got := topN(map[string]int64{"a": 1, "b": 3, "c": 2}, 2)
	if len(got) != 2 || got[0].Speaker != "b" || got[1].Speaker != "c" {
		t.Fatalf("topN = %+v", got)
	}
}

func TestCollectorPublishesAndDrains(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 10)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	c.Track(Event{Type: EventAnalysis})
	c.Track(Event{Type: EventComparison})

	deadline := time.Now().Add(2 * time.Second)
	for pub.len() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-c.done
	if pub.len() != 2 {
		t.Fatalf("published %d events, want 2", pub.len())
	}
	if pub.events[1].Key != string(EventComparison) {
		t.Fatalf("unexpected key %q", pub.events[1].Key)
	}
}

func TestCollectorDropsWhenFull(t *testing.T) {
	c := NewCollector(&recordingPublisher{}, 1)
	c.Track(Event{})
	c.Track(Event{})
	if len(c.eventCh) != 1 {
		t.Fatalf("buffer holds %d events, want 1", len(c.eventCh))
	}
}

type fakeSnapshots struct {
	snaps []AggregatedStats
	err   error
	limit int
}

func (f *fakeSnapshots) ListSnapshots(_ context.Context, limit int) ([]AggregatedStats, error) {
	f.limit = limit
	return f.snaps, f.err
}

func TestHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Record(Event{Type: EventAnalysis, LatencyMs: 5})
	snaps := &fakeSnapshots{snaps: []AggregatedStats{{TotalAnalyses: 3}}}
	h := NewHandler(agg, snaps)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	var stats AggregatedStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || stats.TotalAnalyses != 1 {
		t.Fatalf("stats response %d %+v", rec.Code, stats)
	}

	rec = httptest.NewRecorder()
	h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=5", nil))
	if rec.Code != http.StatusOK || snaps.limit != 5 {
		t.Fatalf("snapshots response %d, limit %d", rec.Code, snaps.limit)
	}

	rec = httptest.NewRecorder()
	h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewHandler(agg, nil).Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("nil store status = %d", rec.Code)
	}
}
