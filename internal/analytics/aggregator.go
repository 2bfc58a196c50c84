package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/kafka"
)

// maxLatencySamples bounds the latency window used for percentiles.
const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalAnalyses     int64          `json:"total_analyses"`
	TotalComparisons  int64          `json:"total_comparisons"`
	AsyncAnalyses     int64          `json:"async_analyses"`
	Failures          int64          `json:"failures"`
	CacheHits         int64          `json:"cache_hits"`
	CacheMisses       int64          `json:"cache_misses"`
	TokensProcessed   int64          `json:"tokens_processed"`
	AvgLatencyMs      float64        `json:"avg_latency_ms"`
	P50LatencyMs      int64          `json:"p50_latency_ms"`
	P95LatencyMs      int64          `json:"p95_latency_ms"`
	P99LatencyMs      int64          `json:"p99_latency_ms"`
	TopSpeakers       []SpeakerCount `json:"top_speakers"`
	MissingSpeakers   []SpeakerCount `json:"missing_speakers"`
	AnalysesPerMinute float64        `json:"analyses_per_minute"`
	CapturedAt        time.Time      `json:"captured_at"`
}

type SpeakerCount struct {
	Speaker string `json:"speaker"`
	Count   int64  `json:"count"`
}

type Aggregator struct {
	mu               sync.RWMutex
	totalAnalyses    atomic.Int64
	totalComparisons atomic.Int64
	asyncAnalyses    atomic.Int64
	failures         atomic.Int64
	cacheHits        atomic.Int64
	cacheMisses      atomic.Int64
	tokens           atomic.Int64
	latencies        []int64
	speakerCounts    map[string]int64
	missingCounts    map[string]int64
	startTime        time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:     make([]int64, 0, 1024),
		speakerCounts: make(map[string]int64),
		missingCounts: make(map[string]int64),
		startTime:     time.Now(),
		logger:        slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent returns a Kafka handler feeding analytics events into agg.
// Undecodable messages are permanent failures and are skipped.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[Event](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err, "key", string(key))
			return err
		}
		agg.Record(event)
		return nil
	}
}

func (a *Aggregator) Record(event Event) {
	switch event.Type {
	case EventComparison:
		a.totalComparisons.Add(1)
	default:
		a.totalAnalyses.Add(1)
		if event.Async {
			a.asyncAnalyses.Add(1)
		}
	}
	if event.Failed() {
		a.failures.Add(1)
		return
	}
	if event.CacheHit {
		a.cacheHits.Add(1)
	} else {
		a.cacheMisses.Add(1)
	}
	a.tokens.Add(int64(event.Tokens))

	a.mu.Lock()
	a.latencies = append(a.latencies, event.LatencyMs)
	if len(a.latencies) > maxLatencySamples {
		a.latencies = a.latencies[len(a.latencies)-maxLatencySamples:]
	}
	for _, s := range event.Speakers {
		a.speakerCounts[s]++
	}
	for _, s := range event.Missing {
		a.missingCounts[s]++
	}
	a.mu.Unlock()
}

// Restore seeds the counters from a previously saved snapshot so totals
// survive a restart. Latency samples are not restored.
func (a *Aggregator) Restore(stats AggregatedStats) {
	a.totalAnalyses.Store(stats.TotalAnalyses)
	a.totalComparisons.Store(stats.TotalComparisons)
	a.asyncAnalyses.Store(stats.AsyncAnalyses)
	a.failures.Store(stats.Failures)
	a.cacheHits.Store(stats.CacheHits)
	a.cacheMisses.Store(stats.CacheMisses)
	a.tokens.Store(stats.TokensProcessed)

	a.mu.Lock()
	for _, sc := range stats.TopSpeakers {
		a.speakerCounts[sc.Speaker] = sc.Count
	}
	for _, sc := range stats.MissingSpeakers {
		a.missingCounts[sc.Speaker] = sc.Count
	}
	a.mu.Unlock()
	a.logger.Info("restored analytics snapshot", "captured_at", stats.CapturedAt, "total_analyses", stats.TotalAnalyses)
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalAnalyses:    a.totalAnalyses.Load(),
		TotalComparisons: a.totalComparisons.Load(),
		AsyncAnalyses:    a.asyncAnalyses.Load(),
		Failures:         a.failures.Load(),
		CacheHits:        a.cacheHits.Load(),
		CacheMisses:      a.cacheMisses.Load(),
		TokensProcessed:  a.tokens.Load(),
		CapturedAt:       time.Now().UTC(),
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopSpeakers = topN(a.speakerCounts, 10)
	stats.MissingSpeakers = topN(a.missingCounts, 10)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.AnalysesPerMinute = float64(stats.TotalAnalyses) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count descending, then speaker name.
func topN(counts map[string]int64, n int) []SpeakerCount {
	result := make([]SpeakerCount, 0, len(counts))
	for speaker, count := range counts {
		result = append(result, SpeakerCount{Speaker: speaker, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Speaker < result[j].Speaker
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
