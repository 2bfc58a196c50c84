// Package cache stores assembled reports in Redis as snappy-compressed JSON,
// keyed both by report ID and by a fingerprint of the analysis request, and
// coalesces concurrent identical analyses.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang/snappy"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/resilience"
)

const (
	idPrefix      = "report:id:"
	requestPrefix = "report:req:"
)

// Backend is the subset of the Redis client the cache uses.
type Backend interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type ReportCache struct {
	backend Backend
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New wraps backend. m may be nil.
func New(backend Backend, ttl time.Duration, m *metrics.Metrics) *ReportCache {
	cbCfg := resilience.CircuitBreakerConfig{FailureThreshold: 5, ResetTimeout: 15 * time.Second}
	if m != nil {
		cbCfg.OnStateChange = func(name string, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	}
	return &ReportCache{
		backend: backend,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreaker("report-cache", cbCfg),
		metrics: m,
		logger:  slog.Default().With("component", "report-cache"),
	}
}

// Get returns the cached report with the given ID. Backend failures are
// logged and reported as a miss.
func (c *ReportCache) Get(ctx context.Context, id string) (*report.DebateReport, bool) {
	return c.load(ctx, idPrefix+id)
}

// Put caches r under its ID.
func (c *ReportCache) Put(ctx context.Context, r *report.DebateReport) {
	c.store(ctx, r, idPrefix+r.ID)
}

// GetOrAnalyze returns the cached report for an identical request, or runs
// analyze once for all concurrent callers with the same request and caches
// the result. The boolean is false only for the caller whose analyze ran;
// callers served from the cache or from another caller's run see true.
func (c *ReportCache) GetOrAnalyze(
	ctx context.Context,
	req report.Request,
	analyze func(ctx context.Context) (*report.DebateReport, error),
) (*report.DebateReport, bool, error) {
	key := requestPrefix + RequestKey(req)
	if r, ok := c.load(ctx, key); ok {
		return r, true, nil
	}
	ran := false
	val, err, _ := c.group.Do(key, func() (any, error) {
		if r, ok := c.load(ctx, key); ok {
			return r, nil
		}
		ran = true
		r, err := analyze(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, r, key, idPrefix+r.ID)
		return r, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*report.DebateReport), !ran, nil
}

func (c *ReportCache) Invalidate(ctx context.Context) error {
	var total int64
	for _, prefix := range []string{idPrefix, requestPrefix} {
		n, err := c.backend.FlushByPattern(ctx, prefix+"*")
		if err != nil {
			return fmt.Errorf("invalidating report cache: %w", err)
		}
		total += n
	}
	c.logger.Info("cache invalidated", "keys_deleted", total)
	return nil
}

func (c *ReportCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *ReportCache) load(ctx context.Context, key string) (*report.DebateReport, bool) {
	var data []byte
	err := c.breaker.ExecuteIgnoring(func() error {
		var err error
		data, err = c.backend.GetBytes(ctx, key)
		return err
	}, pkgredis.IsNilError)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	r, err := decode(data)
	if err != nil {
		c.logger.Error("cache decode failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.ReportCacheHits.Inc()
	}
	return r, true
}

func (c *ReportCache) store(ctx context.Context, r *report.DebateReport, keys ...string) {
	data, err := encode(r)
	if err != nil {
		c.logger.Error("cache encode failed", "report_id", r.ID, "error", err)
		return
	}
	for _, key := range keys {
		err := c.breaker.Execute(func() error {
			return c.backend.SetBytes(ctx, key, data, c.ttl)
		})
		if err != nil {
			c.logger.Warn("cache set failed", "key", key, "error", err)
			return
		}
	}
}

func (c *ReportCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.ReportCacheMisses.Inc()
	}
}

func encode(r *report.DebateReport) ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

func decode(data []byte) (*report.DebateReport, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, err
	}
	var r report.DebateReport
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// RequestKey fingerprints the parts of a request that affect the report:
// the title, the transcript and the set of speakers. Speaker order and
// duplicates do not change the key.
func RequestKey(req report.Request) string {
	speakers := make([]string, 0, len(req.Speakers))
	seen := make(map[string]bool, len(req.Speakers))
	for _, s := range req.Speakers {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		speakers = append(speakers, s)
	}
	sort.Strings(speakers)

	h := sha256.New()
	h.Write([]byte(req.Title))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(speakers, "\x1f")))
	h.Write([]byte{0})
	h.Write([]byte(req.Transcript))
	return hex.EncodeToString(h.Sum(nil)[:16])
}
