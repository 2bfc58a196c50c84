package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// CacheAdmin is implemented by cache.ReportCache.
type CacheAdmin interface {
	Stats() (hits, misses int64)
	Invalidate(ctx context.Context) error
}

type CacheHandler struct {
	cache CacheAdmin
	h     *Handler
}

func NewCacheHandler(c CacheAdmin) *CacheHandler {
	return &CacheHandler{
		cache: c,
		h:     &Handler{logger: slog.Default().With("component", "cache-handler")},
	}
}

func (c *CacheHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/cache/stats", c.Stats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", c.Invalidate)
}

func (c *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	hits, misses := c.cache.Stats()
	rate := 0.0
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	c.h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"hit_rate": rate,
	})
}

func (c *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if err := c.cache.Invalidate(r.Context()); err != nil {
		c.h.logger.Error("cache invalidation failed", "error", err)
		c.h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	c.h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}
