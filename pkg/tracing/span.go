// Package tracing records timed span trees in contexts. An analysis opens a
// root span and each speaker or speaker pair adds a child; the finished tree
// is written to slog when logging is enabled.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type contextKey struct{}

var logSpans atomic.Bool

// SetLogging turns span-tree logging on or off process-wide.
func SetLogging(enabled bool) {
	logSpans.Store(enabled)
}

// Span is one timed operation within a trace.
type Span struct {
	Name      string
	TraceID   string
	StartTime time.Time
	Duration  time.Duration

	mu       sync.Mutex
	children []*Span
	attrs    map[string]any
}

// StartSpan creates a root span and stores it in the returned context.
func StartSpan(ctx context.Context, name string, traceID string) (context.Context, *Span) {
	span := &Span{
		Name:      name,
		TraceID:   traceID,
		StartTime: time.Now(),
		attrs:     make(map[string]any),
	}
	return context.WithValue(ctx, contextKey{}, span), span
}

// StartChildSpan creates a span under the one in ctx. Without a parent it
// behaves like a root span with no trace ID.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	parent := FromContext(ctx)
	child := &Span{
		Name:      name,
		StartTime: time.Now(),
		attrs:     make(map[string]any),
	}
	if parent != nil {
		child.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, child), child
}

func (s *Span) End() {
	s.mu.Lock()
	s.Duration = time.Since(s.StartTime)
	s.mu.Unlock()
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs[key] = value
	s.mu.Unlock()
}

// FromContext returns the current span, or nil.
func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

// Summary is a snapshot of a span tree.
type Summary struct {
	Name       string         `json:"name"`
	DurationMs float64        `json:"duration_ms"`
	Attrs      map[string]any `json:"attrs,omitempty"`
	Children   []Summary      `json:"children,omitempty"`
}

func (s *Span) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Summary{
		Name:       s.Name,
		DurationMs: float64(s.Duration.Microseconds()) / 1000,
	}
	if len(s.attrs) > 0 {
		out.Attrs = make(map[string]any, len(s.attrs))
		for k, v := range s.attrs {
			out.Attrs[k] = v
		}
	}
	for _, c := range s.children {
		out.Children = append(out.Children, c.Summary())
	}
	return out
}

// Log writes the span tree to slog at debug level, one record per span.
func (s *Span) Log() {
	if !logSpans.Load() {
		return
	}
	s.log(s.TraceID, s.Summary(), 0)
}

func (s *Span) log(traceID string, sum Summary, depth int) {
	attrs := []any{
		"trace_id", traceID,
		"span", sum.Name,
		"duration_ms", sum.DurationMs,
		"depth", depth,
	}
	for k, v := range sum.Attrs {
		attrs = append(attrs, k, v)
	}
	slog.Debug("span", attrs...)
	for _, child := range sum.Children {
		s.log(traceID, child, depth+1)
	}
}
