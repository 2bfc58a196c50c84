package analytics

import "time"

type EventType string

const (
	EventAnalysis   EventType = "analysis"
	EventComparison EventType = "comparison"
)

// Event describes one finished analysis or comparison. Error is set when
// the operation failed; the remaining fields are then best effort.
type Event struct {
	Type      EventType `json:"type"`
	ReportID  string    `json:"report_id,omitempty"`
	Speakers  []string  `json:"speakers,omitempty"`
	Missing   []string  `json:"missing,omitempty"`
	Tokens    int       `json:"tokens"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Async     bool      `json:"async,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

func (e Event) Failed() bool {
	return e.Error != ""
}
