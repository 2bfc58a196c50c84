// Package analysis defines the request, response and Kafka event schemas of
// the transcript analysis service.
package analysis

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
)

const (
	StatusAccepted  = "accepted"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// SubmitResponse is returned when an analysis is queued for a worker.
type SubmitResponse struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
}

// RequestEvent is the Kafka payload of a queued analysis. Request.ID is
// always set so the caller can poll for the report.
type RequestEvent struct {
	Request     report.Request `json:"request"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// CompletedEvent announces a finished (or failed) analysis on the reports
// topic.
type CompletedEvent struct {
	ReportID    string    `json:"report_id"`
	Title       string    `json:"title,omitempty"`
	Status      string    `json:"status"`
	Speakers    []string  `json:"speakers,omitempty"`
	Missing     []string  `json:"missing,omitempty"`
	Error       string    `json:"error,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
}
