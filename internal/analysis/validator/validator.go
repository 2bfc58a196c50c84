// Package validator checks analysis and comparison requests before any work
// is scheduled and reports problems per field.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
)

const (
	maxTitleLength      = 1024
	maxTranscriptLength = 16 << 20
	maxSpeakers         = 32
	maxSpeakerLength    = 128
	maxIDLength         = 64
)

// ValidationError holds per-field validation failure messages. It wraps
// ErrInvalidInput so callers can map it to a 400.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

func ValidateRequest(req *report.Request) error {
	errs := make(map[string]string)

	if len(req.ID) > maxIDLength {
		errs["id"] = fmt.Sprintf("id must be at most %d characters", maxIDLength)
	}
	if len(req.Title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	checkTranscript(errs, "transcript", req.Transcript)

	named := 0
	for _, s := range req.Speakers {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		named++
		if len(s) > maxSpeakerLength {
			errs["speakers"] = fmt.Sprintf("speaker names must be at most %d characters", maxSpeakerLength)
		}
	}
	switch {
	case named == 0:
		errs["speakers"] = "at least one speaker is required"
	case named > maxSpeakers:
		errs["speakers"] = fmt.Sprintf("at most %d speakers may be requested", maxSpeakers)
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func ValidateComparison(req *report.ComparisonRequest) error {
	errs := make(map[string]string)

	speaker := strings.TrimSpace(req.Speaker)
	if speaker == "" {
		errs["speaker"] = "speaker is required"
	} else if len(speaker) > maxSpeakerLength {
		errs["speaker"] = fmt.Sprintf("speaker must be at most %d characters", maxSpeakerLength)
	}
	checkTranscript(errs, "first.transcript", req.First.Transcript)
	checkTranscript(errs, "second.transcript", req.Second.Transcript)

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func checkTranscript(errs map[string]string, field, text string) {
	if strings.TrimSpace(text) == "" {
		errs[field] = "transcript is required and must not be empty"
	} else if len(text) > maxTranscriptLength {
		errs[field] = fmt.Sprintf("transcript must be at most %d bytes", maxTranscriptLength)
	}
}
