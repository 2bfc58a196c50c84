// Package report assembles per-speaker and per-pair statistics for a debate
// transcript into a single DebateReport, and compares one speaker across two
// debates.
package report

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/textstats/diversity"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/textstats/frequency"
)

// Request is a debate transcript plus the speakers to analyse.
type Request struct {
	ID         string   `json:"id,omitempty"`
	Title      string   `json:"title"`
	Transcript string   `json:"transcript"`
	Speakers   []string `json:"speakers"`
}

// SpeakerReport holds everything computed for one speaker. Diversity is nil
// when the speaker's text normalises to no tokens.
type SpeakerReport struct {
	Speaker     string                    `json:"speaker"`
	Turns       int                       `json:"turns"`
	WordCount   int                       `json:"word_count"`
	TokenCount  int                       `json:"token_count"`
	Diversity   *diversity.Score          `json:"diversity,omitempty"`
	TopNGrams   map[int][]frequency.Count `json:"top_ngrams"`
	Network     []frequency.Edge          `json:"network"`
	Annotations map[string]any            `json:"annotations,omitempty"`
}

// PairReport compares two speakers of the same debate. Keyness is keyed by
// n-gram size; sizes where both speakers have no n-grams are omitted.
type PairReport struct {
	Speaker1    string                           `json:"speaker1"`
	Speaker2    string                           `json:"speaker2"`
	Keyness     map[int][]frequency.KeynessEntry `json:"keyness"`
	Jaccard     map[int]float64                  `json:"jaccard"`
	Differences []frequency.Count                `json:"differences"`
}

// DebateReport is the assembled result for one transcript. Speakers are
// sorted by name; Missing lists requested speakers with no header in the
// transcript.
type DebateReport struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	CreatedAt  time.Time       `json:"created_at"`
	Speakers   []SpeakerReport `json:"speakers"`
	Pairs      []PairReport    `json:"pairs"`
	Missing    []string        `json:"missing,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}

// Speaker returns the report for name, if present.
func (r *DebateReport) Speaker(name string) (SpeakerReport, bool) {
	for _, s := range r.Speakers {
		if s.Speaker == name {
			return s, true
		}
	}
	return SpeakerReport{}, false
}

// Summary is the listing view of a stored report.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Speakers  []string  `json:"speakers"`
	Missing   []string  `json:"missing,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *DebateReport) Summary() Summary {
	names := make([]string, 0, len(r.Speakers))
	for _, s := range r.Speakers {
		names = append(names, s.Speaker)
	}
	return Summary{
		ID:        r.ID,
		Title:     r.Title,
		Speakers:  names,
		Missing:   r.Missing,
		CreatedAt: r.CreatedAt,
	}
}

// Document is one side of a cross-debate comparison.
type Document struct {
	Title      string `json:"title"`
	Transcript string `json:"transcript"`
}

// ComparisonRequest asks how one speaker's language differs between two
// debates.
type ComparisonRequest struct {
	Speaker string   `json:"speaker"`
	First   Document `json:"first"`
	Second  Document `json:"second"`
}

// Comparison is the result of a ComparisonRequest. Keyness is over unigrams,
// with Count1 from the first debate.
type Comparison struct {
	Speaker    string                   `json:"speaker"`
	First      string                   `json:"first"`
	Second     string                   `json:"second"`
	Diversity1 *diversity.Score         `json:"diversity1,omitempty"`
	Diversity2 *diversity.Score         `json:"diversity2,omitempty"`
	Jaccard    map[int]float64          `json:"jaccard"`
	Keyness    []frequency.KeynessEntry `json:"keyness"`
}
