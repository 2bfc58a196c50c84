package frequency

import (
	"math"

	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
)

// KeynessEntry is one term's log-likelihood score between two corpora, with
// the raw counts it was computed from.
type KeynessEntry struct {
	Term   NGram   `json:"term"`
	Score  float64 `json:"score"`
	Count1 int     `json:"count1"`
	Count2 int     `json:"count2"`
}

// LogLikelihood returns Dunning's G² statistic for a term seen count1 times
// in a corpus of total1 items and count2 times in a corpus of total2 items.
// A zero count contributes 0 (0·ln 0 = 0). Each count must not exceed its
// corpus total.
func LogLikelihood(count1, count2, total1, total2 int) (float64, error) {
	if count1 < 0 || count2 < 0 || total1 < 0 || total2 < 0 {
		return 0, apperrors.Invalidf("log-likelihood arguments must be non-negative (%d, %d, %d, %d)",
			count1, count2, total1, total2)
	}
	if count1 > total1 || count2 > total2 {
		return 0, apperrors.Invalidf("log-likelihood count exceeds its corpus total (%d/%d, %d/%d)",
			count1, total1, count2, total2)
	}
	if total1+total2 == 0 {
		return 0, apperrors.Insufficientf("log-likelihood with zero combined corpus size")
	}
	combined := float64(count1 + count2)
	grand := float64(total1 + total2)
	expected1 := float64(total1) * combined / grand
	expected2 := float64(total2) * combined / grand
	return 2 * (llTerm(count1, expected1) + llTerm(count2, expected2)), nil
}

func llTerm(count int, expected float64) float64 {
	if count == 0 {
		return 0
	}
	return float64(count) * math.Log(float64(count)/expected)
}

// Keyness scores every n-gram in the union of both sequences' vocabularies
// and returns the top k by score, ties broken by lexical term order. k <= 0
// returns every term.
func Keyness(tokens1, tokens2 []string, n, k int) ([]KeynessEntry, error) {
	table1, err := Counts(tokens1, n)
	if err != nil {
		return nil, err
	}
	table2, err := Counts(tokens2, n)
	if err != nil {
		return nil, err
	}
	return KeynessTables(table1, table2, k)
}

// KeynessTables is Keyness over prebuilt frequency tables.
func KeynessTables(table1, table2 Table, k int) ([]KeynessEntry, error) {
	total1, total2 := table1.Total(), table2.Total()
	if total1+total2 == 0 {
		return nil, apperrors.Insufficientf("keyness over two empty corpora")
	}

	entries := make([]KeynessEntry, 0, len(table1)+len(table2))
	score := func(term NGram) error {
		c1, c2 := table1[term], table2[term]
		ll, err := LogLikelihood(c1, c2, total1, total2)
		if err != nil {
			return err
		}
		entries = append(entries, KeynessEntry{Term: term, Score: ll, Count1: c1, Count2: c2})
		return nil
	}
	for term := range table1 {
		if err := score(term); err != nil {
			return nil, err
		}
	}
	for term := range table2 {
		if _, seen := table1[term]; seen {
			continue
		}
		if err := score(term); err != nil {
			return nil, err
		}
	}

	return topK(entries, k, func(a, b KeynessEntry) bool {
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Term.Less(b.Term)
	}), nil
}
