// Package frequency builds n-gram frequency tables over token sequences and
// derives corpus-comparison statistics from them: log-likelihood keyness,
// n-gram set Jaccard similarity, frequency differences and adjacency
// networks.
package frequency

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
)

// sep joins n-gram terms into a single comparable key. It sorts below every
// printable rune, so comparing keys orders n-grams lexically term by term.
const sep = "\x00"

// NGram is an ordered tuple of consecutive tokens. It is comparable and can
// be used as a map key.
type NGram string

// NewNGram builds an NGram from its terms.
func NewNGram(terms ...string) NGram {
	return NGram(strings.Join(terms, sep))
}

func (g NGram) Terms() []string {
	if g == "" {
		return nil
	}
	return strings.Split(string(g), sep)
}

func (g NGram) Len() int {
	if g == "" {
		return 0
	}
	return strings.Count(string(g), sep) + 1
}

// String renders the n-gram with its terms separated by spaces.
func (g NGram) String() string {
	return strings.ReplaceAll(string(g), sep, " ")
}

// Less orders n-grams lexically, term by term.
func (g NGram) Less(other NGram) bool {
	return g < other
}

func (g NGram) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *NGram) UnmarshalText(text []byte) error {
	*g = NewNGram(strings.Fields(string(text))...)
	return nil
}

// Table maps each observed n-gram to its count. Counts are always >= 1.
type Table map[NGram]int

// Counts slides a window of width n over tokens and counts every contiguous
// n-gram. Sequences shorter than n produce an empty table.
func Counts(tokens []string, n int) (Table, error) {
	if n < 1 {
		return nil, apperrors.Invalidf("n-gram size must be >= 1, got %d", n)
	}
	if len(tokens) < n {
		return Table{}, nil
	}
	table := make(Table, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		table[NewNGram(tokens[i:i+n]...)]++
	}
	return table, nil
}

// Total returns the sum of all counts in the table.
func (t Table) Total() int {
	total := 0
	for _, c := range t {
		total += c
	}
	return total
}

// Count is a single n-gram with its frequency.
type Count struct {
	Term  NGram `json:"term"`
	Count int   `json:"count"`
}

// Top returns the k most frequent n-grams, ties broken by lexical term
// order. k <= 0 returns every entry.
func (t Table) Top(k int) []Count {
	items := make([]Count, 0, len(t))
	for term, c := range t {
		items = append(items, Count{Term: term, Count: c})
	}
	return topK(items, k, func(a, b Count) bool {
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Term.Less(b.Term)
	})
}

// Diff returns count_a - count_b for every n-gram in either table. Terms
// whose counts are equal are omitted.
func Diff(a, b Table) map[NGram]int {
	out := make(map[NGram]int, len(a)+len(b))
	for term, c := range a {
		if d := c - b[term]; d != 0 {
			out[term] = d
		}
	}
	for term, c := range b {
		if _, ok := a[term]; !ok {
			out[term] = -c
		}
	}
	return out
}

// DiffTop ranks Diff(a, b) by absolute difference and returns the top k.
func DiffTop(a, b Table, k int) []Count {
	diff := Diff(a, b)
	items := make([]Count, 0, len(diff))
	for term, d := range diff {
		items = append(items, Count{Term: term, Count: d})
	}
	return topK(items, k, func(x, y Count) bool {
		ax, ay := abs(x.Count), abs(y.Count)
		if ax != ay {
			return ax > ay
		}
		return x.Term.Less(y.Term)
	})
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
