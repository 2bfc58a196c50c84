// Package diversity computes lexical diversity statistics over normalised
// token sequences: the type-token ratio and MTLD (Measure of Textual Lexical
// Diversity).
package diversity

import (
	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
)

const (
	DefaultThreshold = 0.72
	DefaultMinTokens = 10
)

// MTLDOptions controls the factor threshold and the minimum sequence length
// below which MTLD is reported as 0.
type MTLDOptions struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	MinTokens int     `json:"min_tokens" yaml:"minTokens"`
}

// DefaultMTLDOptions returns the conventional MTLD parameters (0.72, 10).
func DefaultMTLDOptions() MTLDOptions {
	return MTLDOptions{Threshold: DefaultThreshold, MinTokens: DefaultMinTokens}
}

func (o MTLDOptions) validate() error {
	if !(o.Threshold > 0 && o.Threshold < 1) {
		return apperrors.Invalidf("mtld threshold must be in (0,1), got %v", o.Threshold)
	}
	if o.MinTokens < 0 {
		return apperrors.Invalidf("mtld min tokens must be >= 0, got %d", o.MinTokens)
	}
	return nil
}

// Score bundles the diversity statistics for one token sequence.
type Score struct {
	Tokens int     `json:"tokens"`
	Types  int     `json:"types"`
	TTR    float64 `json:"ttr"`
	MTLD   float64 `json:"mtld"`
}

// TTR returns distinct(tokens)/len(tokens). An empty sequence is
// ErrInsufficientData.
func TTR(tokens []string) (float64, error) {
	if len(tokens) == 0 {
		return 0, apperrors.Insufficientf("type-token ratio of an empty token sequence")
	}
	return float64(countTypes(tokens)) / float64(len(tokens)), nil
}

// MTLD returns the bidirectional MTLD of tokens. Sequences shorter than
// opts.MinTokens, and sequences where either direction yields zero factors,
// score 0.
func MTLD(tokens []string, opts MTLDOptions) (float64, error) {
	if err := opts.validate(); err != nil {
		return 0, err
	}
	if len(tokens) < opts.MinTokens || len(tokens) == 0 {
		return 0, nil
	}
	forward := factorCount(tokens, opts.Threshold, false)
	backward := factorCount(tokens, opts.Threshold, true)
	if forward == 0 || backward == 0 {
		return 0, nil
	}
	return float64(len(tokens)) / ((forward + backward) / 2), nil
}

// Measure computes TTR and MTLD together.
func Measure(tokens []string, opts MTLDOptions) (Score, error) {
	ttr, err := TTR(tokens)
	if err != nil {
		return Score{}, err
	}
	mtld, err := MTLD(tokens, opts)
	if err != nil {
		return Score{}, err
	}
	return Score{
		Tokens: len(tokens),
		Types:  countTypes(tokens),
		TTR:    ttr,
		MTLD:   mtld,
	}, nil
}

// factorCount walks tokens (back to front when reverse is set) closing a
// factor each time the running TTR drops to threshold, and adds the partial
// factor left at the end.
func factorCount(tokens []string, threshold float64, reverse bool) float64 {
	var factors float64
	seen := make(map[string]struct{})
	count := 0

	step := func(tok string) {
		count++
		seen[tok] = struct{}{}
		if float64(len(seen))/float64(count) <= threshold {
			factors++
			count = 0
			clear(seen)
		}
	}
	if reverse {
		for i := len(tokens) - 1; i >= 0; i-- {
			step(tokens[i])
		}
	} else {
		for _, tok := range tokens {
			step(tok)
		}
	}

	if count > 0 {
		ttr := float64(len(seen)) / float64(count)
		factors += (1 - ttr) / (1 - threshold)
	}
	return factors
}

func countTypes(tokens []string) int {
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[t] = struct{}{}
	}
	return len(seen)
}
