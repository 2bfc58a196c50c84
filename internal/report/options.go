package report

import (
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/textstats/diversity"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/textstats/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
)

type Options struct {
	Stopwords            tokenizer.StopSet
	MTLD                 diversity.MTLDOptions
	KeynessTopK          int
	TopN                 int
	NGramSizes           []int
	NetworkSize          int
	StripStageDirections bool
	FuzzyThreshold       float64
	MaxConcurrency       int
}

func DefaultOptions() Options {
	return Options{
		Stopwords:      tokenizer.English(),
		MTLD:           diversity.DefaultMTLDOptions(),
		KeynessTopK:    20,
		TopN:           20,
		NGramSizes:     []int{1, 2, 3},
		NetworkSize:    30,
		MaxConcurrency: 8,
	}
}

func (o Options) validate() error {
	if o.MTLD.Threshold <= 0 || o.MTLD.Threshold >= 1 {
		return apperrors.Invalidf("mtld threshold must be in (0,1), got %v", o.MTLD.Threshold)
	}
	if o.MTLD.MinTokens < 0 {
		return apperrors.Invalidf("mtld min tokens must be >= 0, got %d", o.MTLD.MinTokens)
	}
	if len(o.NGramSizes) == 0 {
		return apperrors.Invalidf("at least one n-gram size is required")
	}
	for _, n := range o.NGramSizes {
		if n < 1 {
			return apperrors.Invalidf("n-gram size must be >= 1, got %d", n)
		}
	}
	if o.FuzzyThreshold < 0 || o.FuzzyThreshold > 1 {
		return apperrors.Invalidf("fuzzy threshold must be in [0,1], got %v", o.FuzzyThreshold)
	}
	return nil
}
