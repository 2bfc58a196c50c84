package analysis

import (
	"fmt"
	"os"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/textstats/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/config"
)

// OptionsFromConfig builds assembler options from cfg. A configured
// stopwords file replaces the built-in English list.
func OptionsFromConfig(cfg config.AnalysisConfig) (report.Options, error) {
	opts := report.DefaultOptions()
	if cfg.StopwordsFile != "" {
		f, err := os.Open(cfg.StopwordsFile)
		if err != nil {
			return opts, fmt.Errorf("opening stopwords file: %w", err)
		}
		defer f.Close()
		stop, err := tokenizer.LoadStopSet(f)
		if err != nil {
			return opts, fmt.Errorf("loading stopwords from %s: %w", cfg.StopwordsFile, err)
		}
		opts.Stopwords = stop
	}
	if cfg.MTLDThreshold > 0 {
		opts.MTLD.Threshold = cfg.MTLDThreshold
	}
	opts.MTLD.MinTokens = cfg.MTLDMinTokens
	if cfg.KeynessTopK > 0 {
		opts.KeynessTopK = cfg.KeynessTopK
	}
	if cfg.TopN > 0 {
		opts.TopN = cfg.TopN
	}
	if len(cfg.NGramSizes) > 0 {
		opts.NGramSizes = cfg.NGramSizes
	}
	if cfg.NetworkSize > 0 {
		opts.NetworkSize = cfg.NetworkSize
	}
	if cfg.MaxConcurrency > 0 {
		opts.MaxConcurrency = cfg.MaxConcurrency
	}
	opts.StripStageDirections = cfg.StripStageDirections
	opts.FuzzyThreshold = cfg.FuzzyThreshold
	return opts, nil
}
