package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/config"
)

func TestOptionsFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stop.txt")
	if err := os.WriteFile(path, []byte("jobs\n# comment\neconomy\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	opts, err := OptionsFromConfig(config.AnalysisConfig{
		StopwordsFile:        path,
		MTLDThreshold:        0.8,
		MTLDMinTokens:        5,
		TopN:                 7,
		NGramSizes:           []int{1, 2},
		FuzzyThreshold:       0.9,
		StripStageDirections: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !opts.Stopwords.Contains("jobs") || opts.Stopwords.Contains("the") {
		t.Fatalf("stopwords not replaced: %v", opts.Stopwords.Words())
	}
	if opts.MTLD.Threshold != 0.8 || opts.MTLD.MinTokens != 5 || opts.TopN != 7 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if len(opts.NGramSizes) != 2 || !opts.StripStageDirections || opts.FuzzyThreshold != 0.9 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.KeynessTopK != 20 || opts.MaxConcurrency != 8 {
		t.Fatalf("zero values should keep defaults, got %+v", opts)
	}

	if _, err := OptionsFromConfig(config.AnalysisConfig{StopwordsFile: filepath.Join(dir, "missing")}); err == nil {
		t.Fatal("expected error for missing stopwords file")
	}
}
