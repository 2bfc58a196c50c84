package report

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/textstats/diversity"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/textstats/frequency"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/textstats/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/transcript"
	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/tracing"
)

// Compare measures how one speaker's language changed between two debates.
// The speaker must appear in both transcripts.
func (a *Assembler) Compare(ctx context.Context, req ComparisonRequest) (*Comparison, error) {
	speaker := strings.TrimSpace(req.Speaker)
	if speaker == "" {
		return nil, apperrors.Invalidf("speaker is required")
	}
	ctx, span := tracing.StartSpan(ctx, "compare", speaker)
	defer func() {
		span.End()
		span.Log()
	}()

	docs := [2]Document{req.First, req.Second}
	var tokens [2][]string
	g, gctx := errgroup.WithContext(ctx)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			texts := a.segmenter.Segment(transcript.Parse(doc.Transcript), transcript.NewSpeakerSet(speaker))
			text, err := texts.Lookup(speaker)
			if err != nil {
				return fmt.Errorf("debate %q: %w", doc.Title, err)
			}
			tokens[i] = tokenizer.Normalize(text, a.opts.Stopwords)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cmp := &Comparison{
		Speaker: speaker,
		First:   req.First.Title,
		Second:  req.Second.Title,
		Jaccard: make(map[int]float64, 3),
	}
	var err error
	if cmp.Diversity1, err = a.score(tokens[0]); err != nil {
		return nil, err
	}
	if cmp.Diversity2, err = a.score(tokens[1]); err != nil {
		return nil, err
	}
	for n := 1; n <= 3; n++ {
		j, err := frequency.Jaccard(tokens[0], tokens[1], n)
		if err != nil {
			return nil, err
		}
		cmp.Jaccard[n] = j
	}
	if len(tokens[0])+len(tokens[1]) > 0 {
		cmp.Keyness, err = frequency.Keyness(tokens[0], tokens[1], 1, a.opts.KeynessTopK)
		if err != nil {
			return nil, err
		}
	}
	return cmp, nil
}

func (a *Assembler) score(tokens []string) (*diversity.Score, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	s, err := diversity.Measure(tokens, a.opts.MTLD)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
