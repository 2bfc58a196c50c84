package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/textstats/diversity"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/textstats/frequency"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/textstats/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/transcript"
	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/tracing"
)

// Assembler runs the statistics engines over a transcript and collects the
// results. It is safe for concurrent use.
type Assembler struct {
	opts       Options
	segmenter  *transcript.Segmenter
	annotators []Annotator
	logger     *slog.Logger
}

func NewAssembler(opts Options, annotators ...Annotator) (*Assembler, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	var segOpts []transcript.Option
	if opts.StripStageDirections {
		segOpts = append(segOpts, transcript.WithStageDirectionStripping())
	}
	if opts.FuzzyThreshold > 0 {
		segOpts = append(segOpts, transcript.WithFuzzyMatch(opts.FuzzyThreshold))
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	return &Assembler{
		opts:       opts,
		segmenter:  transcript.New(segOpts...),
		annotators: annotators,
		logger:     logger.WithComponent("report-assembler"),
	}, nil
}

// speakerData is the intermediate per-speaker state shared between the
// speaker and pair phases.
type speakerData struct {
	name   string
	text   string
	tokens []string
	tables map[int]frequency.Table
}

// Analyze segments req.Transcript, scores every requested speaker found, and
// compares every pair of found speakers. When none of the requested speakers
// appear, it returns ErrSpeakerNotFound.
func (a *Assembler) Analyze(ctx context.Context, req Request) (*DebateReport, error) {
	start := time.Now()
	speakers := transcript.NewSpeakerSet(req.Speakers...)
	if len(speakers) == 0 {
		return nil, apperrors.Invalidf("at least one speaker is required")
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	ctx, span := tracing.StartSpan(ctx, "analyze", id)
	defer func() {
		span.End()
		span.Log()
	}()
	log := logger.FromContext(ctx).With("analysis_id", id)

	lines := transcript.Parse(req.Transcript)
	turns := a.segmenter.Turns(lines, speakers)
	texts := transcript.Merge(turns)
	missing := texts.Missing(speakers)
	span.SetAttr("lines", len(lines))
	span.SetAttr("turns", len(turns))
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: none of %v appear in the transcript", apperrors.ErrSpeakerNotFound, speakers.Names())
	}
	if len(missing) > 0 {
		log.Warn("requested speakers not found", "missing", missing)
	}

	turnCounts := make(map[string]int, len(texts))
	for _, t := range turns {
		turnCounts[t.Speaker]++
	}

	found := make([]string, 0, len(texts))
	for name := range texts {
		found = append(found, name)
	}
	sort.Strings(found)

	data := make([]*speakerData, len(found))
	reports := make([]SpeakerReport, len(found))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.MaxConcurrency)
	for i, name := range found {
		g.Go(func() error {
			d, rep, err := a.speaker(gctx, name, texts[name], turnCounts[name])
			if err != nil {
				return fmt.Errorf("speaker %q: %w", name, err)
			}
			data[i], reports[i] = d, rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pairs := make([]PairReport, 0, len(data)*(len(data)-1)/2)
	for i := range data {
		for j := i + 1; j < len(data); j++ {
			pairs = append(pairs, PairReport{Speaker1: data[i].name, Speaker2: data[j].name})
		}
	}
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(a.opts.MaxConcurrency)
	idx := 0
	for i := range data {
		for j := i + 1; j < len(data); j++ {
			p := &pairs[idx]
			d1, d2 := data[i], data[j]
			g.Go(func() error {
				if err := a.pair(gctx, p, d1, d2); err != nil {
					return fmt.Errorf("pair %q/%q: %w", d1.name, d2.name, err)
				}
				return nil
			})
			idx++
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &DebateReport{
		ID:         id,
		Title:      req.Title,
		CreatedAt:  start.UTC(),
		Speakers:   reports,
		Pairs:      pairs,
		Missing:    missing,
		DurationMs: time.Since(start).Milliseconds(),
	}
	log.Info("analysis complete",
		"speakers", len(reports),
		"pairs", len(pairs),
		"missing", len(missing),
		"duration", time.Since(start),
	)
	return report, nil
}

func (a *Assembler) speaker(ctx context.Context, name, text string, turns int) (*speakerData, SpeakerReport, error) {
	ctx, span := tracing.StartChildSpan(ctx, "speaker")
	defer span.End()
	span.SetAttr("speaker", name)

	if err := ctx.Err(); err != nil {
		return nil, SpeakerReport{}, err
	}

	tokens := tokenizer.Normalize(text, a.opts.Stopwords)
	d := &speakerData{name: name, text: text, tokens: tokens, tables: make(map[int]frequency.Table)}
	rep := SpeakerReport{
		Speaker:    name,
		Turns:      turns,
		WordCount:  tokenizer.WordCount(text),
		TokenCount: len(tokens),
		TopNGrams:  make(map[int][]frequency.Count),
		Network:    frequency.Network(tokens, a.opts.NetworkSize),
	}
	span.SetAttr("tokens", len(tokens))

	if len(tokens) > 0 {
		score, err := diversity.Measure(tokens, a.opts.MTLD)
		if err != nil {
			return nil, SpeakerReport{}, err
		}
		rep.Diversity = &score
	}

	for _, n := range a.opts.NGramSizes {
		table, err := frequency.Counts(tokens, n)
		if err != nil {
			return nil, SpeakerReport{}, err
		}
		d.tables[n] = table
		rep.TopNGrams[n] = table.Top(a.opts.TopN)
	}

	for _, ann := range a.annotators {
		value, err := ann.Annotate(ctx, name, text, tokens)
		if err != nil {
			a.logger.Warn("annotator failed, skipping",
				"annotator", ann.Name(),
				"speaker", name,
				"error", err,
			)
			continue
		}
		if rep.Annotations == nil {
			rep.Annotations = make(map[string]any)
		}
		rep.Annotations[ann.Name()] = value
	}
	return d, rep, nil
}

func (a *Assembler) pair(ctx context.Context, p *PairReport, d1, d2 *speakerData) error {
	_, span := tracing.StartChildSpan(ctx, "pair")
	defer span.End()
	span.SetAttr("speakers", d1.name+"/"+d2.name)

	if err := ctx.Err(); err != nil {
		return err
	}

	p.Keyness = make(map[int][]frequency.KeynessEntry, len(a.opts.NGramSizes))
	p.Jaccard = make(map[int]float64, len(a.opts.NGramSizes))
	for _, n := range a.opts.NGramSizes {
		t1, t2 := d1.tables[n], d2.tables[n]
		if t1.Total()+t2.Total() > 0 {
			entries, err := frequency.KeynessTables(t1, t2, a.opts.KeynessTopK)
			if err != nil {
				return err
			}
			p.Keyness[n] = entries
		}
		j, err := frequency.Jaccard(d1.tokens, d2.tokens, n)
		if err != nil {
			return err
		}
		p.Jaccard[n] = j
	}

	u1, err := frequency.Counts(d1.tokens, 1)
	if err != nil {
		return err
	}
	u2, err := frequency.Counts(d2.tokens, 1)
	if err != nil {
		return err
	}
	p.Differences = frequency.DiffTop(u1, u2, a.opts.TopN)
	return nil
}
