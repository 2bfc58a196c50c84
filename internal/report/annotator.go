package report

import "context"

// Annotator attaches extra per-speaker results (sentiment, topics,
// readability) computed by an external collaborator. The returned value is
// stored under Name() in SpeakerReport.Annotations and must be JSON
// serialisable.
type Annotator interface {
	Name() string
	Annotate(ctx context.Context, speaker, text string, tokens []string) (any, error)
}

// AnnotatorFunc adapts a function to the Annotator interface.
type AnnotatorFunc struct {
	Label string
	Fn    func(ctx context.Context, speaker, text string, tokens []string) (any, error)
}

func (f AnnotatorFunc) Name() string { return f.Label }

func (f AnnotatorFunc) Annotate(ctx context.Context, speaker, text string, tokens []string) (any, error) {
	return f.Fn(ctx, speaker, text, tokens)
}
