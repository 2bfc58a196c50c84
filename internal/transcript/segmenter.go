package transcript

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

// headerPattern matches a speaker header at the start of a line: one or more
// uppercase words followed immediately by a colon. The remainder of the line
// is captured as the first fragment of the turn.
var headerPattern = regexp.MustCompile(`^([A-Z][A-Z0-9.'\-]*(?:[ \t]+[A-Z][A-Z0-9.'\-]*)*):(.*)$`)

// stageDirection matches bracketed or parenthesised asides such as
// [APPLAUSE] or (CROSSTALK).
var stageDirection = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

// Segmenter attributes transcript lines to speakers. The zero value is not
// usable; construct one with New.
type Segmenter struct {
	stripStageDirections bool
	fuzzyThreshold       float64
}

type Option func(*Segmenter)

// WithStageDirectionStripping removes [..] and (..) spans from every
// fragment before it is attributed.
func WithStageDirectionStripping() Option {
	return func(s *Segmenter) {
		s.stripStageDirections = true
	}
}

// WithFuzzyMatch resolves headers that are not an exact requested speaker to
// the closest requested speaker whose Jaro-Winkler similarity is at least
// threshold. A threshold <= 0 or > 1 disables fuzzy matching.
func WithFuzzyMatch(threshold float64) Option {
	return func(s *Segmenter) {
		if threshold > 0 && threshold <= 1 {
			s.fuzzyThreshold = threshold
		}
	}
}

func New(opts ...Option) *Segmenter {
	s := &Segmenter{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSegmenter = New()

// Segment uses exact header matching with no preprocessing.
func Segment(t Transcript, speakers SpeakerSet) SpeakerText {
	return defaultSegmenter.Segment(t, speakers)
}

// Segment merges every turn of each requested speaker into a single string,
// fragments joined by single spaces with whitespace runs collapsed. Speakers
// with no header in t are absent from the result.
func (s *Segmenter) Segment(t Transcript, speakers SpeakerSet) SpeakerText {
	return Merge(s.Turns(t, speakers))
}

// Merge folds turns into per-speaker text the way Segment does, for callers
// that already hold the turn list.
func Merge(turns []Turn) SpeakerText {
	fragments := make(map[string][]string)
	for _, turn := range turns {
		fragments[turn.Speaker] = append(fragments[turn.Speaker], turn.Text)
	}
	out := make(SpeakerText, len(fragments))
	for speaker, parts := range fragments {
		out[speaker] = collapse(strings.Join(parts, " "))
	}
	return out
}

// Turns returns the turns of requested speakers in transcript order. A header
// for any other speaker ends the current turn, and lines outside a requested
// turn are discarded.
func (s *Segmenter) Turns(t Transcript, speakers SpeakerSet) []Turn {
	turns := make([]Turn, 0)
	var (
		current *Turn
		parts   []string
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Text = collapse(strings.Join(parts, " "))
		turns = append(turns, *current)
		current, parts = nil, nil
	}

	for i, line := range t {
		if name, rest, ok := s.header(line); ok {
			flush()
			speaker, requested := s.resolve(name, speakers)
			if !requested {
				continue
			}
			current = &Turn{Speaker: speaker, Line: i + 1}
			if frag := s.fragment(rest); frag != "" {
				parts = append(parts, frag)
			}
			continue
		}
		if current == nil {
			continue
		}
		if frag := s.fragment(line); frag != "" {
			parts = append(parts, frag)
		}
	}
	flush()
	return turns
}

func (s *Segmenter) header(line string) (name, rest string, ok bool) {
	m := headerPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", "", false
	}
	return collapse(m[1]), m[2], true
}

func (s *Segmenter) resolve(name string, speakers SpeakerSet) (string, bool) {
	if speakers.Contains(name) {
		return name, true
	}
	if s.fuzzyThreshold == 0 {
		return "", false
	}
	best, bestScore := "", 0.0
	for _, candidate := range speakers.Names() {
		score := matchr.JaroWinkler(name, candidate, false)
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if bestScore >= s.fuzzyThreshold {
		return best, true
	}
	return "", false
}

func (s *Segmenter) fragment(text string) string {
	if s.stripStageDirections {
		text = stageDirection.ReplaceAllString(text, " ")
	}
	return strings.TrimSpace(text)
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
