// Package transcript splits raw multi-speaker debate transcripts into the
// text spoken by each requested speaker.
package transcript

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
)

const maxLineBytes = 1 << 20

// Transcript is the ordered list of raw lines of a transcript.
type Transcript []string

// Parse splits text into lines. Both \n and \r\n line endings are accepted.
func Parse(text string) Transcript {
	if text == "" {
		return Transcript{}
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return Transcript(lines)
}

// Read loads a transcript from r, one line at a time.
func Read(r io.Reader) (Transcript, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var lines Transcript
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	if lines == nil {
		lines = Transcript{}
	}
	return lines, nil
}

// SpeakerSet is the set of speaker identifiers to extract. Identifiers are
// matched exactly against transcript headers.
type SpeakerSet map[string]struct{}

// NewSpeakerSet builds a set from names, trimming surrounding whitespace and
// skipping empty names.
func NewSpeakerSet(names ...string) SpeakerSet {
	set := make(SpeakerSet, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}

func (s SpeakerSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the identifiers in sorted order.
func (s SpeakerSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SpeakerText maps each speaker that appeared in the transcript to everything
// they said, in order. A speaker whose headers carried no text maps to "".
type SpeakerText map[string]string

// Lookup returns the text for speaker, or ErrSpeakerNotFound when no header
// for that speaker was seen.
func (st SpeakerText) Lookup(speaker string) (string, error) {
	text, ok := st[speaker]
	if !ok {
		return "", fmt.Errorf("%w: %q", apperrors.ErrSpeakerNotFound, speaker)
	}
	return text, nil
}

// Missing returns the requested speakers absent from st, sorted.
func (st SpeakerText) Missing(speakers SpeakerSet) []string {
	var missing []string
	for _, name := range speakers.Names() {
		if _, ok := st[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Turn is one uninterrupted stretch of speech by a single speaker. Line is
// the 1-based line number of the turn's header.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Line    int    `json:"line"`
}
