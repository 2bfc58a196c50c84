package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// StopSet is an immutable set of lowercase stopwords. The zero value is an
// empty set that filters nothing.
type StopSet struct {
	words map[string]struct{}
}

// NewStopSet builds a StopSet from words. Entries are lowercased and trimmed;
// blanks are ignored.
func NewStopSet(words ...string) StopSet {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return StopSet{words: set}
}

// LoadStopSet reads one stopword per line. Blank lines and lines starting
// with '#' are skipped.
func LoadStopSet(r io.Reader) (StopSet, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return StopSet{}, fmt.Errorf("reading stopwords: %w", err)
	}
	return NewStopSet(words...), nil
}

// Contains reports whether word is a stopword. word is expected lowercased.
func (s StopSet) Contains(word string) bool {
	_, ok := s.words[word]
	return ok
}

func (s StopSet) Len() int {
	return len(s.words)
}

// Words returns the stopwords in sorted order.
func (s StopSet) Words() []string {
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// English returns the standard English stopword list used by NLTK.
func English() StopSet {
	return NewStopSet(englishStopWords...)
}

var englishStopWords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you",
	"you're", "you've", "you'll", "you'd", "your", "yours", "yourself",
	"yourselves", "he", "him", "his", "himself", "she", "she's", "her", "hers",
	"herself", "it", "it's", "its", "itself", "they", "them", "their",
	"theirs", "themselves", "what", "which", "who", "whom", "this", "that",
	"that'll", "these", "those", "am", "is", "are", "was", "were", "be",
	"been", "being", "have", "has", "had", "having", "do", "does", "did",
	"doing", "a", "an", "the", "and", "but", "if", "or", "because", "as",
	"until", "while", "of", "at", "by", "for", "with", "about", "against",
	"between", "into", "through", "during", "before", "after", "above",
	"below", "to", "from", "up", "down", "in", "out", "on", "off", "over",
	"under", "again", "further", "then", "once", "here", "there", "when",
	"where", "why", "how", "all", "any", "both", "each", "few", "more",
	"most", "other", "some", "such", "no", "nor", "not", "only", "own",
	"same", "so", "than", "too", "very", "s", "t", "can", "will", "just",
	"don", "don't", "should", "should've", "now", "d", "ll", "m", "o", "re",
	"ve", "y", "ain", "aren", "aren't", "couldn", "couldn't", "didn",
	"didn't", "doesn", "doesn't", "hadn", "hadn't", "hasn", "hasn't",
	"haven", "haven't", "isn", "isn't", "ma", "mightn", "mightn't", "mustn",
	"mustn't", "needn", "needn't", "shan", "shan't", "shouldn", "shouldn't",
	"wasn", "wasn't", "weren", "weren't", "won", "won't", "wouldn",
	"wouldn't",
}
