package frequency

import (
	"github.com/RoaringBitmap/roaring"

	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
)

// Jaccard returns |A ∩ B| / |A ∪ B| where A and B are the sets of n-grams
// present in each sequence. An empty union scores 0.
func Jaccard(tokens1, tokens2 []string, n int) (float64, error) {
	if n < 1 {
		return 0, apperrors.Invalidf("n-gram size must be >= 1, got %d", n)
	}
	vocab := newVocabulary()
	a := vocab.bitmap(tokens1, n)
	b := vocab.bitmap(tokens2, n)

	union := roaring.Or(a, b).GetCardinality()
	if union == 0 {
		return 0, nil
	}
	inter := roaring.And(a, b).GetCardinality()
	return float64(inter) / float64(union), nil
}

// vocabulary interns n-grams to dense ids shared by both sides of a
// comparison.
type vocabulary struct {
	ids map[NGram]uint32
}

func newVocabulary() *vocabulary {
	return &vocabulary{ids: make(map[NGram]uint32)}
}

func (v *vocabulary) id(g NGram) uint32 {
	if id, ok := v.ids[g]; ok {
		return id
	}
	id := uint32(len(v.ids))
	v.ids[g] = id
	return id
}

func (v *vocabulary) bitmap(tokens []string, n int) *roaring.Bitmap {
	bm := roaring.New()
	for i := 0; i+n <= len(tokens); i++ {
		bm.Add(v.id(NewNGram(tokens[i : i+n]...)))
	}
	return bm
}
