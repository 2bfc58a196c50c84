package frequency

// Edge is an undirected, weighted link between two words that appear next
// to each other. From sorts before To.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"`
}

// Network links adjacent tokens when both belong to the size most frequent
// words of the sequence. Edge weight counts adjacent occurrences in either
// order. Self-loops (a word repeated back to back) are kept. Edges are
// returned heaviest first, ties broken by (From, To).
func Network(tokens []string, size int) []Edge {
	if size <= 0 || len(tokens) < 2 {
		return []Edge{}
	}
	unigrams, _ := Counts(tokens, 1)
	top := make(map[string]struct{}, size)
	for _, c := range unigrams.Top(size) {
		top[string(c.Term)] = struct{}{}
	}

	type pair struct{ from, to string }
	weights := make(map[pair]int)
	for i := 0; i+1 < len(tokens); i++ {
		a, b := tokens[i], tokens[i+1]
		if _, ok := top[a]; !ok {
			continue
		}
		if _, ok := top[b]; !ok {
			continue
		}
		if b < a {
			a, b = b, a
		}
		weights[pair{a, b}]++
	}

	edges := make([]Edge, 0, len(weights))
	for p, w := range weights {
		edges = append(edges, Edge{From: p.from, To: p.to, Weight: w})
	}
	return topK(edges, 0, func(x, y Edge) bool {
		if x.Weight != y.Weight {
			return x.Weight > y.Weight
		}
		if x.From != y.From {
			return x.From < y.From
		}
		return x.To < y.To
	})
}
