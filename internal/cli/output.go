package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/textstats/diversity"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/textstats/frequency"
)

func render[T any](format string, w io.Writer, v T, text func(io.Writer, T) error) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w, v)
}

func writeReport(w io.Writer, r *report.DebateReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Report %s  %q  %s\n", r.ID, r.Title, r.CreatedAt.Format(time.RFC3339))
	if len(r.Missing) > 0 {
		fmt.Fprintf(tw, "Not found in transcript: %s\n", strings.Join(r.Missing, ", "))
	}

	fmt.Fprintln(tw, "\nSPEAKER\tTURNS\tWORDS\tTOKENS\tTTR\tMTLD")
	for _, s := range r.Speakers {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", s.Speaker, s.Turns, s.WordCount, s.TokenCount, scoreCols(s.Diversity))
	}

	for _, s := range r.Speakers {
		for _, n := range sortedKeys(s.TopNGrams) {
			if len(s.TopNGrams[n]) == 0 {
				continue
			}
			fmt.Fprintf(tw, "\n%s top %d-grams:\t%s\n", s.Speaker, n, countList(s.TopNGrams[n], 10))
		}
	}

	for _, p := range r.Pairs {
		fmt.Fprintf(tw, "\n%s vs %s\n", p.Speaker1, p.Speaker2)
		for _, n := range sortedKeys(p.Jaccard) {
			fmt.Fprintf(tw, "  jaccard %d-gram\t%.4f\n", n, p.Jaccard[n])
		}
		for _, n := range sortedKeys(p.Keyness) {
			entries := p.Keyness[n]
			if len(entries) == 0 {
				continue
			}
			fmt.Fprintf(tw, "  TERM (%d-gram)\tG2\t%s\t%s\n", n, p.Speaker1, p.Speaker2)
			for _, e := range entries[:min(len(entries), 10)] {
				fmt.Fprintf(tw, "  %s\t%.2f\t%d\t%d\n", e.Term, e.Score, e.Count1, e.Count2)
			}
		}
	}
	return tw.Flush()
}

func writeComparison(w io.Writer, c *report.Comparison) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s: %s vs %s\n\n", c.Speaker, c.First, c.Second)
	fmt.Fprintln(tw, "DEBATE\tTTR\tMTLD")
	fmt.Fprintf(tw, "%s\t%s\n", c.First, scoreCols(c.Diversity1))
	fmt.Fprintf(tw, "%s\t%s\n", c.Second, scoreCols(c.Diversity2))
	fmt.Fprintln(tw)
	for _, n := range sortedKeys(c.Jaccard) {
		fmt.Fprintf(tw, "jaccard %d-gram\t%.4f\n", n, c.Jaccard[n])
	}
	if len(c.Keyness) > 0 {
		fmt.Fprintln(tw, "\nTERM\tG2\tFIRST\tSECOND")
		for _, e := range c.Keyness {
			fmt.Fprintf(tw, "%s\t%.2f\t%d\t%d\n", e.Term, e.Score, e.Count1, e.Count2)
		}
	}
	return tw.Flush()
}

func writeHistory(w io.Writer, list []report.Summary) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no archived reports")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTITLE\tSPEAKERS")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Title, strings.Join(s.Speakers, ","))
	}
	return tw.Flush()
}

func scoreCols(s *diversity.Score) string {
	if s == nil {
		return "-\t-"
	}
	return fmt.Sprintf("%.3f\t%.2f", s.TTR, s.MTLD)
}

func countList(counts []frequency.Count, k int) string {
	parts := make([]string, 0, k)
	for _, c := range counts[:min(len(counts), k)] {
		parts = append(parts, fmt.Sprintf("%s (%d)", c.Term, c.Count))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
