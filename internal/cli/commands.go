package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis/validator"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
)

func newAnalyzeCommand(a *app) *cobra.Command {
	var (
		speakers  []string
		title     string
		noArchive bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <transcript>",
		Short: "Score each speaker and compare every pair",
		Long: "Segments a transcript by speaker header (NAME: text), scores lexical diversity\n" +
			"and n-gram frequencies per speaker, and ranks distinctive terms for every pair.\n" +
			"Use - to read the transcript from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if title == "" && args[0] != "-" {
				title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			req := report.Request{Title: title, Transcript: text, Speakers: speakers}
			if err := validator.ValidateRequest(&req); err != nil {
				return err
			}
			asm, err := a.assembler()
			if err != nil {
				return err
			}
			r, err := asm.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !noArchive {
				if err := a.archive(cmd.Context(), r); err != nil {
					return err
				}
			}
			return render(a.format, cmd.OutOrStdout(), r, writeReport)
		},
	}
	cmd.Flags().StringSliceVarP(&speakers, "speakers", "s", nil, "speaker names as they appear in headers (comma separated)")
	cmd.Flags().StringVar(&title, "title", "", "report title (defaults to the file name)")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "do not save the report to the archive")
	_ = cmd.MarkFlagRequired("speakers")
	return cmd
}

func newCompareCommand(a *app) *cobra.Command {
	var speaker string
	cmd := &cobra.Command{
		Use:   "compare <first> <second>",
		Short: "Compare one speaker's language across two transcripts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "-" && args[1] == "-" {
				return errors.New("only one transcript can be read from stdin")
			}
			first, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			second, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			req := report.ComparisonRequest{
				Speaker: speaker,
				First:   report.Document{Title: docTitle(args[0]), Transcript: first},
				Second:  report.Document{Title: docTitle(args[1]), Transcript: second},
			}
			if err := validator.ValidateComparison(&req); err != nil {
				return err
			}
			asm, err := a.assembler()
			if err != nil {
				return err
			}
			c, err := asm.Compare(cmd.Context(), req)
			if err != nil {
				return err
			}
			return render(a.format, cmd.OutOrStdout(), c, writeComparison)
		},
	}
	cmd.Flags().StringVar(&speaker, "speaker", "", "speaker to compare")
	_ = cmd.MarkFlagRequired("speaker")
	return cmd
}

func newHistoryCommand(a *app) *cobra.Command {
	var filter report.ListFilter
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			arc, err := a.openArchive()
			if err != nil {
				return err
			}
			defer arc.Close()
			list, err := arc.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return render(a.format, cmd.OutOrStdout(), list, writeHistory)
		},
	}
	cmd.Flags().StringVar(&filter.Speaker, "speaker", "", "only reports including this speaker")
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "maximum number of reports")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "number of reports to skip")
	return cmd
}

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <report-id>",
		Short: "Print an archived report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arc, err := a.openArchive()
			if err != nil {
				return err
			}
			defer arc.Close()
			r, err := arc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(a.format, cmd.OutOrStdout(), r, writeReport)
		},
	}
}

func (a *app) archive(ctx context.Context, r *report.DebateReport) error {
	arc, err := a.openArchive()
	if err != nil {
		return err
	}
	defer arc.Close()
	if err := arc.Save(ctx, r); err != nil {
		return fmt.Errorf("archiving report: %w", err)
	}
	return nil
}

func docTitle(path string) string {
	if path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}
