// Package cli implements the debatestats command-line tool: local analysis
// and comparison of transcript files with a BoltDB history of past reports.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report/archive"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/tracing"
)

// app holds what every subcommand shares once the root flags are parsed.
type app struct {
	configPath  string
	archivePath string
	logLevel    string
	format      string

	cfg *config.Config
}

func Main() {
	_ = godotenv.Load()
	if err := NewRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "debatestats",
		Short:         "Lexical statistics for debate transcripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file (defaults plus DS_* environment when empty)")
	pf.StringVar(&a.archivePath, "archive", "", "report archive path (overrides archive.path)")
	pf.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVarP(&a.format, "output", "o", "text", "output format: text or json")

	root.AddCommand(
		newAnalyzeCommand(a),
		newCompareCommand(a),
		newHistoryCommand(a),
		newShowCommand(a),
	)
	return root
}

func (a *app) init(stderr io.Writer) error {
	logger.SetupWriter(stderr, a.logLevel, "text")
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.archivePath != "" {
		cfg.Archive.Path = a.archivePath
	}
	if a.format != "text" && a.format != "json" {
		return fmt.Errorf("unknown output format %q", a.format)
	}
	tracing.SetLogging(cfg.Tracing.Enabled)
	a.cfg = cfg
	return nil
}

func (a *app) assembler() (*report.Assembler, error) {
	opts, err := analysis.OptionsFromConfig(a.cfg.Analysis)
	if err != nil {
		return nil, err
	}
	return report.NewAssembler(opts)
}

func (a *app) openArchive() (*archive.Archive, error) {
	return archive.Open(a.cfg.Archive.Path)
}

// readInput reads a transcript file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading transcript: %w", err)
	}
	return string(data), nil
}
