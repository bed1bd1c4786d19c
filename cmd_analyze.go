package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrisonrobin/taskdispatch/pkg/analysis"
	"github.com/harrisonrobin/taskdispatch/pkg/classify"
	"github.com/harrisonrobin/taskdispatch/pkg/config"
	"github.com/harrisonrobin/taskdispatch/pkg/gemini"
	"github.com/harrisonrobin/taskdispatch/pkg/ingest"
	"github.com/harrisonrobin/taskdispatch/pkg/session"
	"github.com/harrisonrobin/taskdispatch/pkg/summary"
)

var analyzeFlags struct {
	mode  string
	text  string
	task  string
	url   string
	files []string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Extract tasks from text, a manual task, a link and files",
	Long: `Assembles the input into one batch, extracts tasks with the rules or the
model analyzer, and starts a new review session. Pass --text - to read the
text from stdin.`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.mode, "mode", "", "analyzer: rules or model (default from config)")
	f.StringVar(&analyzeFlags.text, "text", "", "message or meeting notes; - reads stdin")
	f.StringVar(&analyzeFlags.task, "task", "", "a task typed by the operator")
	f.StringVar(&analyzeFlags.url, "url", "", "a related link")
	f.StringSliceVar(&analyzeFlags.files, "file", nil, "file to include (repeatable)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	mode := cfg.Mode
	if analyzeFlags.mode != "" {
		mode = analyzeFlags.mode
	}
	if mode != config.ModeRules && mode != config.ModeModel {
		return fmt.Errorf("invalid mode %q", mode)
	}

	text := analyzeFlags.text
	if text == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(b)
	}
	in := ingest.Input{Text: text, ManualTask: analyzeFlags.task, URL: analyzeFlags.url}
	saved := session.Input{Text: text, ManualTask: analyzeFlags.task, URL: analyzeFlags.url}
	for _, path := range analyzeFlags.files {
		if _, err := os.Stat(path); err != nil {
			return err
		}
		in.Files = append(in.Files, ingest.File{Path: path})
		saved.Files = append(saved.Files, filepath.Base(path))
	}

	ref, err := cfg.Reference(time.Now())
	if err != nil {
		return err
	}

	analyzer, transcriber, err := buildAnalyzer(ctx, mode)
	if err != nil {
		return err
	}
	assembler := ingest.New(ingest.Options{
		MaxFileBytes: cfg.Ingest.MaxFileBytes,
		Workers:      cfg.Ingest.Workers,
		Transcriber:  transcriber,
		Logger:       logger,
	})

	batch, err := assembler.Assemble(ctx, in)
	if errors.Is(err, ingest.ErrEmptyInput) {
		return errors.New("nothing to analyze: supply --text, --task, --url or --file")
	}
	if err != nil {
		return err
	}
	for _, name := range batch.Warnings() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: file %s could not be processed and was skipped\n", name)
	}

	res, err := analyzer.Analyze(ctx, batch, ref)
	if err != nil {
		var malformed *analysis.MalformedModelOutputError
		if errors.As(err, &malformed) {
			logger.Debug("raw model output", zap.String("raw", malformed.Raw))
			return fmt.Errorf("%w; the input was not saved, run analyze again", err)
		}
		return err
	}
	if err := analysis.Validate(res); err != nil {
		return err
	}

	sess, err := openSession()
	if err != nil {
		return err
	}
	sess.Begin(mode, ref, saved, res.Tasks, res.Summary, batch.Warnings())
	if err := sess.Save(); err != nil {
		return fmt.Errorf("could not save session: %w", err)
	}

	fmt.Fprintf(out, "Extracted %d task(s) with the %s analyzer (reference date %s).\n\n", len(res.Tasks), mode, ref.Format(time.DateOnly))
	printTasks(out, res.Tasks)
	if !summary.IsEmpty(res.Summary) {
		fmt.Fprintf(out, "\n摘要\n%s\n", res.Summary)
	}
	fmt.Fprintln(out, "\nReview with `taskdispatch drafts export`, then run `taskdispatch dispatch`.")
	return nil
}

func buildAnalyzer(ctx context.Context, mode string) (analysis.Analyzer, ingest.Transcriber, error) {
	engine := classify.New(nil)
	if mode == config.ModeRules {
		return analysis.NewRules(engine, logger), nil, nil
	}
	client, err := gemini.NewClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set GEMINI_API_KEY)", err)
	}
	analyzer := gemini.NewAnalyzer(client.Models, cfg.Gemini.Model, engine, logger)
	return analyzer, gemini.NewTranscriber(client.Models, cfg.Gemini.Model, cfg.Language), nil
}
