// Package analysis defines the analyzer contract shared by both execution
// modes and implements the deterministic rules mode.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harrisonrobin/taskdispatch/pkg/classify"
	"github.com/harrisonrobin/taskdispatch/pkg/ingest"
	"github.com/harrisonrobin/taskdispatch/pkg/model"
	"github.com/harrisonrobin/taskdispatch/pkg/summary"
)

// Execution modes.
const (
	ModeRules = "rules"
	ModeModel = "model"
)

// ErrNoReadableText is returned by the rules analyzer when the batch holds
// only binary parts.
var ErrNoReadableText = errors.New("batch has no readable text; binary files need the model analyzer")

// Result is the outcome of one analysis.
type Result struct {
	Tasks   []model.Task
	Summary string
}

// Analyzer extracts tasks from an assembled batch.
type Analyzer interface {
	Analyze(ctx context.Context, batch *ingest.Batch, ref time.Time) (*Result, error)
}

// MalformedModelOutputError reports model output that failed decoding or
// validation. Raw holds the offending text for diagnosis.
type MalformedModelOutputError struct {
	Reason string
	Raw    string
}

func (e *MalformedModelOutputError) Error() string {
	return "malformed model output: " + e.Reason
}

// Rules is the deterministic analyzer.
type Rules struct {
	Engine *classify.Engine
	Logger *zap.Logger
}

// NewRules returns a rules analyzer over engine; nil selects the canonical one.
func NewRules(engine *classify.Engine, logger *zap.Logger) *Rules {
	if engine == nil {
		engine = classify.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rules{Engine: engine, Logger: logger}
}

// Analyze classifies every text part. A part that is a list yields one task
// per item.
func (r *Rules) Analyze(ctx context.Context, batch *ingest.Batch, ref time.Time) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content := readable(batch)
	if len(content) == 0 {
		return nil, ErrNoReadableText
	}

	var tasks []model.Task
	for _, text := range content {
		heading, items := classify.Split(text)
		for _, item := range items {
			if strings.TrimSpace(item) == "" {
				continue
			}
			task := r.Engine.ClassifyItem(item, heading, ref)
			r.Logger.Debug("classified",
				zap.String("title", task.Title),
				zap.String("category", task.Category),
				zap.String("priority", string(task.Priority)))
			tasks = append(tasks, task)
		}
	}
	if len(tasks) == 0 {
		return nil, ErrNoReadableText
	}
	r.Logger.Info("rules analysis complete", zap.Int("tasks", len(tasks)))

	return &Result{
		Tasks:   tasks,
		Summary: summary.Summarize(strings.Join(content, "\n"), tasks, batch.LongForm),
	}, nil
}

func readable(batch *ingest.Batch) []string {
	var out []string
	for _, p := range batch.Parts {
		if p.Kind == ingest.PartText && !p.Warning && strings.TrimSpace(p.Body) != "" {
			out = append(out, strings.TrimSpace(p.Body))
		}
	}
	return out
}

// Validate checks a result for the invariants every analyzer must uphold.
func Validate(res *Result) error {
	for i, t := range res.Tasks {
		if t.Status != model.StatusTodo {
			return fmt.Errorf("task %d: status %q, want %q", i, t.Status, model.StatusTodo)
		}
		if !t.Priority.Valid() {
			return fmt.Errorf("task %d: invalid priority %q", i, t.Priority)
		}
	}
	return nil
}
