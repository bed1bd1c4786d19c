// Package session persists the review state of one batch between CLI
// invocations: what was analyzed, the editable task list, and the outcome
// of dispatch.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/harrisonrobin/taskdispatch/pkg/classify"
	"github.com/harrisonrobin/taskdispatch/pkg/model"
	"github.com/harrisonrobin/taskdispatch/pkg/workflow"
)

const sessionFile = "session.json"

// ErrNoTasks is returned when an operation needs a reviewed task list.
var ErrNoTasks = errors.New("session has no tasks; run analyze first")

// Input records what was submitted, without file contents.
type Input struct {
	Text       string   `json:"text,omitempty"`
	ManualTask string   `json:"manualTask,omitempty"`
	URL        string   `json:"url,omitempty"`
	Files      []string `json:"files,omitempty"`
}

type Session struct {
	Mode      string           `json:"mode,omitempty"`
	Reference string           `json:"reference,omitempty"`
	Input     Input            `json:"input"`
	Tasks     []model.Task     `json:"tasks"`
	Summary   string           `json:"summary"`
	Warnings  []string         `json:"warnings,omitempty"`
	Status    *workflow.Status `json:"status,omitempty"`
	// Dispatched is set once every dispatch step completed; notification
	// is allowed only after that.
	Dispatched bool      `json:"dispatched"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Path  string `json:"-"`
	dirty bool
}

// Open loads the session in dir, or returns an empty one.
func Open(dir string) (*Session, error) {
	s := &Session{Path: filepath.Join(dir, sessionFile)}
	if _, err := os.Stat(s.Path); err == nil {
		if err := s.Load(); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return s, nil
}

func (s *Session) Load() error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(s); err != nil {
		return fmt.Errorf("failed to decode session %s: %w", s.Path, err)
	}
	return nil
}

func (s *Session) Save() error {
	if !s.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(s)
	if err == nil {
		s.dirty = false
	}
	return err
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
	s.dirty = true
}

// Reset discards everything, as after a successful notification or an
// explicit clear.
func (s *Session) Reset() {
	path := s.Path
	*s = Session{Path: path}
	s.touch()
}

// Begin replaces the session with a fresh analysis.
func (s *Session) Begin(mode string, ref time.Time, in Input, tasks []model.Task, summary string, warnings []string) {
	s.Reset()
	s.Mode = mode
	s.Reference = ref.Format(time.DateOnly)
	s.Input = in
	s.Tasks = tasks
	s.Summary = summary
	s.Warnings = warnings
}

// RecordDispatch stores the dispatch outcome.
func (s *Session) RecordDispatch(status *workflow.Status) {
	s.Status = status
	s.Dispatched = status != nil && status.Completed()
	s.touch()
}

// RecordNotify stores the status after the notification step.
func (s *Session) RecordNotify(status *workflow.Status) {
	s.Status = status
	s.touch()
}

// ExportDrafts writes the task list as editable drafts.
func (s *Session) ExportDrafts(w io.Writer) error {
	drafts := make([]classify.Draft, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		drafts = append(drafts, classify.DraftOf(t))
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(drafts)
}

// ImportDrafts replaces the task list with operator-edited drafts. The
// whole import is rejected if any draft is invalid. A previous dispatch
// outcome no longer applies and is cleared.
func (s *Session) ImportDrafts(r io.Reader) error {
	var drafts []classify.Draft
	if err := json.NewDecoder(r).Decode(&drafts); err != nil {
		return fmt.Errorf("failed to decode drafts: %w", err)
	}
	tasks := make([]model.Task, 0, len(drafts))
	for i, d := range drafts {
		t, err := classify.ParseDraft(d)
		if err != nil {
			return fmt.Errorf("task %d: %w", i+1, err)
		}
		tasks = append(tasks, t)
	}
	s.Tasks = tasks
	s.Status = nil
	s.Dispatched = false
	s.touch()
	return nil
}
