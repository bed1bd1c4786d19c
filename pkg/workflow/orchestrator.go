// Package workflow sequences the backend steps of a reviewed batch: the
// primary store, the tabular mirror, the summary document, and the manual
// notification step. Collaborator failures are recorded into Status rather
// than returned.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harrisonrobin/taskdispatch/pkg/dispatch"
	"github.com/harrisonrobin/taskdispatch/pkg/model"
)

// ErrNoTasks is returned when dispatch is requested for an empty batch.
var ErrNoTasks = errors.New("no tasks to dispatch")

// TaskStore is the primary persistence.
type TaskStore interface {
	Put(ctx context.Context, tasks []model.Task) error
}

// Mirror receives one row per task.
type Mirror interface {
	AppendRows(ctx context.Context, rows [][]interface{}) error
}

// DocumentCreator writes the batch summary document.
type DocumentCreator interface {
	CreateDocument(ctx context.Context, title, body string) (string, error)
}

// Messenger sends a text message authenticated by a per-recipient token.
type Messenger interface {
	SendMessage(ctx context.Context, token, text string) error
}

// Mailer sends a plain-text email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Orchestrator runs the backend steps. Store is required; a nil Mirror or
// Documents skips its step.
type Orchestrator struct {
	Store     TaskStore
	Mirror    Mirror
	Documents DocumentCreator
	Messenger Messenger
	Mailer    Mailer
	Bus       *Bus
	Logger    *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

const notConfigured = "not configured"

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) log() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o *Orchestrator) transition(status *Status, step Step, state State, reason string) {
	status.set(step, state, reason)
	msg := status.Message(step)
	o.log().Info("step", zap.String("step", string(step)), zap.String("status", msg), zap.String("phase", string(status.Phase)))
	if o.Bus != nil {
		o.Bus.Publish(Event{Step: step, State: state, Message: msg, Phase: status.Phase, Time: o.now()})
	}
}

type stage struct {
	step  Step
	phase Phase
	run   func(ctx context.Context) (skipReason string, err error)
}

// Dispatch persists tasks to the primary store, mirrors them, and writes the
// summary document, strictly in that order. The first failure stops the
// sequence; later steps are marked not attempted. The notify step is left
// untouched. The returned error is non-nil only for ErrNoTasks.
func (o *Orchestrator) Dispatch(ctx context.Context, tasks []model.Task, summary string) (*Status, error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	status := NewStatus()
	at := o.now()

	stages := []stage{
		{StepPersistPrimary, PhasePersistingPrimary, func(ctx context.Context) (string, error) {
			if o.Store == nil {
				return "", errors.New("no task store configured")
			}
			return "", o.Store.Put(ctx, tasks)
		}},
		{StepPersistSecondary, PhasePersistingSecondary, func(ctx context.Context) (string, error) {
			if o.Mirror == nil {
				return notConfigured, nil
			}
			return "", o.Mirror.AppendRows(ctx, Rows(tasks, at))
		}},
		{StepGenerateDocument, PhaseGeneratingDocument, func(ctx context.Context) (string, error) {
			if o.Documents == nil {
				return notConfigured, nil
			}
			id, err := o.Documents.CreateDocument(ctx, DocumentTitle(at), DocumentBody(summary, tasks))
			if err == nil {
				o.log().Info("document created", zap.String("id", id))
			}
			return "", err
		}},
	}

	for i, s := range stages {
		if err := ctx.Err(); err != nil {
			status.Phase = PhaseFailed
			for _, rest := range stages[i:] {
				o.transition(status, rest.step, StateNotAttempted, "")
			}
			return status, nil
		}

		status.Phase = s.phase
		o.transition(status, s.step, StateRunning, "")
		skip, err := s.run(ctx)
		switch {
		case err != nil:
			status.Phase = PhaseFailed
			o.transition(status, s.step, StateFailed, err.Error())
			for _, rest := range stages[i+1:] {
				o.transition(status, rest.step, StateNotAttempted, "")
			}
			return status, nil
		case skip != "":
			o.transition(status, s.step, StateSkipped, skip)
		default:
			o.transition(status, s.step, StateDone, "")
		}
	}
	status.Phase = PhaseDone
	return status, nil
}

// Delivery is the outcome of notifying one assignee.
type Delivery struct {
	Assignee  string
	Succeeded []string
	Failed    map[string]string
}

const (
	ChannelMessaging = "messaging"
	ChannelEmail     = "email"
)

// Notify delivers every payload over each channel the assignee has. The
// channels are independent: a failed message does not prevent the email.
// The caller checks that dispatch completed.
func (o *Orchestrator) Notify(ctx context.Context, status *Status, payloads []model.NotificationPayload) []Delivery {
	if len(payloads) == 0 {
		o.transition(status, StepNotify, StateSkipped, "nothing to notify")
		return nil
	}
	o.transition(status, StepNotify, StateRunning, "")

	deliveries := make([]Delivery, 0, len(payloads))
	var failures []string
	for _, p := range payloads {
		d := Delivery{Assignee: p.Assignee.Name, Failed: make(map[string]string)}
		attempt := func(channel string, send func() error) {
			if err := send(); err != nil {
				d.Failed[channel] = err.Error()
				failures = append(failures, fmt.Sprintf("%s %s: %v", p.Assignee.Name, channel, err))
				o.log().Warn("notification failed", zap.String("assignee", p.Assignee.Name), zap.String("channel", channel), zap.Error(err))
				return
			}
			d.Succeeded = append(d.Succeeded, channel)
		}

		if token := strings.TrimSpace(p.Assignee.MessagingToken); token != "" {
			attempt(ChannelMessaging, func() error {
				if o.Messenger == nil {
					return errors.New(notConfigured)
				}
				return o.Messenger.SendMessage(ctx, token, dispatch.ComposeMessage(p.Tasks))
			})
		}
		if email := strings.TrimSpace(p.Assignee.Email); email != "" {
			attempt(ChannelEmail, func() error {
				if o.Mailer == nil {
					return errors.New(notConfigured)
				}
				return o.Mailer.SendEmail(ctx, email, dispatch.EmailSubject, dispatch.ComposeEmail(p.Assignee, p.Tasks))
			})
		}
		deliveries = append(deliveries, d)
	}

	if len(failures) > 0 {
		attempts := 0
		for _, d := range deliveries {
			attempts += len(d.Succeeded) + len(d.Failed)
		}
		o.transition(status, StepNotify, StateFailed,
			fmt.Sprintf("%d of %d deliveries failed (%s)", len(failures), attempts, strings.Join(failures, "; ")))
		return deliveries
	}
	o.transition(status, StepNotify, StateDone, "")
	return deliveries
}

// Rows renders the mirror rows: title, description, priority, status,
// category, assignee, due date and dispatch time.
func Rows(tasks []model.Task, at time.Time) [][]interface{} {
	stamp := at.Format(time.RFC3339)
	rows := make([][]interface{}, 0, len(tasks))
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.String()
		}
		rows = append(rows, []interface{}{
			t.Title, t.Description, t.Priority.Label(), t.Status.Label(), t.Category, t.Assignee, due, stamp,
		})
	}
	return rows
}

// DocumentTitle is the title of the summary document written at t.
func DocumentTitle(t time.Time) string {
	return fmt.Sprintf("任務摘要 - %d/%d/%d", t.Year(), int(t.Month()), t.Day())
}

// DocumentBody is the summary followed by the task list.
func DocumentBody(summary string, tasks []model.Task) string {
	var sb strings.Builder
	sb.WriteString("摘要\n")
	sb.WriteString(strings.TrimSpace(summary))
	sb.WriteString("\n\n任務清單\n")
	for i, t := range tasks {
		fmt.Fprintf(&sb, "%d. %s\n   優先級：%s｜部門：%s｜負責人：%s", i+1, t.Title, t.Priority.Label(), t.Category, t.Assignee)
		if t.DueDate != nil {
			fmt.Fprintf(&sb, "｜截止：%s", t.DueDate)
		}
		sb.WriteString("\n")
		if t.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", strings.ReplaceAll(t.Description, "\n", "\n   "))
		}
	}
	return sb.String()
}
