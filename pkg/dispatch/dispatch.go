// Package dispatch groups finalized tasks into one notification payload per
// assignee and composes the notification texts.
package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harrisonrobin/taskdispatch/pkg/model"
)

// ErrMissingContactInfo matches every *MissingContactInfoError.
var ErrMissingContactInfo = errors.New("assignee has no contact channel")

// MissingContactInfoError aborts grouping: a task resolves to a roster entry
// with neither a messaging token nor an email.
type MissingContactInfoError struct {
	Assignee string
}

func (e *MissingContactInfoError) Error() string {
	return fmt.Sprintf("assignee %q has no messaging token or email", e.Assignee)
}

func (e *MissingContactInfoError) Is(target error) bool {
	return target == ErrMissingContactInfo
}

// Grouping is the result of Group.
type Grouping struct {
	Payloads []model.NotificationPayload
	// Unresolved lists the titles of tasks whose assignee is not on the roster.
	Unresolved []string
}

// Group buckets tasks by assignee in first-seen order. Tasks whose assignee
// is not on the roster are skipped and reported; an assignee on the roster
// without any channel aborts the whole grouping.
func Group(tasks []model.Task, roster []model.Assignee, log *zap.Logger) (*Grouping, error) {
	if log == nil {
		log = zap.NewNop()
	}

	byName := make(map[string]model.Assignee, len(roster))
	for _, a := range roster {
		if _, dup := byName[a.Name]; !dup {
			byName[a.Name] = a
		}
	}

	g := &Grouping{}
	index := make(map[string]int)
	for _, t := range tasks {
		a, ok := byName[t.Assignee]
		if !ok {
			log.Warn("assignee not on roster, task skipped",
				zap.String("assignee", t.Assignee), zap.String("task", t.Title))
			g.Unresolved = append(g.Unresolved, t.Title)
			continue
		}
		if !a.HasContact() {
			return nil, &MissingContactInfoError{Assignee: a.Name}
		}
		i, seen := index[a.Name]
		if !seen {
			i = len(g.Payloads)
			index[a.Name] = i
			g.Payloads = append(g.Payloads, model.NotificationPayload{Assignee: a})
		}
		g.Payloads[i].Tasks = append(g.Payloads[i].Tasks, t)
	}
	return g, nil
}

// EmailSubject is the subject line of assignment emails.
const EmailSubject = "【重要通知】您有新的任務指派"

// ComposeMessage renders the messaging text for a set of tasks.
func ComposeMessage(tasks []model.Task) string {
	var sb strings.Builder
	sb.WriteString("\n您有新的任務指派：\n\n")
	for _, t := range tasks {
		fmt.Fprintf(&sb, "- %s (優先級: %s)\n", t.Title, t.Priority.Label())
	}
	sb.WriteString("\n請儘速處理。")
	return sb.String()
}

// ComposeEmail renders the email body for one assignee.
func ComposeEmail(assignee model.Assignee, tasks []model.Task) string {
	return "哈囉 " + assignee.Name + "，\n\n" + ComposeMessage(tasks)
}
