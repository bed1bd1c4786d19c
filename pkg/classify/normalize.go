package classify

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/taskdispatch/pkg/model"
	"github.com/harrisonrobin/taskdispatch/pkg/taxonomy"
)

// Draft is an unvalidated task as produced by a model or edited by an
// operator. Every field is free text.
type Draft struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	Category    string  `json:"category"`
	Assignee    string  `json:"assignee"`
	DueDate     *string `json:"dueDate"`
}

// DraftOf converts a task back into its editable form.
func DraftOf(t model.Task) Draft {
	d := Draft{
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Category:    t.Category,
		Assignee:    t.Assignee,
	}
	if t.DueDate != nil {
		s := t.DueDate.String()
		d.DueDate = &s
	}
	return d
}

// ParseDraft validates the enumerated fields of d. An empty status defaults
// to Todo. It applies no classification rules.
func ParseDraft(d Draft) (model.Task, error) {
	if strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Description) == "" {
		return model.Task{}, fmt.Errorf("task has neither title nor description")
	}
	p, err := model.ParsePriority(d.Priority)
	if err != nil {
		return model.Task{}, err
	}
	status := model.StatusTodo
	if strings.TrimSpace(d.Status) != "" {
		if status, err = model.ParseStatus(d.Status); err != nil {
			return model.Task{}, err
		}
	}
	t := model.Task{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Priority:    p,
		Status:      status,
		Category:    strings.TrimSpace(d.Category),
		Assignee:    strings.TrimSpace(d.Assignee),
	}
	if d.DueDate != nil && strings.TrimSpace(*d.DueDate) != "" && *d.DueDate != "null" {
		due, err := model.ParseDate(*d.DueDate)
		if err != nil {
			return model.Task{}, err
		}
		t.DueDate = &due
	}
	return t, nil
}

// Normalize validates a model-produced draft and re-applies the tier-one
// rules to it: the draft's own text is run through Decide, and whatever a
// trigger forces overrides the model. Status is always Todo at creation.
func (e *Engine) Normalize(d Draft, ref time.Time) (model.Task, error) {
	t, err := ParseDraft(d)
	if err != nil {
		return model.Task{}, err
	}
	t.Status = model.StatusTodo
	if t.Title == "" {
		t.Title = Title(t.Description)
	}
	if !e.tax.IsCategory(t.Category) {
		t.Category = taxonomy.CategoryUnassigned
	}

	decision := e.Decide(t.Title + "\n" + t.Description)
	switch decision.Trigger {
	case taxonomy.TriggerExecutive:
		t.Category = taxonomy.CategoryExecutive
	case taxonomy.TriggerDelegated:
		t.Priority = model.PriorityHigh
	case taxonomy.TriggerUrgent:
		t.Priority = model.PriorityUrgent
	}
	if decision.Trigger == taxonomy.TriggerUrgent && !strings.HasPrefix(t.Title, taxonomy.UrgentTag) {
		t.Title = taxonomy.UrgentTag + t.Title
	}

	if t.Category == taxonomy.CategoryExecutive {
		t.Priority = model.PriorityUrgent
		t.Assignee = taxonomy.ExecutiveLiaison
		t.DueDate = model.NewDate(ref).Ptr()
		if !strings.Contains(t.Description, taxonomy.ExecutiveNote) {
			t.Description = annotate(t.Description, taxonomy.ExecutiveNote)
		}
		return t, nil
	}
	if t.Assignee == "" {
		t.Assignee = e.tax.LiaisonFor(t.Category)
	}
	return t, nil
}
