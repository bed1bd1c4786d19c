// Package classify turns free-form text into task drafts with a fixed,
// two-tier rule hierarchy: tier-one trigger phrases decide priority and
// special cases, tier-two department keywords decide category and assignee.
package classify

import (
	"slices"
	"strings"
	"time"

	"github.com/harrisonrobin/taskdispatch/pkg/model"
	"github.com/harrisonrobin/taskdispatch/pkg/taxonomy"
)

// DepartmentMatch records the keywords of one department found in the content.
type DepartmentMatch struct {
	Department string
	Keywords   []string
	ActionHits int
}

// Decision is the outcome of both tiers before it is turned into a draft.
type Decision struct {
	Trigger       taxonomy.TriggerKind
	TriggerPhrase string
	// Matches is ranked, winner first. Empty when tier two was skipped or
	// nothing matched.
	Matches  []DepartmentMatch
	Category string
	// Degraded is set when no rule of either tier fired.
	Degraded bool
}

// RunnersUp returns the departments that matched but lost the ranking.
func (d Decision) RunnersUp() []string {
	var out []string
	for i, m := range d.Matches {
		if i > 0 {
			out = append(out, m.Department)
		}
	}
	return out
}

// Engine classifies content against a taxonomy. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	tax *taxonomy.Taxonomy
}

// New returns an engine over tax; nil selects the canonical taxonomy.
func New(tax *taxonomy.Taxonomy) *Engine {
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &Engine{tax: tax}
}

var defaultEngine = New(nil)

// Classify runs the canonical engine over content.
func Classify(content string, ref time.Time) model.Task {
	return defaultEngine.Classify(content, ref)
}

// Taxonomy returns the rule table the engine uses.
func (e *Engine) Taxonomy() *taxonomy.Taxonomy {
	return e.tax
}

// Decide evaluates tier one, then tier two unless an executive directive
// short-circuited it.
func (e *Engine) Decide(content string) Decision {
	text := normalize(content)

	var d Decision
	for _, trig := range e.tax.Triggers {
		if phrase, ok := e.firstPhrase(text, trig.Phrases); ok {
			d.Trigger = trig.Kind
			d.TriggerPhrase = phrase
			break
		}
	}
	if d.Trigger == taxonomy.TriggerExecutive {
		d.Category = taxonomy.CategoryExecutive
		return d
	}

	for _, dept := range e.tax.Departments {
		m := DepartmentMatch{Department: dept.Name}
		for _, k := range dept.Keywords {
			if find(text, normalize(k.Phrase)) < 0 {
				continue
			}
			m.Keywords = append(m.Keywords, k.Phrase)
			if k.Action {
				m.ActionHits++
			}
		}
		if len(m.Keywords) > 0 {
			d.Matches = append(d.Matches, m)
		}
	}

	// Stable sort keeps declaration order among equally central departments.
	slices.SortStableFunc(d.Matches, func(a, b DepartmentMatch) int {
		if a.ActionHits != b.ActionHits {
			return b.ActionHits - a.ActionHits
		}
		return len(b.Keywords) - len(a.Keywords)
	})

	if len(d.Matches) == 0 {
		d.Category = taxonomy.CategoryUnassigned
		d.Degraded = d.Trigger == taxonomy.TriggerNone
		return d
	}
	d.Category = d.Matches[0].Department
	return d
}

func (e *Engine) firstPhrase(text string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if find(text, normalize(p)) >= 0 {
			return p, true
		}
	}
	return "", false
}

// Classify turns content into a draft anchored at ref. It never fails: input
// that matches nothing yields an Unassigned, Medium draft.
func (e *Engine) Classify(content string, ref time.Time) model.Task {
	return e.ClassifyItem(content, "", ref)
}

// ClassifyItem classifies one list item. Rules see the item together with the
// shared context (a heading above the list); title and description come from
// the item alone.
func (e *Engine) ClassifyItem(item, context string, ref time.Time) model.Task {
	rulesText := item
	if strings.TrimSpace(context) != "" {
		rulesText = context + "\n" + item
	}
	d := e.Decide(rulesText)

	task := model.Task{
		Title:       Title(item),
		Description: strings.TrimSpace(item),
		Status:      model.StatusTodo,
		Category:    d.Category,
	}

	switch d.Trigger {
	case taxonomy.TriggerExecutive:
		task.Priority = model.PriorityUrgent
		task.DueDate = model.NewDate(ref).Ptr()
		task.Assignee = taxonomy.ExecutiveLiaison
		task.Description = annotate(task.Description, taxonomy.ExecutiveNote)
		return task
	case taxonomy.TriggerDelegated:
		task.Priority = model.PriorityHigh
	case taxonomy.TriggerUrgent:
		task.Priority = model.PriorityUrgent
		task.Title = taxonomy.UrgentTag + task.Title
	default:
		task.Priority = model.PriorityMedium
	}

	for _, dept := range d.RunnersUp() {
		task.Description = annotate(task.Description, taxonomy.RelatedNote(dept))
	}
	task.Assignee = e.tax.LiaisonFor(task.Category)

	task.DueDate = ResolveDueDate(item, ref)
	if task.DueDate == nil && rulesText != item {
		task.DueDate = ResolveDueDate(context, ref)
	}
	return task
}

func annotate(description, note string) string {
	if description == "" {
		return note
	}
	return description + "\n" + note
}
