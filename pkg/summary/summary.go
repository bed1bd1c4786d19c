// Package summary renders the per-batch summary shown to the operator and
// written into the generated document.
package summary

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/harrisonrobin/taskdispatch/pkg/model"
)

// NoSummaryNeeded is returned for short inputs.
const NoSummaryNeeded = "無須總結"

// LongFormRunes is the length above which text input gets a summary.
const LongFormRunes = 100

// Summarize lists the tasks when content is long or came from a long-form
// source such as a file or a transcript. Otherwise it returns NoSummaryNeeded.
func Summarize(content string, tasks []model.Task, longForm bool) string {
	if !longForm && utf8.RuneCountInString(strings.TrimSpace(content)) <= LongFormRunes {
		return NoSummaryNeeded
	}
	if len(tasks) == 0 {
		return NoSummaryNeeded
	}
	var sb strings.Builder
	for i, t := range tasks {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d. %s｜優先級：%s｜部門：%s｜負責人：%s", i+1, t.Title, t.Priority.Label(), t.Category, t.Assignee)
	}
	return sb.String()
}

// IsEmpty reports whether s carries no summary content.
func IsEmpty(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == NoSummaryNeeded
}
