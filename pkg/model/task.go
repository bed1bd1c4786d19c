package model

import (
	"fmt"
	"strings"
)

// Priority is the urgency of a task draft.
type Priority string

const (
	PriorityUrgent Priority = "Urgent"
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var priorityLabels = map[Priority]string{
	PriorityUrgent: "緊急",
	PriorityHigh:   "高",
	PriorityMedium: "中",
	PriorityLow:    "低",
}

// Label returns the display label used in notifications, sheets and summaries.
func (p Priority) Label() string {
	if l, ok := priorityLabels[p]; ok {
		return l
	}
	return string(p)
}

// Valid reports whether p is one of the four enumerated priorities.
func (p Priority) Valid() bool {
	_, ok := priorityLabels[p]
	return ok
}

// ParsePriority accepts either the enum value (case-insensitive) or its label.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	for p, label := range priorityLabels {
		if strings.EqualFold(s, string(p)) || s == label {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Status is the lifecycle state of a task draft. Only Todo exists at creation.
type Status string

const (
	StatusTodo Status = "Todo"

	statusTodoLabel = "待辦事項"
)

// Label returns the display label of the status.
func (s Status) Label() string {
	if s == StatusTodo {
		return statusTodoLabel
	}
	return string(s)
}

// ParseStatus accepts "Todo" or its label.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(StatusTodo)) || s == statusTodoLabel {
		return StatusTodo, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Task is a structured work item extracted from free-form input.
type Task struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	Category    string   `json:"category"`
	Assignee    string   `json:"assignee"`
	DueDate     *Date    `json:"dueDate"`
}
