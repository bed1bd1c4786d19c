package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParsePriority(t *testing.T) {
	cases := map[string]Priority{
		"Urgent": PriorityUrgent,
		"urgent": PriorityUrgent,
		"緊急":     PriorityUrgent,
		" high ": PriorityHigh,
		"中":      PriorityMedium,
		"Low":    PriorityLow,
	}
	for in, want := range cases {
		got, err := ParsePriority(in)
		if err != nil {
			t.Errorf("ParsePriority(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParsePriority(%q): expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParsePriority("Critical"); err == nil {
		t.Error("Expected an error for an unknown priority")
	}
}

func TestStatus(t *testing.T) {
	if StatusTodo.Label() != "待辦事項" {
		t.Errorf("Expected label 待辦事項, got %s", StatusTodo.Label())
	}
	for _, in := range []string{"Todo", "todo", "待辦事項"} {
		if s, err := ParseStatus(in); err != nil || s != StatusTodo {
			t.Errorf("ParseStatus(%q): expected Todo, got %s (%v)", in, s, err)
		}
	}
	if _, err := ParseStatus("Done"); err == nil {
		t.Error("Expected an error for an unknown status")
	}
}

func TestTaskJSON(t *testing.T) {
	due := NewDate(time.Date(2025, 9, 28, 15, 4, 5, 0, time.Local))
	task := Task{Title: "a", Priority: PriorityHigh, Status: StatusTodo, DueDate: &due}

	b, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"title":"a","description":"","priority":"High","status":"Todo","category":"","assignee":"","dueDate":"2025-09-28"}`
	if string(b) != want {
		t.Errorf("Expected %s, got %s", want, b)
	}

	var back Task
	if err := json.Unmarshal([]byte(`{"title":"b","dueDate":null}`), &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.DueDate != nil {
		t.Errorf("Expected nil due date, got %v", back.DueDate)
	}
}

func TestDateOf(t *testing.T) {
	if _, ok := DateOf(2025, time.February, 30); ok {
		t.Error("Expected February 30 to be rejected")
	}
	d, ok := DateOf(2024, time.February, 29)
	if !ok || d.String() != "2024-02-29" {
		t.Errorf("Expected 2024-02-29, got %s (%v)", d, ok)
	}
	if got := d.AddDays(1).String(); got != "2024-03-01" {
		t.Errorf("Expected 2024-03-01, got %s", got)
	}
}

func TestAssigneeHasContact(t *testing.T) {
	if (Assignee{Name: "x"}).HasContact() {
		t.Error("Expected no contact")
	}
	if !(Assignee{Name: "x", Email: "x@example.com"}).HasContact() {
		t.Error("Expected email to count as contact")
	}
}
