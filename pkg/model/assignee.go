package model

import "strings"

// Assignee is a roster contact. Name is the roster key.
type Assignee struct {
	Name           string `json:"name"`
	MessagingToken string `json:"messagingToken,omitempty"`
	Email          string `json:"email,omitempty"`
}

// HasContact reports whether at least one notification channel is set.
func (a Assignee) HasContact() bool {
	return strings.TrimSpace(a.MessagingToken) != "" || strings.TrimSpace(a.Email) != ""
}

// NotificationPayload bundles one assignee with the tasks addressed to them.
type NotificationPayload struct {
	Assignee Assignee `json:"assignee"`
	Tasks    []Task   `json:"tasks"`
}
