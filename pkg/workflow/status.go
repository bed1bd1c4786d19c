package workflow

import (
	"encoding/json"
	"fmt"
)

// Step names a backend step.
type Step string

const (
	StepPersistPrimary   Step = "persist-primary"
	StepPersistSecondary Step = "persist-secondary"
	StepGenerateDocument Step = "generate-document"
	StepNotify           Step = "notify"
)

// Steps lists every step in execution order.
var Steps = []Step{StepPersistPrimary, StepPersistSecondary, StepGenerateDocument, StepNotify}

// State is the typed state of one step.
type State string

const (
	StatePending      State = "pending"
	StateRunning      State = "running"
	StateDone         State = "done"
	StateFailed       State = "failed"
	StateNotAttempted State = "not attempted"
	StateSkipped      State = "skipped"
)

// Phase tracks dispatch progress as a whole.
type Phase string

const (
	PhasePending             Phase = "pending"
	PhasePersistingPrimary   Phase = "persisting-primary"
	PhasePersistingSecondary Phase = "persisting-secondary"
	PhaseGeneratingDocument  Phase = "generating-document"
	PhaseDone                Phase = "done"
	PhaseFailed              Phase = "failed"
)

// StepStatus is the state of one step and the reason for a failure or skip.
type StepStatus struct {
	State  State  `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// Message renders the step as free text, e.g. "failed: quota exceeded".
func (s StepStatus) Message() string {
	if s.Reason != "" && (s.State == StateFailed || s.State == StateSkipped) {
		return fmt.Sprintf("%s: %s", s.State, s.Reason)
	}
	return string(s.State)
}

// Status is the backend status of one batch.
type Status struct {
	Phase Phase                `json:"phase"`
	Steps map[Step]*StepStatus `json:"steps"`
}

// NewStatus returns a status with every step pending.
func NewStatus() *Status {
	s := &Status{Phase: PhasePending, Steps: make(map[Step]*StepStatus, len(Steps))}
	for _, step := range Steps {
		s.Steps[step] = &StepStatus{State: StatePending}
	}
	return s
}

// Step returns the status of step, pending when absent.
func (s *Status) Step(step Step) StepStatus {
	if st, ok := s.Steps[step]; ok && st != nil {
		return *st
	}
	return StepStatus{State: StatePending}
}

// Message renders the message of step.
func (s *Status) Message(step Step) string {
	return s.Step(step).Message()
}

// Messages renders every step in execution order.
func (s *Status) Messages() map[Step]string {
	out := make(map[Step]string, len(Steps))
	for _, step := range Steps {
		out[step] = s.Message(step)
	}
	return out
}

// Completed reports whether dispatch finished without a failure.
func (s *Status) Completed() bool {
	return s.Phase == PhaseDone
}

func (s *Status) set(step Step, state State, reason string) {
	if s.Steps == nil {
		s.Steps = make(map[Step]*StepStatus)
	}
	s.Steps[step] = &StepStatus{State: state, Reason: reason}
}

// MarshalJSON writes the rendered messages next to the typed states.
func (s *Status) MarshalJSON() ([]byte, error) {
	type plain Status
	return json.Marshal(struct {
		*plain
		Messages map[Step]string `json:"messages"`
	}{(*plain)(s), s.Messages()})
}
