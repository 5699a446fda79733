package workflow

import (
	"fmt"
	"slices"
)

// Trigger names an editorial action that may move an article to another state
type Trigger string

const (
	TriggerBeginEditing         Trigger = "begin_editing"
	TriggerSubmitForApproval    Trigger = "submit_for_approval"
	TriggerTransitionToEditing  Trigger = "transition_to_editing"
	TriggerTransitionToReleased Trigger = "transition_to_released"
	TriggerTransitionToArchived Trigger = "transition_to_archived"
)

// AllTriggers returns every trigger the lifecycle knows about.
func AllTriggers() []Trigger {
	return []Trigger{
		TriggerBeginEditing,
		TriggerSubmitForApproval,
		TriggerTransitionToEditing,
		TriggerTransitionToReleased,
		TriggerTransitionToArchived,
	}
}

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// IsValid returns true for the known triggers
func (t Trigger) IsValid() bool {
	return slices.Contains(AllTriggers(), t)
}

// ParseTrigger validates a trigger name coming from a caller.
func ParseTrigger(raw string) (Trigger, error) {
	t := Trigger(raw)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown trigger %q", ErrInvalidTransition, raw)
	}
	return t, nil
}
