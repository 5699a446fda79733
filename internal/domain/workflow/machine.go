package workflow

import "context"

// TransitionContext carries the caller-supplied inputs of a transition.
type TransitionContext struct {
	// ActorID is the user performing the transition, if known
	ActorID *int64
}

// WithActor returns a TransitionContext for the given user.
func WithActor(userID int64) TransitionContext {
	return TransitionContext{ActorID: &userID}
}

// StateMachine is a transient view over an article's current state
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is defined for the current state
	CanFire(trigger Trigger) bool

	// Fire attempts the trigger, moving to the target state if it is allowed
	Fire(ctx context.Context, trigger Trigger, tc TransitionContext) error

	// PermittedTriggers returns the triggers defined for the current state, sorted by name
	PermittedTriggers() []Trigger

	// IsTerminal returns true if no trigger is defined for the current state
	IsTerminal() bool
}
