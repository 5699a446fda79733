package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a trigger is not defined for the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not one of the lifecycle states
	ErrInvalidState = errors.New("invalid state")

	// ErrCorruptState is returned when a stored article carries an unknown state
	ErrCorruptState = errors.New("corrupt stored state")

	// ErrGuardFailed is returned when a guard condition rejects a transition
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrActorRequired is returned when a transition needs an acting user and none was given
	ErrActorRequired = errors.New("acting user required")

	// ErrConcurrentModification is returned when the persisted state changed between read and write
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrPersistenceFailure is returned when storage could not complete a write
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrArticleNotFound is returned when no article exists for an id
	ErrArticleNotFound = errors.New("article not found")
)

// InvalidTransitionError identifies the state and trigger of a rejected transition.
type InvalidTransitionError struct {
	From    State
	Trigger Trigger
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: cannot fire %s from state %s", ErrInvalidTransition, e.Trigger, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ConcurrentModificationError reports a conditional update that matched no row.
type ConcurrentModificationError struct {
	ArticleID int64
	Expected  State
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s: article %d is no longer in state %s", ErrConcurrentModification, e.ArticleID, e.Expected)
}

func (e *ConcurrentModificationError) Is(target error) bool {
	return target == ErrConcurrentModification
}

// PersistenceError wraps a storage error raised during op.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err as a persistence failure. A nil err returns nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistenceFailure, e.Op, e.Err)
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailure
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
