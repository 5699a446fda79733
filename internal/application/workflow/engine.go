package workflow

import (
	"context"

	"github.com/vlaamswoordenboek/woordenboek/internal/domain/entity"
	domainwf "github.com/vlaamswoordenboek/woordenboek/internal/domain/workflow"
)

// LifecycleEngine drives articles through the review lifecycle.
//
// Every write is conditioned on the state read at the start of the call; a
// concurrent change surfaces as workflow.ErrConcurrentModification and is never retried.
type LifecycleEngine interface {
	// GetStateMachine returns a machine built from the article's persisted state
	GetStateMachine(ctx context.Context, articleID int64) (domainwf.StateMachine, error)

	// AvailableTransitions lists the triggers defined for the article's current state
	AvailableTransitions(ctx context.Context, articleID int64) ([]domainwf.Trigger, error)

	// Fire invokes a trigger by name and returns the updated article
	Fire(ctx context.Context, articleID int64, trigger domainwf.Trigger, actorID *int64) (*entity.Article, error)

	SubmitForApproval(ctx context.Context, articleID int64, actorID *int64) (*entity.Article, error)
	TransitionToEditing(ctx context.Context, articleID int64, actorID *int64) (*entity.Article, error)
	TransitionToReleased(ctx context.Context, articleID int64, actorID *int64) (*entity.Article, error)
	TransitionToArchived(ctx context.Context, articleID int64, actorID *int64) (*entity.Article, error)

	// BeginEdit saves field changes. A NEW or ARCHIVED article moves to DRAFT with
	// the acting user as editor in the same write; other states keep state and editor.
	BeginEdit(ctx context.Context, articleID int64, actingUserID int64, changes entity.ArticleChanges) (*entity.Article, error)

	// RemoveEditor clears the article's editor without changing its state
	RemoveEditor(ctx context.Context, articleID int64, actorID *int64) (*entity.Article, error)
}

// Recorder observes transition outcomes
type Recorder interface {
	TransitionSucceeded(trigger domainwf.Trigger, from, to domainwf.State)
	TransitionFailed(trigger domainwf.Trigger, reason string)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Failure reasons passed to Recorder.TransitionFailed
const (
	ReasonInvalidTransition      = "invalid_transition"
	ReasonConcurrentModification = "concurrent_modification"
	ReasonPersistenceFailure     = "persistence_failure"
	ReasonNotFound               = "not_found"
	ReasonActorRequired          = "actor_required"
	ReasonValidation             = "validation"
	ReasonOther                  = "other"
)
