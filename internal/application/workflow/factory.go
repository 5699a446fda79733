package workflow

import (
	"context"

	domainwf "github.com/vlaamswoordenboek/woordenboek/internal/domain/workflow"
)

// BuildArticleLifecycle creates a state machine configured for the article review lifecycle
func BuildArticleLifecycle(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	// NEW and ARCHIVED re-enter editing when an editor starts working on them
	builder.Configure(domainwf.StateNew).
		PermitIf(domainwf.TriggerBeginEditing, domainwf.StateDraft, requireActor)

	builder.Configure(domainwf.StateArchived).
		PermitIf(domainwf.TriggerBeginEditing, domainwf.StateDraft, requireActor)

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmitForApproval, domainwf.StateApproval)

	builder.Configure(domainwf.StateApproval).
		Permit(domainwf.TriggerTransitionToEditing, domainwf.StateDraft).
		Permit(domainwf.TriggerTransitionToReleased, domainwf.StatePublished).
		Permit(domainwf.TriggerTransitionToArchived, domainwf.StateArchived)

	// PUBLISHED has no outgoing transitions

	return builder.Build(initialState)
}

func requireActor(_ context.Context, tc domainwf.TransitionContext) error {
	if tc.ActorID == nil {
		return domainwf.ErrActorRequired
	}
	return nil
}
