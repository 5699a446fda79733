package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vlaamswoordenboek/woordenboek/internal/application/dispatcher"
	"github.com/vlaamswoordenboek/woordenboek/internal/application/port"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/entity"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/event"
	domainwf "github.com/vlaamswoordenboek/woordenboek/internal/domain/workflow"
	"github.com/vlaamswoordenboek/woordenboek/pkg/utils"
)

// engineImpl is the concrete implementation of LifecycleEngine
type engineImpl struct {
	articleRepo port.ArticleRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	dispatcher  dispatcher.Dispatcher
	recorder    Recorder
	logger      Logger
	now         func() time.Time
}

// EngineOption configures the lifecycle engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithRecorder sets the transition outcome recorder
func WithRecorder(r Recorder) EngineOption {
	return func(e *engineImpl) {
		e.recorder = r
	}
}

// WithLogger sets the engine logger
func WithLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// NewEngine creates a new lifecycle engine
func NewEngine(
	articleRepo port.ArticleRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) LifecycleEngine {
	e := &engineImpl{
		articleRepo: articleRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		recorder:    nopRecorder{},
		logger:      nopLogger{},
		now:         func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// GetStateMachine builds a fresh machine from the persisted state on every call
func (e *engineImpl) GetStateMachine(ctx context.Context, articleID int64) (domainwf.StateMachine, error) {
	article, err := e.load(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return BuildArticleLifecycle(article.State), nil
}

func (e *engineImpl) AvailableTransitions(ctx context.Context, articleID int64) ([]domainwf.Trigger, error) {
	machine, err := e.GetStateMachine(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return machine.PermittedTriggers(), nil
}

func (e *engineImpl) Fire(ctx context.Context, articleID int64, trigger domainwf.Trigger, actorID *int64) (*entity.Article, error) {
	article, err := e.load(ctx, articleID)
	if err != nil {
		return nil, e.failed(trigger, articleID, err)
	}

	machine := BuildArticleLifecycle(article.State)
	tc := domainwf.TransitionContext{ActorID: actorID}
	if err := machine.Fire(ctx, trigger, tc); err != nil {
		return nil, e.failed(trigger, articleID, err)
	}

	var extra *port.StateExtra
	if trigger == domainwf.TriggerBeginEditing {
		extra = &port.StateExtra{EditorID: actorID}
	}

	return e.commitTransition(ctx, article, trigger, machine.State(), actorID, entity.ArticleChanges{}, extra)
}

func (e *engineImpl) SubmitForApproval(ctx context.Context, articleID int64, actorID *int64) (*entity.Article, error) {
	return e.Fire(ctx, articleID, domainwf.TriggerSubmitForApproval, actorID)
}

func (e *engineImpl) TransitionToEditing(ctx context.Context, articleID int64, actorID *int64) (*entity.Article, error) {
	return e.Fire(ctx, articleID, domainwf.TriggerTransitionToEditing, actorID)
}

func (e *engineImpl) TransitionToReleased(ctx context.Context, articleID int64, actorID *int64) (*entity.Article, error) {
	return e.Fire(ctx, articleID, domainwf.TriggerTransitionToReleased, actorID)
}

func (e *engineImpl) TransitionToArchived(ctx context.Context, articleID int64, actorID *int64) (*entity.Article, error) {
	return e.Fire(ctx, articleID, domainwf.TriggerTransitionToArchived, actorID)
}

func (e *engineImpl) BeginEdit(ctx context.Context, articleID int64, actingUserID int64, changes entity.ArticleChanges) (*entity.Article, error) {
	if err := changes.Validate(); err != nil {
		return nil, err
	}

	article, err := e.load(ctx, articleID)
	if err != nil {
		return nil, err
	}

	machine := BuildArticleLifecycle(article.State)
	if machine.CanFire(domainwf.TriggerBeginEditing) {
		tc := domainwf.WithActor(actingUserID)
		if err := machine.Fire(ctx, domainwf.TriggerBeginEditing, tc); err != nil {
			return nil, e.failed(domainwf.TriggerBeginEditing, articleID, err)
		}
		return e.commitTransition(ctx, article, domainwf.TriggerBeginEditing, machine.State(),
			tc.ActorID, changes, &port.StateExtra{EditorID: tc.ActorID})
	}

	if changes.IsEmpty() {
		return article, nil
	}

	actor := actingUserID
	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.articleRepo.SaveEdit(txCtx, articleID, article.State, changes, nil, nil); err != nil {
			return err
		}
		return e.historyRepo.Create(txCtx, e.historyEntry(article, article.State, entity.ActionEdited, &actor, article.EditorID))
	})
	if err != nil {
		e.logger.Error("Failed to save article edit", "article_id", articleID, "error", err)
		return nil, err
	}

	updated := e.applied(article, article.State, changes, nil)
	e.emit(ctx, event.NewEvent(event.TypeArticleEdited, articleID, map[string]interface{}{
		event.KeyNewState: updated.State.String(),
	}).WithActor(&actor))

	return updated, nil
}

func (e *engineImpl) RemoveEditor(ctx context.Context, articleID int64, actorID *int64) (*entity.Article, error) {
	article, err := e.load(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article.EditorID == nil {
		return article, nil
	}

	previousEditor := *article.EditorID
	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.articleRepo.ClearEditor(txCtx, articleID, article.State); err != nil {
			return err
		}
		return e.historyRepo.Create(txCtx, e.historyEntry(article, article.State, entity.ActionEditorRemoved, actorID, nil))
	})
	if err != nil {
		e.logger.Error("Failed to remove editor", "article_id", articleID, "error", err)
		return nil, err
	}

	updated := e.applied(article, article.State, entity.ArticleChanges{}, nil)
	updated.EditorID = nil

	e.logger.Info("Editor removed", "article_id", articleID, "editor_id", previousEditor)
	e.emit(ctx, event.NewEvent(event.TypeEditorRemoved, articleID, map[string]interface{}{
		event.KeyEditorID: previousEditor,
	}).WithActor(actorID))

	return updated, nil
}

// commitTransition persists a transition already accepted by the machine, together
// with any field changes and its history entry, in one transaction.
func (e *engineImpl) commitTransition(
	ctx context.Context,
	article *entity.Article,
	trigger domainwf.Trigger,
	to domainwf.State,
	actorID *int64,
	changes entity.ArticleChanges,
	extra *port.StateExtra,
) (*entity.Article, error) {
	from := article.State

	editorID := article.EditorID
	if extra != nil && extra.EditorID != nil {
		editorID = extra.EditorID
	}

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		if changes.IsEmpty() {
			err = e.articleRepo.UpdateState(txCtx, article.ID, from, to, extra)
		} else {
			err = e.articleRepo.SaveEdit(txCtx, article.ID, from, changes, &to, extra)
		}
		if err != nil {
			return err
		}
		return e.historyRepo.Create(txCtx, e.historyEntry(article, to, trigger.String(), actorID, editorID))
	})
	if err != nil {
		return nil, e.failed(trigger, article.ID, err)
	}

	e.recorder.TransitionSucceeded(trigger, from, to)
	e.logger.Info("Article transitioned",
		"article_id", article.ID,
		"trigger", trigger,
		"from", from,
		"to", to,
	)

	updated := e.applied(article, to, changes, extra)

	e.emit(ctx, event.NewEvent(event.TypeStateChanged, article.ID, map[string]interface{}{
		event.KeyPreviousState: from.String(),
		event.KeyNewState:      to.String(),
		event.KeyTrigger:       trigger.String(),
	}).WithActor(actorID))
	if !changes.IsEmpty() {
		e.emit(ctx, event.NewEvent(event.TypeArticleEdited, article.ID, map[string]interface{}{
			event.KeyNewState: to.String(),
		}).WithActor(actorID))
	}

	return updated, nil
}

func (e *engineImpl) load(ctx context.Context, articleID int64) (*entity.Article, error) {
	article, err := e.articleRepo.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !article.State.IsValid() {
		return nil, fmt.Errorf("%w: article %d has state %d", domainwf.ErrCorruptState, articleID, int(article.State))
	}
	return article, nil
}

func (e *engineImpl) historyEntry(article *entity.Article, to domainwf.State, action string, actorID, editorID *int64) *entity.ArticleHistory {
	from := article.State
	return &entity.ArticleHistory{
		ArticleID:     article.ID,
		ActorID:       actorID,
		PreviousState: &from,
		NewState:      to,
		Action:        action,
		EditorID:      editorID,
		Timestamp:     e.now(),
	}
}

func (e *engineImpl) applied(article *entity.Article, to domainwf.State, changes entity.ArticleChanges, extra *port.StateExtra) *entity.Article {
	updated := *article
	changes.ApplyTo(&updated)
	updated.State = to
	if extra != nil && extra.EditorID != nil {
		id := *extra.EditorID
		updated.EditorID = &id
	}
	updated.UpdatedAt = e.now()
	return &updated
}

func (e *engineImpl) failed(trigger domainwf.Trigger, articleID int64, err error) error {
	reason := FailureReason(err)
	e.recorder.TransitionFailed(trigger, reason)
	e.logger.Error("Transition failed",
		"article_id", articleID,
		"trigger", trigger,
		"reason", reason,
		"error", err,
	)
	return err
}

func (e *engineImpl) emit(ctx context.Context, evt *event.Event) {
	if e.dispatcher != nil {
		e.dispatcher.DispatchAsync(ctx, evt)
	}
}

// FailureReason classifies a lifecycle error for metrics and logs
func FailureReason(err error) string {
	switch {
	case errors.Is(err, domainwf.ErrInvalidTransition):
		return ReasonInvalidTransition
	case errors.Is(err, domainwf.ErrActorRequired):
		return ReasonActorRequired
	case errors.Is(err, domainwf.ErrConcurrentModification):
		return ReasonConcurrentModification
	case errors.Is(err, domainwf.ErrArticleNotFound):
		return ReasonNotFound
	case errors.Is(err, domainwf.ErrPersistenceFailure):
		return ReasonPersistenceFailure
	case errors.Is(err, utils.ErrValidation):
		return ReasonValidation
	default:
		return ReasonOther
	}
}

type nopRecorder struct{}

func (nopRecorder) TransitionSucceeded(domainwf.Trigger, domainwf.State, domainwf.State) {}
func (nopRecorder) TransitionFailed(domainwf.Trigger, string)                             {}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
