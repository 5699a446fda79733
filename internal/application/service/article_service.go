package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vlaamswoordenboek/woordenboek/internal/application/dispatcher"
	"github.com/vlaamswoordenboek/woordenboek/internal/application/port"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/entity"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/event"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/workflow"
	"github.com/vlaamswoordenboek/woordenboek/pkg/utils"
)

// Listing bounds
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ArticleService manages article intake and read access
type ArticleService interface {
	// CreateSuggestion stores a visitor suggestion as a NEW article
	CreateSuggestion(ctx context.Context, input entity.Suggestion, submitterID *int64) (*entity.Article, error)
	GetArticle(ctx context.Context, id int64) (*entity.Article, error)
	ListArticles(ctx context.Context, filter entity.ArticleFilter) ([]*entity.Article, error)
	History(ctx context.Context, id int64) ([]*entity.ArticleHistory, error)

	// CountByState returns one entry per lifecycle state, including empty ones
	CountByState(ctx context.Context) ([]entity.StateCount, error)
}

type articleServiceImpl struct {
	articleRepo port.ArticleRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	dispatcher  dispatcher.Dispatcher
	logger      Logger
}

// NewArticleService creates a new ArticleService. The dispatcher may be nil.
func NewArticleService(
	articleRepo port.ArticleRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	logger Logger,
) ArticleService {
	return &articleServiceImpl{
		articleRepo: articleRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		dispatcher:  d,
		logger:      logger,
	}
}

func (s *articleServiceImpl) CreateSuggestion(ctx context.Context, input entity.Suggestion, submitterID *int64) (*entity.Article, error) {
	input = entity.Suggestion{
		Word:            utils.SanitizeString(input.Word),
		Description:     utils.SanitizeString(input.Description),
		Example:         utils.SanitizeString(input.Example),
		Characteristics: utils.SanitizeString(input.Characteristics),
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	article := &entity.Article{
		Word:            input.Word,
		Description:     input.Description,
		Example:         input.Example,
		Characteristics: input.Characteristics,
		State:           workflow.StateNew,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.articleRepo.Create(txCtx, article); err != nil {
			return err
		}
		return s.historyRepo.Create(txCtx, &entity.ArticleHistory{
			ArticleID: article.ID,
			ActorID:   submitterID,
			NewState:  workflow.StateNew,
			Action:    entity.ActionCreated,
			Timestamp: now,
		})
	})
	if err != nil {
		s.logger.Error("Failed to create suggestion", "word", input.Word, "error", err)
		return nil, err
	}

	s.logger.Info("Suggestion created", "article_id", article.ID, "word", article.Word)

	if s.dispatcher != nil {
		evt := event.NewEvent(event.TypeArticleCreated, article.ID, map[string]interface{}{
			event.KeyNewState: workflow.StateNew.String(),
		})
		s.dispatcher.DispatchAsync(ctx, evt.WithActor(submitterID))
	}

	return article, nil
}

func (s *articleServiceImpl) GetArticle(ctx context.Context, id int64) (*entity.Article, error) {
	return s.articleRepo.GetByID(ctx, id)
}

func (s *articleServiceImpl) ListArticles(ctx context.Context, filter entity.ArticleFilter) ([]*entity.Article, error) {
	if filter.State != nil && !filter.State.IsValid() {
		return nil, fmt.Errorf("%w: %d", workflow.ErrInvalidState, int(*filter.State))
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.articleRepo.List(ctx, filter)
}

func (s *articleServiceImpl) History(ctx context.Context, id int64) ([]*entity.ArticleHistory, error) {
	if _, err := s.articleRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.historyRepo.GetByArticleID(ctx, id)
}

func (s *articleServiceImpl) CountByState(ctx context.Context) ([]entity.StateCount, error) {
	counts, err := s.articleRepo.CountByState(ctx)
	if err != nil {
		return nil, err
	}

	states := workflow.AllStates()
	result := make([]entity.StateCount, 0, len(states))
	for _, st := range states {
		result = append(result, entity.StateCount{State: st, Label: st.Label(), Count: counts[st]})
	}
	return result, nil
}
