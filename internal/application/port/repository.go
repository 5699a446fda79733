package port

import (
	"context"

	"github.com/vlaamswoordenboek/woordenboek/internal/domain/entity"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/workflow"
)

// StateExtra carries additional columns written together with a state change
type StateExtra struct {
	// EditorID assigns the editor when non-nil
	EditorID *int64
}

// ArticleRepository defines persistence operations for Article.
//
// Every write is conditional on the caller's last-read state: the update matches
// `id = ? AND state = ?`. When the row exists but no longer has the expected state,
// a *workflow.ConcurrentModificationError is returned. A missing row yields
// workflow.ErrArticleNotFound and driver errors are wrapped in *workflow.PersistenceError.
type ArticleRepository interface {
	Create(ctx context.Context, article *entity.Article) error
	GetByID(ctx context.Context, id int64) (*entity.Article, error)
	List(ctx context.Context, filter entity.ArticleFilter) ([]*entity.Article, error)
	CountByState(ctx context.Context) (map[workflow.State]int, error)

	// UpdateState moves an article from expected to next, optionally writing extra columns
	UpdateState(ctx context.Context, id int64, expected, next workflow.State, extra *StateExtra) error

	// SaveEdit writes field changes and, when next is non-nil, the state change in one statement
	SaveEdit(ctx context.Context, id int64, expected workflow.State, changes entity.ArticleChanges, next *workflow.State, extra *StateExtra) error

	// ClearEditor unsets the editor while the article is still in expected
	ClearEditor(ctx context.Context, id int64, expected workflow.State) error
}

// HistoryRepository defines persistence operations for ArticleHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.ArticleHistory) error
	GetByArticleID(ctx context.Context, articleID int64) ([]*entity.ArticleHistory, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
