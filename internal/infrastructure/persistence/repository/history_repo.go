package repository

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/vlaamswoordenboek/woordenboek/internal/application/port"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/entity"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/workflow"
	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new history record
func (r *HistoryRepository) Create(ctx context.Context, history *entity.ArticleHistory) error {
	query := `
		INSERT INTO article_history (
			article_id, actor_id, previous_state, new_state, action, editor_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if history.Timestamp.IsZero() {
		history.Timestamp = time.Now().UTC()
	}

	var previous sql.NullInt64
	if history.PreviousState != nil {
		previous = sql.NullInt64{Int64: int64(*history.PreviousState), Valid: true}
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		history.ArticleID,
		nullableID(history.ActorID),
		previous,
		int64(history.NewState),
		history.Action,
		nullableID(history.EditorID),
		history.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history record",
			zap.Int64("article_id", history.ArticleID),
			zap.String("action", history.Action),
			zap.Error(err),
		)
		return workflow.NewPersistenceError("insert history", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return workflow.NewPersistenceError("read history id", err)
	}

	history.ID = id
	return nil
}

// GetByArticleID retrieves the review trail of an article, oldest first
func (r *HistoryRepository) GetByArticleID(ctx context.Context, articleID int64) ([]*entity.ArticleHistory, error) {
	query := `
		SELECT id, article_id, actor_id, previous_state, new_state, action, editor_id, created_at
		FROM article_history
		WHERE article_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, articleID)
	if err != nil {
		r.logger.Error("Failed to get history by article ID", zap.Int64("article_id", articleID), zap.Error(err))
		return nil, workflow.NewPersistenceError("get history", err)
	}
	defer rows.Close()

	records := make([]*entity.ArticleHistory, 0)
	for rows.Next() {
		var (
			record   entity.ArticleHistory
			actorID  sql.NullInt64
			previous sql.NullInt64
			newState int64
			editorID sql.NullInt64
		)
		if err := rows.Scan(
			&record.ID,
			&record.ArticleID,
			&actorID,
			&previous,
			&newState,
			&record.Action,
			&editorID,
			&record.Timestamp,
		); err != nil {
			return nil, workflow.NewPersistenceError("scan history", err)
		}

		record.NewState = workflow.State(newState)
		if previous.Valid {
			st := workflow.State(previous.Int64)
			record.PreviousState = &st
		}
		if actorID.Valid {
			id := actorID.Int64
			record.ActorID = &id
		}
		if editorID.Valid {
			id := editorID.Int64
			record.EditorID = &id
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, workflow.NewPersistenceError("get history", err)
	}

	return records, nil
}

var _ port.HistoryRepository = (*HistoryRepository)(nil)
