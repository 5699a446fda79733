package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vlaamswoordenboek/woordenboek/internal/application/port"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/entity"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/workflow"
	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/persistence/sqlite"
)

const articleColumns = `id, word, description, example, characteristics, state, editor_id, created_at, updated_at`

// ArticleRepository implements port.ArticleRepository
type ArticleRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *sqlite.DB, logger *zap.Logger) *ArticleRepository {
	return &ArticleRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new article and sets its ID
func (r *ArticleRepository) Create(ctx context.Context, article *entity.Article) error {
	if !article.State.IsValid() {
		return fmt.Errorf("%w: %d", workflow.ErrInvalidState, int(article.State))
	}

	now := r.now()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	if article.UpdatedAt.IsZero() {
		article.UpdatedAt = now
	}

	query := `
		INSERT INTO articles (
			word, description, example, characteristics, state, editor_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		article.Word,
		article.Description,
		article.Example,
		article.Characteristics,
		int64(article.State),
		nullableID(article.EditorID),
		article.CreatedAt,
		article.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create article", zap.String("word", article.Word), zap.Error(err))
		return workflow.NewPersistenceError("insert article", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return workflow.NewPersistenceError("read article id", err)
	}

	article.ID = id
	return nil
}

// GetByID retrieves an article by ID
func (r *ArticleRepository) GetByID(ctx context.Context, id int64) (*entity.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = ?`

	article, err := scanArticle(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", workflow.ErrArticleNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get article by ID", zap.Int64("id", id), zap.Error(err))
		return nil, workflow.NewPersistenceError("get article", err)
	}

	return article, nil
}

// List retrieves articles, most recently updated first
func (r *ArticleRepository) List(ctx context.Context, filter entity.ArticleFilter) ([]*entity.Article, error) {
	var (
		where string
		args  []interface{}
	)
	if filter.State != nil {
		where = "WHERE state = ?"
		args = append(args, int64(*filter.State))
	}
	args = append(args, filter.Limit, filter.Offset)

	query := `SELECT ` + articleColumns + ` FROM articles ` + where + `
		ORDER BY updated_at DESC, id DESC
		LIMIT ? OFFSET ?`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list articles", zap.Error(err))
		return nil, workflow.NewPersistenceError("list articles", err)
	}
	defer rows.Close()

	articles := make([]*entity.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, workflow.NewPersistenceError("scan article", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, workflow.NewPersistenceError("list articles", err)
	}

	return articles, nil
}

// CountByState returns the number of articles per state; absent states are omitted
func (r *ArticleRepository) CountByState(ctx context.Context) (map[workflow.State]int, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `SELECT state, COUNT(*) FROM articles GROUP BY state`)
	if err != nil {
		r.logger.Error("Failed to count articles", zap.Error(err))
		return nil, workflow.NewPersistenceError("count articles", err)
	}
	defer rows.Close()

	counts := make(map[workflow.State]int)
	for rows.Next() {
		var state int64
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, workflow.NewPersistenceError("scan article count", err)
		}
		counts[workflow.State(state)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, workflow.NewPersistenceError("count articles", err)
	}

	return counts, nil
}

// UpdateState moves the article from expected to next
func (r *ArticleRepository) UpdateState(ctx context.Context, id int64, expected, next workflow.State, extra *port.StateExtra) error {
	return r.SaveEdit(ctx, id, expected, entity.ArticleChanges{}, &next, extra)
}

// SaveEdit writes field changes and an optional state change in a single conditional UPDATE
func (r *ArticleRepository) SaveEdit(
	ctx context.Context,
	id int64,
	expected workflow.State,
	changes entity.ArticleChanges,
	next *workflow.State,
	extra *port.StateExtra,
) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{r.now()}

	for _, f := range []struct {
		column string
		value  *string
	}{
		{"word", changes.Word},
		{"description", changes.Description},
		{"example", changes.Example},
		{"characteristics", changes.Characteristics},
	} {
		if f.value != nil {
			sets = append(sets, f.column+" = ?")
			args = append(args, *f.value)
		}
	}

	if next != nil {
		if !next.IsValid() {
			return fmt.Errorf("%w: %d", workflow.ErrInvalidState, int(*next))
		}
		sets = append(sets, "state = ?")
		args = append(args, int64(*next))
	}
	if extra != nil && extra.EditorID != nil {
		sets = append(sets, "editor_id = ?")
		args = append(args, *extra.EditorID)
	}

	query := `UPDATE articles SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND state = ?`
	args = append(args, id, int64(expected))

	return r.conditionalExec(ctx, "update article", id, expected, query, args...)
}

// ClearEditor unsets editor_id while the article is still in expected
func (r *ArticleRepository) ClearEditor(ctx context.Context, id int64, expected workflow.State) error {
	query := `UPDATE articles SET editor_id = NULL, updated_at = ? WHERE id = ? AND state = ?`
	return r.conditionalExec(ctx, "clear article editor", id, expected, query, r.now(), id, int64(expected))
}

// conditionalExec runs an UPDATE guarded by `id = ? AND state = ?` and tells a
// stale read apart from a missing row when nothing matched.
func (r *ArticleRepository) conditionalExec(ctx context.Context, op string, id int64, expected workflow.State, query string, args ...interface{}) error {
	exec := r.db.Executor(ctx)

	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, zap.Int64("id", id), zap.Error(err))
		return workflow.NewPersistenceError(op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return workflow.NewPersistenceError(op, err)
	}
	if affected > 0 {
		return nil
	}

	var exists int
	err = exec.QueryRowContext(ctx, `SELECT 1 FROM articles WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: id %d", workflow.ErrArticleNotFound, id)
	}
	if err != nil {
		return workflow.NewPersistenceError(op, err)
	}

	r.logger.Info("Conditional update matched no row",
		zap.Int64("id", id),
		zap.Stringer("expected_state", expected),
	)
	return &workflow.ConcurrentModificationError{ArticleID: id, Expected: expected}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*entity.Article, error) {
	var (
		article  entity.Article
		state    int64
		editorID sql.NullInt64
	)

	err := row.Scan(
		&article.ID,
		&article.Word,
		&article.Description,
		&article.Example,
		&article.Characteristics,
		&state,
		&editorID,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	article.State = workflow.State(state)
	if editorID.Valid {
		id := editorID.Int64
		article.EditorID = &id
	}

	return &article, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

var _ port.ArticleRepository = (*ArticleRepository)(nil)
