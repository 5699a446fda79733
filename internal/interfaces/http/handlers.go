package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vlaamswoordenboek/woordenboek/internal/application/service"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/entity"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/workflow"
	"github.com/vlaamswoordenboek/woordenboek/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger Logger) *Handlers {
	return &Handlers{deps: deps, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ArticleResponse represents an article in API responses
type ArticleResponse struct {
	ID              int64  `json:"id"`
	Word            string `json:"word"`
	Description     string `json:"description"`
	Example         string `json:"example"`
	DisplayExample  string `json:"display_example"`
	Characteristics string `json:"characteristics"`
	State           string `json:"state"`
	StateLabel      string `json:"state_label"`
	EditorID        *int64 `json:"editor_id,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// TransitionsResponse lists the transitions an article currently allows
type TransitionsResponse struct {
	ArticleID   int64    `json:"article_id"`
	State       string   `json:"state"`
	Transitions []string `json:"transitions"`
	Terminal    bool     `json:"terminal"`
}

// CountsResponse holds per-state article counts
type CountsResponse struct {
	Counts      []entity.StateCount `json:"counts"`
	RefreshedAt string              `json:"refreshed_at"`
	Cached      bool                `json:"cached"`
}

// ListArticlesRequest represents query parameters for listing articles
type ListArticlesRequest struct {
	State  string `form:"state"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
		},
	})
}

// ListArticles handles GET /api/articles
func (h *Handlers) ListArticles(c *gin.Context) {
	var req ListArticlesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters", err)
		return
	}

	filter := entity.ArticleFilter{Limit: req.Limit, Offset: req.Offset}
	if req.State != "" {
		state, err := workflow.ParseState(req.State)
		if err != nil {
			h.badRequest(c, "invalid state filter", err)
			return
		}
		filter.State = &state
	}

	articles, err := h.deps.Articles.ListArticles(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, "Failed to list articles", err)
		return
	}

	responses := make([]ArticleResponse, 0, len(articles))
	for _, a := range articles {
		responses = append(responses, toArticleResponse(a))
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: responses})
}

// CreateSuggestion handles POST /api/articles
func (h *Handlers) CreateSuggestion(c *gin.Context) {
	var input entity.Suggestion
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	article, err := h.deps.Articles.CreateSuggestion(c.Request.Context(), input, h.actor(c))
	if err != nil {
		h.fail(c, "Failed to create suggestion", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: toArticleResponse(article)})
}

// GetArticle handles GET /api/articles/:id
func (h *Handlers) GetArticle(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}

	article, err := h.deps.Articles.GetArticle(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to get article", err, "id", id)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toArticleResponse(article)})
}

// EditArticle handles PATCH /api/articles/:id.
// Editing a NEW or ARCHIVED article moves it to DRAFT with the caller as editor.
func (h *Handlers) EditArticle(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}

	actor := h.actor(c)
	if actor == nil {
		h.fail(c, "Edit without acting user", workflow.ErrActorRequired, "id", id)
		return
	}

	var changes entity.ArticleChanges
	if err := c.ShouldBindJSON(&changes); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	article, err := h.deps.Engine.BeginEdit(c.Request.Context(), id, *actor, changes)
	if err != nil {
		h.fail(c, "Failed to edit article", err, "id", id)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toArticleResponse(article)})
}

// AvailableTransitions handles GET /api/articles/:id/transitions
func (h *Handlers) AvailableTransitions(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}

	machine, err := h.deps.Engine.GetStateMachine(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to load transitions", err, "id", id)
		return
	}

	triggers := machine.PermittedTriggers()
	names := make([]string, 0, len(triggers))
	for _, t := range triggers {
		names = append(names, string(t))
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: TransitionsResponse{
			ArticleID:   id,
			State:       machine.State().String(),
			Transitions: names,
			Terminal:    machine.IsTerminal(),
		},
	})
}

// InvokeTransition handles POST /api/articles/:id/transitions/:trigger
func (h *Handlers) InvokeTransition(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}

	trigger, err := workflow.ParseTrigger(c.Param("trigger"))
	if err != nil {
		h.badRequest(c, "unknown transition", err)
		return
	}

	article, err := h.deps.Engine.Fire(c.Request.Context(), id, trigger, h.actor(c))
	if err != nil {
		h.fail(c, "Transition failed", err, "id", id, "trigger", trigger)
		return
	}

	h.logger.Info("Transition applied", "id", id, "trigger", trigger, "state", article.State)
	c.JSON(http.StatusOK, Response{Success: true, Data: toArticleResponse(article)})
}

// RemoveEditor handles DELETE /api/articles/:id/editor
func (h *Handlers) RemoveEditor(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}

	article, err := h.deps.Engine.RemoveEditor(c.Request.Context(), id, h.actor(c))
	if err != nil {
		h.fail(c, "Failed to remove editor", err, "id", id)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toArticleResponse(article)})
}

// History handles GET /api/articles/:id/history
func (h *Handlers) History(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}

	history, err := h.deps.Articles.History(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to load history", err, "id", id)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: history})
}

// CountByState handles GET /api/articles/counts.
// The queue counter's snapshot is served when warm; otherwise counts are read directly.
func (h *Handlers) CountByState(c *gin.Context) {
	if h.deps.Counts != nil {
		if counts, refreshed, ok := h.deps.Counts.Snapshot(); ok {
			c.JSON(http.StatusOK, Response{
				Success: true,
				Data: CountsResponse{
					Counts:      counts,
					RefreshedAt: refreshed.UTC().Format(time.RFC3339),
					Cached:      true,
				},
			})
			return
		}
	}

	counts, err := h.deps.Articles.CountByState(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to count articles", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: CountsResponse{
			Counts:      counts,
			RefreshedAt: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// ExportQueue handles GET /api/articles/export
func (h *Handlers) ExportQueue(c *gin.Context) {
	if h.deps.Exporter == nil {
		c.JSON(http.StatusNotImplemented, Response{Success: false, Error: "export not configured"})
		return
	}

	filter := entity.ArticleFilter{Limit: service.MaxListLimit}
	if raw := c.Query("state"); raw != "" {
		state, err := workflow.ParseState(raw)
		if err != nil {
			h.badRequest(c, "invalid state filter", err)
			return
		}
		filter.State = &state
	}

	ctx := c.Request.Context()
	var articles []*entity.Article
	for {
		page, err := h.deps.Articles.ListArticles(ctx, filter)
		if err != nil {
			h.fail(c, "Failed to list articles for export", err)
			return
		}
		articles = append(articles, page...)
		if len(page) < filter.Limit {
			break
		}
		filter.Offset += len(page)
	}

	counts, err := h.deps.Articles.CountByState(ctx)
	if err != nil {
		h.fail(c, "Failed to count articles for export", err)
		return
	}

	var buf bytes.Buffer
	if err := h.deps.Exporter.Write(&buf, articles, counts); err != nil {
		h.fail(c, "Failed to render export", err)
		return
	}

	filename := "redactie-" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handlers) actor(c *gin.Context) *int64 {
	if h.deps.Identity == nil {
		return nil
	}
	id, ok := h.deps.Identity.CurrentUserID(c.Request.Context())
	if !ok {
		return nil
	}
	return &id
}

func (h *Handlers) articleID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(c, "invalid article ID", err, "id", idStr)
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string, err error, keysAndValues ...interface{}) {
	h.logger.Error(msg, append(keysAndValues, "error", err)...)
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// fail maps an application error to its status code
func (h *Handlers) fail(c *gin.Context, msg string, err error, keysAndValues ...interface{}) {
	status := statusFor(err)
	h.logger.Error(msg, append(keysAndValues, "status", status, "error", err)...)

	text := err.Error()
	if status == http.StatusInternalServerError {
		text = "internal error"
	}
	c.JSON(status, Response{Success: false, Error: text})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrCorruptState):
		return http.StatusInternalServerError
	case errors.Is(err, utils.ErrValidation), errors.Is(err, workflow.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrActorRequired):
		return http.StatusUnauthorized
	case errors.Is(err, workflow.ErrArticleNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func toArticleResponse(a *entity.Article) ArticleResponse {
	return ArticleResponse{
		ID:              a.ID,
		Word:            a.Word,
		Description:     a.Description,
		Example:         a.Example,
		DisplayExample:  a.DisplayExample(),
		Characteristics: a.Characteristics,
		State:           a.State.String(),
		StateLabel:      a.State.Label(),
		EditorID:        a.EditorID,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.Format(time.RFC3339),
	}
}
