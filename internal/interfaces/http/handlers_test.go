package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/vlaamswoordenboek/woordenboek/internal/application/service"
	appworkflow "github.com/vlaamswoordenboek/woordenboek/internal/application/workflow"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/entity"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/workflow"
	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/export"
	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/identity"
	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/persistence/repository"
	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/persistence/sqlite"
	"github.com/vlaamswoordenboek/woordenboek/pkg/database"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type stubCounts struct {
	counts    []entity.StateCount
	refreshed time.Time
}

func (s stubCounts) Snapshot() ([]entity.StateCount, time.Time, bool) {
	return s.counts, s.refreshed, s.counts != nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestDeps(t *testing.T) Dependencies {
	t.Helper()
	logger := zap.NewNop()

	raw, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "api.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	migrator, err := database.NewMigrator(raw, "", logger)
	require.NoError(t, err)
	_, err = migrator.Run(context.Background())
	require.NoError(t, err)

	db := sqlite.NewDB(raw.DB, logger)
	articles := repository.NewArticleRepository(db, logger)
	history := repository.NewHistoryRepository(db, logger)

	return Dependencies{
		Articles: service.NewArticleService(articles, history, db, nil, nopLogger{}),
		Engine:   appworkflow.NewEngine(articles, history, db),
		Identity: identity.NewContextProvider(),
		Exporter: export.NewQueueExporter(logger),
	}
}

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()
	return NewServer(DefaultServerConfig(), deps, nopLogger{})
}

func do(t *testing.T, s *Server, method, path, body string, userID string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(DefaultUserHeader, userID)
	}

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decodeArticle(t *testing.T, env envelope) ArticleResponse {
	t.Helper()
	var a ArticleResponse
	require.NoError(t, json.Unmarshal(env.Data, &a))
	return a
}

func createSuggestion(t *testing.T, s *Server, word string) ArticleResponse {
	t.Helper()
	w, env := do(t, s, http.MethodPost, "/api/articles",
		`{"word":"`+word+`","description":"iets Vlaams","example":"<p>voorbeeld</p>"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	return decodeArticle(t, env)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, newTestDeps(t))

	w, env := do(t, s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "healthy", health.Status)
}

func TestCreateSuggestion(t *testing.T) {
	s := newTestServer(t, newTestDeps(t))

	a := createSuggestion(t, s, "plezant")
	assert.Equal(t, "NEW", a.State)
	assert.Equal(t, "suggestie", a.StateLabel)
	assert.Equal(t, "voorbeeld", a.DisplayExample)
	assert.Nil(t, a.EditorID)

	w, env := do(t, s, http.MethodPost, "/api/articles", `{"description":"zonder woord"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "word")

	w, _ = do(t, s, http.MethodPost, "/api/articles", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArticleLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, newTestDeps(t))
	a := createSuggestion(t, s, "goesting")
	base := "/api/articles/" + itoa(a.ID)

	w, env := do(t, s, http.MethodPatch, base, `{"description":"zin in iets"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code, env.Error)

	w, env = do(t, s, http.MethodPatch, base, `{"description":"zin in iets"}`, "7")
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	edited := decodeArticle(t, env)
	assert.Equal(t, "DRAFT", edited.State)
	require.NotNil(t, edited.EditorID)
	assert.Equal(t, int64(7), *edited.EditorID)
	assert.Equal(t, "zin in iets", edited.Description)

	w, env = do(t, s, http.MethodGet, base+"/transitions", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var transitions TransitionsResponse
	require.NoError(t, json.Unmarshal(env.Data, &transitions))
	assert.Equal(t, "DRAFT", transitions.State)
	assert.Equal(t, []string{"submit_for_approval"}, transitions.Transitions)
	assert.False(t, transitions.Terminal)

	w, env = do(t, s, http.MethodPost, base+"/transitions/submit_for_approval", "", "7")
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, "APPROVAL", decodeArticle(t, env).State)

	w, env = do(t, s, http.MethodPost, base+"/transitions/submit_for_approval", "", "7")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, env.Success)

	w, env = do(t, s, http.MethodPost, base+"/transitions/transition_to_released", "", "3")
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, "PUBLISHED", decodeArticle(t, env).State)

	_, env = do(t, s, http.MethodGet, base+"/transitions", "", "")
	require.NoError(t, json.Unmarshal(env.Data, &transitions))
	assert.Empty(t, transitions.Transitions)
	assert.True(t, transitions.Terminal)

	w, env = do(t, s, http.MethodGet, base+"/history", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var history []entity.ArticleHistory
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 4)
	assert.Equal(t, workflow.StatePublished, history[3].NewState)
}

func TestArchivedArticleReentersDraftOnEdit(t *testing.T) {
	s := newTestServer(t, newTestDeps(t))
	a := createSuggestion(t, s, "foefelen")
	base := "/api/articles/" + itoa(a.ID)

	_, _ = do(t, s, http.MethodPatch, base, `{}`, "4")
	_, _ = do(t, s, http.MethodPost, base+"/transitions/submit_for_approval", "", "4")
	w, env := do(t, s, http.MethodPost, base+"/transitions/transition_to_archived", "", "4")
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, "ARCHIVED", decodeArticle(t, env).State)

	w, env = do(t, s, http.MethodPatch, base, `{"word":"foefelaar"}`, "9")
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	edited := decodeArticle(t, env)
	assert.Equal(t, "DRAFT", edited.State)
	assert.Equal(t, "foefelaar", edited.Word)
	require.NotNil(t, edited.EditorID)
	assert.Equal(t, int64(9), *edited.EditorID)

	w, env = do(t, s, http.MethodDelete, base+"/editor", "", "9")
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	cleared := decodeArticle(t, env)
	assert.Nil(t, cleared.EditorID)
	assert.Equal(t, "DRAFT", cleared.State)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t, newTestDeps(t))
	a := createSuggestion(t, s, "sjotten")
	base := "/api/articles/" + itoa(a.ID)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		status int
	}{
		{"unknown trigger", http.MethodPost, base + "/transitions/publish_now", "", http.StatusBadRequest},
		{"invalid id", http.MethodGet, "/api/articles/abc", "", http.StatusBadRequest},
		{"missing article", http.MethodGet, "/api/articles/999", "", http.StatusNotFound},
		{"missing article transition", http.MethodPost, "/api/articles/999/transitions/transition_to_released", "", http.StatusNotFound},
		{"malformed user header", http.MethodGet, base, "niemand", http.StatusBadRequest},
		{"begin editing without actor", http.MethodPost, base + "/transitions/begin_editing", "", http.StatusUnauthorized},
		{"release from new", http.MethodPost, base + "/transitions/transition_to_released", "2", http.StatusUnprocessableEntity},
		{"bad state filter", http.MethodGet, "/api/articles?state=pending", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, s, tt.method, tt.path, "", tt.user)
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(&workflow.ConcurrentModificationError{ArticleID: 1, Expected: workflow.StateApproval}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(workflow.NewPersistenceError("update state", assert.AnError)))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(&workflow.InvalidTransitionError{From: workflow.StatePublished, Trigger: workflow.TriggerTransitionToArchived}))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("%w: %q", workflow.ErrInvalidState, "klad")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("%w: article 1 has state 9", workflow.ErrCorruptState)))
}

func TestListArticles_StateFilter(t *testing.T) {
	s := newTestServer(t, newTestDeps(t))
	a := createSuggestion(t, s, "content")
	createSuggestion(t, s, "schoon")
	_, _ = do(t, s, http.MethodPatch, "/api/articles/"+itoa(a.ID), `{}`, "1")

	w, env := do(t, s, http.MethodGet, "/api/articles?state=draft", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []ArticleResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "content", list[0].Word)

	_, env = do(t, s, http.MethodGet, "/api/articles?limit=1", "", "")
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
}

func TestCountByState(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		s := newTestServer(t, newTestDeps(t))
		createSuggestion(t, s, "amai")

		w, env := do(t, s, http.MethodGet, "/api/articles/counts", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp CountsResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.False(t, resp.Cached)
		require.Len(t, resp.Counts, 5)
		assert.Equal(t, 1, resp.Counts[0].Count)
	})

	t.Run("cached", func(t *testing.T) {
		deps := newTestDeps(t)
		deps.Counts = stubCounts{
			counts:    []entity.StateCount{{State: workflow.StateApproval, Label: "In afwachting", Count: 12}},
			refreshed: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}
		s := newTestServer(t, deps)

		_, env := do(t, s, http.MethodGet, "/api/articles/counts", "", "")
		var resp CountsResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.True(t, resp.Cached)
		assert.Equal(t, "2024-01-02T03:04:05Z", resp.RefreshedAt)
		assert.Equal(t, 12, resp.Counts[0].Count)
	})
}

func TestExportQueue(t *testing.T) {
	s := newTestServer(t, newTestDeps(t))
	createSuggestion(t, s, "ambetant")
	createSuggestion(t, s, "zever")

	w, _ := do(t, s, http.MethodGet, "/api/articles/export?state=new", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.ArticlesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestExportQueue_NotConfigured(t *testing.T) {
	deps := newTestDeps(t)
	deps.Exporter = nil
	s := newTestServer(t, deps)

	w, env := do(t, s, http.MethodGet, "/api/articles/export", "", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.False(t, env.Success)
}

func TestMetricsRoute(t *testing.T) {
	deps := newTestDeps(t)
	deps.Metrics = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("woordenboek_up 1\n"))
	})
	s := newTestServer(t, deps)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "woordenboek_up")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
