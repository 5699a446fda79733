package container

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vlaamswoordenboek/woordenboek/internal/domain/entity"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/workflow"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "container.db")
	cfg.Server.Port = 0
	cfg.Worker.CounterInterval = time.Hour
	return cfg
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(DefaultConfig(), nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Database.Path = ""
	_, err = NewContainer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(ctx), "second start must fail")

	health := c.Health(ctx)
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)
	assert.NotContains(t, health.Components, "nats")

	editor := int64(5)
	article, err := c.Services().Articles.CreateSuggestion(ctx, entity.Suggestion{
		Word:        "pompelmoes",
		Description: "grapefruit",
	}, nil)
	require.NoError(t, err)

	updated, err := c.LifecycleEngine().BeginEdit(ctx, article.ID, editor, entity.ArticleChanges{})
	require.NoError(t, err)
	assert.Equal(t, workflow.StateDraft, updated.State)

	updated, err = c.LifecycleEngine().SubmitForApproval(ctx, article.ID, &editor)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateApproval, updated.State)

	assert.Eventually(t, func() bool {
		counts, _, ok := c.counter.Snapshot()
		if !ok {
			return false
		}
		for _, sc := range counts {
			if sc.State == workflow.StateApproval {
				return sc.Count == 1
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	c.Server().Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "woordenboek_article_transitions_total")

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(ctx))
}

func TestContainer_StartFailureReleasesResources(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.MigrationsDir = filepath.Join(t.TempDir(), "missing")

	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)

	err = c.Start(context.Background())
	require.Error(t, err)
	assert.False(t, c.Ready())
	assert.Nil(t, c.rawDB)
}

func TestConvertToZapFields(t *testing.T) {
	cause := errors.New("boom")
	fields := convertToZapFields("id", int64(3), 42, "skipped", "error", cause, "dangling")

	require.Len(t, fields, 2)
	assert.Equal(t, "id", fields[0].Key)
	assert.Equal(t, "error", fields[1].Key)
}
