package di

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/wilforlan/suncture-feedback-board/internal/config"
	"github.com/wilforlan/suncture-feedback-board/internal/models"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store:    config.StoreConfig{Driver: config.StoreDriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "feedback.db")},
		Feedback: config.FeedbackConfig{SerialPrefix: "QA", LeaderboardLimit: 5, LeaderboardWindow: "weekly"},
		IsTest:   true,
	}
}

func TestServiceContainer_InitializeSQLite(t *testing.T) {
	ctx := context.Background()
	sc := NewServiceContainer(sqliteConfig(t), observability.NewNopLogger())
	require.NoError(t, sc.Initialize(ctx))
	t.Cleanup(func() { _ = sc.Shutdown(ctx) })

	s, err := sc.GetStore()
	require.NoError(t, err)
	assert.NotNil(t, s)

	allocator, err := sc.GetAllocator()
	require.NoError(t, err)
	assert.Equal(t, "QA", allocator.Prefix())
	next, err := allocator.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "QA-001", next)

	_, err = sc.GetEngine()
	assert.NoError(t, err)
	_, err = sc.GetFeedbackService()
	assert.NoError(t, err)
	_, err = sc.GetLeaderboard()
	assert.NoError(t, err)

	b, err := sc.GetBoard()
	require.NoError(t, err)
	assert.Len(t, b.Snapshot().Columns, len(models.AllStatuses))

	_, err = sc.GetRefresher()
	assert.Error(t, err)
}

func TestServiceContainer_RegistersRefresher(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	cfg.Feedback.BoardRefreshInterval = time.Minute
	sc := NewServiceContainer(cfg, observability.NewNopLogger())
	require.NoError(t, sc.Initialize(ctx))
	t.Cleanup(func() { _ = sc.Shutdown(ctx) })

	r, err := sc.GetRefresher()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, r.GetStatus().Interval)
}

func TestServiceContainer_UnknownService(t *testing.T) {
	sc := NewServiceContainer(sqliteConfig(t), observability.NewNopLogger())

	_, err := sc.GetService("missing")
	assert.Error(t, err)

	sc.services["odd"] = 42
	_, err = GetServiceAs[string](sc, "odd")
	assert.Error(t, err)
}

func TestServiceContainer_InvalidTimezone(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Feedback.Timezone = "Not/AZone"
	sc := NewServiceContainer(cfg, observability.NewNopLogger())

	err := sc.Initialize(context.Background())
	assert.Error(t, err)
	assert.Empty(t, sc.shutdownFuncs)
}

func TestServiceContainer_ShutdownIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sc := NewServiceContainer(sqliteConfig(t), observability.NewNopLogger())
	require.NoError(t, sc.Initialize(ctx))

	assert.NoError(t, sc.Shutdown(ctx))
	assert.NoError(t, sc.Shutdown(ctx))
}
