package board

import (
	"context"
	"testing"
	"time"

	"github.com/wilforlan/suncture-feedback-board/internal/lifecycle"
	"github.com/wilforlan/suncture-feedback-board/internal/models"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	"github.com/wilforlan/suncture-feedback-board/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type storeBoard struct {
	store  *store.GormStore
	engine *lifecycle.Engine
	board  *Board
}

func newStoreBoard(t *testing.T) storeBoard {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	log := observability.NewNopLogger()
	gs, err := store.NewGormStore(db, log)
	require.NoError(t, err)
	engine := lifecycle.NewEngine(gs, log)
	return storeBoard{store: gs, engine: engine, board: NewBoard(gs, engine, &noticeRecorder{}, log)}
}

func (sb storeBoard) insert(t *testing.T, serial string, status models.Status) string {
	t.Helper()
	id, err := sb.store.Insert(context.Background(), &models.FeedbackRecord{
		SerialNumber: serial,
		Severity:     models.SeverityLow,
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

func (sb storeBoard) stored(t *testing.T, id string) models.FeedbackRecord {
	t.Helper()
	r, err := sb.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, r)
	return *r
}

func TestStoreBoard_MoveAfterDetailChangeKeepsRefixCount(t *testing.T) {
	sb := newStoreBoard(t)
	ctx := context.Background()
	id := sb.insert(t, "BUG-001", models.StatusOpen)
	require.NoError(t, sb.board.Load(ctx))

	// Changed outside the board; the projection still shows open.
	_, err := sb.engine.Transition(ctx, id, models.StatusNeedsRefix)
	require.NoError(t, err)

	outcome, err := sb.board.MoveRecord(ctx, id, models.StatusOpen, models.StatusInReview)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	got := sb.stored(t, id)
	assert.Equal(t, models.StatusInReview, got.Status)
	assert.Equal(t, 1, got.RefixCount)

	col := sb.board.Column(models.StatusInReview)
	require.Len(t, col, 1)
	assert.Equal(t, 1, col[0].RefixCount)
	assertOneColumnEach(t, sb.board.Snapshot())
}

func TestStoreBoard_RefixFromStaleProjectionStillCounts(t *testing.T) {
	sb := newStoreBoard(t)
	ctx := context.Background()
	id := sb.insert(t, "BUG-001", models.StatusOpen)
	require.NoError(t, sb.board.Load(ctx))

	_, err := sb.engine.Transition(ctx, id, models.StatusNeedsRefix)
	require.NoError(t, err)
	_, err = sb.engine.Transition(ctx, id, models.StatusDone)
	require.NoError(t, err)

	_, err = sb.board.MoveRecord(ctx, id, models.StatusOpen, models.StatusNeedsRefix)
	require.NoError(t, err)

	got := sb.stored(t, id)
	assert.Equal(t, models.StatusNeedsRefix, got.Status)
	assert.Equal(t, 2, got.RefixCount)
	assert.Equal(t, 2, sb.board.Column(models.StatusNeedsRefix)[0].RefixCount)
}

func TestStoreBoard_RecordInsertedAfterLoad(t *testing.T) {
	sb := newStoreBoard(t)
	ctx := context.Background()
	require.NoError(t, sb.board.Load(ctx))
	id := sb.insert(t, "BUG-001", models.StatusOpen)

	outcome, err := sb.board.MoveRecord(ctx, id, models.StatusOpen, models.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoOp, outcome, "unknown to the projection")
	assert.Equal(t, models.StatusOpen, sb.stored(t, id).Status)

	sb.board.Upsert(sb.stored(t, id))
	outcome, err = sb.board.MoveRecord(ctx, id, models.StatusOpen, models.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, models.StatusDone, sb.stored(t, id).Status)
	assert.Equal(t, []string{id}, ids(sb.board.Column(models.StatusDone)))
}
