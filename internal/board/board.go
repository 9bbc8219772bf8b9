// Package board keeps the status-partitioned projection of feedback records
// and moves records between columns optimistically.
//
// A move updates the projection first, then persists through the lifecycle
// engine. If persistence fails the move is reverted. The mutex guarding the
// projection is never held while the store is being called.
package board

import (
	"context"
	"sort"
	"sync"

	"github.com/wilforlan/suncture-feedback-board/internal/lifecycle"
	"github.com/wilforlan/suncture-feedback-board/internal/models"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	"github.com/wilforlan/suncture-feedback-board/internal/store"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MoveOutcome is the result of MoveRecord.
type MoveOutcome string

// Move outcomes
const (
	OutcomeNoOp       MoveOutcome = "noop"
	OutcomeBusy       MoveOutcome = "busy"
	OutcomeApplied    MoveOutcome = "applied"
	OutcomeRolledBack MoveOutcome = "rolled_back"
)

// State is a point-in-time copy of the board.
type State struct {
	Columns  map[models.Status][]models.FeedbackRecord `json:"columns"`
	InFlight []string                                  `json:"in_flight"`
}

// Board is safe for concurrent use.
type Board struct {
	store    store.RecordStore
	engine   *lifecycle.Engine
	notifier Notifier
	logger   *observability.Logger
	moves    otelmetric.Int64Counter

	mu       sync.Mutex
	columns  map[models.Status][]models.FeedbackRecord
	inFlight map[string]struct{}
}

// NewBoard creates an empty board. Call Load to populate it.
func NewBoard(s store.RecordStore, engine *lifecycle.Engine, notifier Notifier, logger *observability.Logger) *Board {
	if s == nil {
		panic("NewBoard: store is nil")
	}
	if engine == nil {
		panic("NewBoard: engine is nil")
	}
	if logger == nil {
		panic("NewBoard: logger is nil")
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}

	moves, err := observability.Meter().Int64Counter("board.moves",
		otelmetric.WithDescription("Board moves by outcome"))
	if err != nil {
		logger.Warn(context.Background(), "failed to create board.moves counter", map[string]interface{}{"error": err.Error()})
		moves = noop.Int64Counter{}
	}

	return &Board{
		store:    s,
		engine:   engine,
		notifier: notifier,
		logger:   logger,
		moves:    moves,
		columns:  emptyColumns(),
		inFlight: make(map[string]struct{}),
	}
}

func emptyColumns() map[models.Status][]models.FeedbackRecord {
	cols := make(map[models.Status][]models.FeedbackRecord, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		cols[s] = []models.FeedbackRecord{}
	}
	return cols
}

// Load replaces the projection with the store's current records. Records
// with an unrecognized status land in open. The in-flight set is kept.
func (b *Board) Load(ctx context.Context) (err error) {
	ctx, span := observability.TraceBoardFunction(ctx, "load")
	defer observability.FinishSpan(span, &err)

	records, err := b.store.List(ctx, store.ListFilter{})
	if err != nil {
		return contextutils.WrapError(err, "failed to load board")
	}

	cols := emptyColumns()
	normalized := 0
	for _, r := range records {
		if !r.Status.IsValid() {
			r.Status = models.StatusOpen
			normalized++
		}
		cols[r.Status] = append(cols[r.Status], r)
	}

	b.mu.Lock()
	b.columns = cols
	b.mu.Unlock()

	fields := map[string]interface{}{"records": len(records)}
	if normalized > 0 {
		fields["normalized"] = normalized
	}
	b.logger.Debug(ctx, "board loaded", fields)
	return nil
}

// Snapshot returns a deep copy of the columns and the in-flight ids.
func (b *Board) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	cols := make(map[models.Status][]models.FeedbackRecord, len(b.columns))
	for _, s := range models.AllStatuses {
		cols[s] = cloneColumn(b.columns[s])
	}
	ids := make([]string, 0, len(b.inFlight))
	for id := range b.inFlight {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return State{Columns: cols, InFlight: ids}
}

// Column returns a copy of one column. Unknown statuses yield an empty slice.
func (b *Board) Column(status models.Status) []models.FeedbackRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneColumn(b.columns[status])
}

// IsInFlight reports whether a move of id is awaiting the store.
func (b *Board) IsInFlight(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.inFlight[id]
	return ok
}

// MoveRecord moves id from column from to column to.
//
// It is a no-op when from equals to, when id is unknown, or when the record
// is no longer in from. A record whose previous move has not finished is
// reported busy. Otherwise the projection changes immediately and the store
// is called; a store failure reverts the projection and returns the error
// with OutcomeRolledBack.
func (b *Board) MoveRecord(ctx context.Context, id string, from, to models.Status) (result0 MoveOutcome, err error) {
	ctx, span := observability.TraceBoardFunction(ctx, "move_record",
		observability.AttributeFeedbackID(id),
		observability.AttributeStatus("from", string(from)),
		observability.AttributeStatus("to", string(to)),
	)
	defer func() {
		span.SetAttributes(attribute.String("board.outcome", string(result0)))
		observability.FinishSpan(span, &err)
	}()

	if !to.IsValid() {
		return OutcomeNoOp, contextutils.WrapErrorf(contextutils.ErrInvalidStatus, "unknown status %q", to)
	}

	b.mu.Lock()
	if from == to {
		b.mu.Unlock()
		return b.record(ctx, OutcomeNoOp), nil
	}
	index := indexOf(b.columns[from], id)
	if index < 0 {
		b.mu.Unlock()
		return b.record(ctx, OutcomeNoOp), nil
	}
	if _, busy := b.inFlight[id]; busy {
		b.mu.Unlock()
		return b.record(ctx, OutcomeBusy), nil
	}

	original := b.columns[from][index]
	planned, _, err := lifecycle.Plan(original, to)
	if err != nil {
		b.mu.Unlock()
		return OutcomeNoOp, err
	}
	b.inFlight[id] = struct{}{}
	b.columns[from] = without(b.columns[from], id)
	b.columns[to] = prepend(b.columns[to], planned)
	b.mu.Unlock()

	result, err := b.engine.Apply(ctx, original, to)

	b.mu.Lock()
	if err != nil {
		b.removeEverywhere(id)
		b.columns[from] = insertAt(b.columns[from], index, original)
		delete(b.inFlight, id)
		b.mu.Unlock()

		b.logger.Warn(ctx, "board move rolled back", map[string]interface{}{
			"feedback_id": id,
			"from":        string(from),
			"to":          string(to),
			"error":       err.Error(),
		})
		b.notifier.Notify(ctx, failedNotice())
		return b.record(ctx, OutcomeRolledBack), err
	}

	// The stored record replaces the optimistic entry, which a Load during
	// the store call may also have moved.
	b.place(result.Record)
	delete(b.inFlight, id)
	b.mu.Unlock()

	b.notifier.Notify(ctx, appliedNotice(to))
	return b.record(ctx, OutcomeApplied), nil
}

// Upsert puts record in the column of its status, replacing any older copy.
// Records with a move in flight are left to that move.
func (b *Board) Upsert(record models.FeedbackRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, busy := b.inFlight[record.ID]; busy {
		return
	}
	b.place(record.Clone())
}

// place replaces record in its column, or moves it to the top of that
// column when it sits elsewhere. Caller holds mu.
func (b *Board) place(record models.FeedbackRecord) {
	if !record.Status.IsValid() {
		record.Status = models.StatusOpen
	}
	col := b.columns[record.Status]
	if i := indexOf(col, record.ID); i >= 0 {
		out := cloneColumn(col)
		out[i] = record
		b.columns[record.Status] = out
		return
	}
	b.removeEverywhere(record.ID)
	b.columns[record.Status] = prepend(b.columns[record.Status], record)
}

func (b *Board) record(ctx context.Context, outcome MoveOutcome) MoveOutcome {
	b.moves.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("outcome", string(outcome))))
	return outcome
}

// removeEverywhere drops id from every column. Caller holds mu.
func (b *Board) removeEverywhere(id string) {
	for s, col := range b.columns {
		if indexOf(col, id) >= 0 {
			b.columns[s] = without(col, id)
		}
	}
}

func indexOf(col []models.FeedbackRecord, id string) int {
	for i := range col {
		if col[i].ID == id {
			return i
		}
	}
	return -1
}

// The helpers below always build new slices so snapshots taken earlier never
// observe a partially edited column.

func without(col []models.FeedbackRecord, id string) []models.FeedbackRecord {
	out := make([]models.FeedbackRecord, 0, len(col))
	for _, r := range col {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func prepend(col []models.FeedbackRecord, r models.FeedbackRecord) []models.FeedbackRecord {
	out := make([]models.FeedbackRecord, 0, len(col)+1)
	out = append(out, r)
	return append(out, col...)
}

func insertAt(col []models.FeedbackRecord, index int, r models.FeedbackRecord) []models.FeedbackRecord {
	if index > len(col) {
		index = len(col)
	}
	out := make([]models.FeedbackRecord, 0, len(col)+1)
	out = append(out, col[:index]...)
	out = append(out, r)
	return append(out, col[index:]...)
}

func cloneColumn(col []models.FeedbackRecord) []models.FeedbackRecord {
	out := make([]models.FeedbackRecord, len(col))
	for i := range col {
		out[i] = col[i].Clone()
	}
	return out
}
