// Package lifecycle validates and persists feedback status changes.
package lifecycle

import (
	"context"

	"github.com/wilforlan/suncture-feedback-board/internal/models"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	"github.com/wilforlan/suncture-feedback-board/internal/store"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"
)

// Transitions maps each status to the statuses it may move to. Every
// distinct pair is currently allowed and no status is terminal.
var Transitions = map[models.Status][]models.Status{
	models.StatusOpen:       {models.StatusInReview, models.StatusDone, models.StatusNeedsRefix},
	models.StatusInReview:   {models.StatusOpen, models.StatusDone, models.StatusNeedsRefix},
	models.StatusDone:       {models.StatusOpen, models.StatusInReview, models.StatusNeedsRefix},
	models.StatusNeedsRefix: {models.StatusOpen, models.StatusInReview, models.StatusDone},
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to models.Status) bool {
	for _, s := range Transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Plan computes the record as it would look after moving to status to.
// changed is false when the record already has that status.
func Plan(record models.FeedbackRecord, to models.Status) (planned models.FeedbackRecord, changed bool, err error) {
	if !to.IsValid() {
		return record, false, contextutils.WrapErrorf(contextutils.ErrInvalidStatus, "unknown status %q", to)
	}
	if record.Status == to {
		return record, false, nil
	}
	if !CanTransition(record.Status, to) {
		return record, false, contextutils.WrapErrorf(contextutils.ErrTransitionNotAllowed, "cannot move from %s to %s", record.Status, to)
	}

	planned = record.Clone()
	planned.Status = to
	if to == models.StatusNeedsRefix {
		planned.RefixCount++
	}
	return planned, true, nil
}

// Result describes a completed Apply.
type Result struct {
	NoOp   bool
	Record models.FeedbackRecord
}

// Engine persists planned transitions.
type Engine struct {
	store  store.RecordStore
	logger *observability.Logger
}

// NewEngine creates an Engine over s.
func NewEngine(s store.RecordStore, logger *observability.Logger) *Engine {
	if s == nil {
		panic("NewEngine: store is nil")
	}
	if logger == nil {
		panic("NewEngine: logger is nil")
	}
	return &Engine{store: s, logger: logger}
}

// Apply moves record to status to and persists the change. The caller's
// record is never modified; on failure the transition did not happen.
func (e *Engine) Apply(ctx context.Context, record models.FeedbackRecord, to models.Status) (result0 Result, err error) {
	ctx, span := observability.TraceLifecycleFunction(ctx, "apply",
		observability.AttributeFeedbackID(record.ID),
		observability.AttributeStatus("from", string(record.Status)),
		observability.AttributeStatus("to", string(to)),
	)
	defer observability.FinishSpan(span, &err)

	planned, changed, err := Plan(record, to)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		return Result{NoOp: true, Record: record.Clone()}, nil
	}

	status := planned.Status
	patch := store.Patch{Status: &status, IncrementRefix: to == models.StatusNeedsRefix}
	if err := e.store.Update(ctx, record.ID, patch); err != nil {
		e.logger.Warn(ctx, "status change not persisted", map[string]interface{}{
			"feedback_id": record.ID,
			"from":        string(record.Status),
			"to":          string(to),
			"error":       err.Error(),
		})
		if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			return Result{}, err
		}
		return Result{}, contextutils.WrapWithCode(err, contextutils.ErrorCodePersistenceFailed, "failed to persist status change")
	}

	// The stored refix_count may differ from the caller's copy.
	stored := e.reload(ctx, planned)

	e.logger.Info(ctx, "status changed", map[string]interface{}{
		"feedback_id": record.ID,
		"serial":      record.SerialNumber,
		"from":        string(record.Status),
		"to":          string(to),
		"refix_count": stored.RefixCount,
	})
	return Result{Record: stored}, nil
}

// reload returns the persisted record, or planned when it cannot be read.
func (e *Engine) reload(ctx context.Context, planned models.FeedbackRecord) models.FeedbackRecord {
	current, err := e.store.GetByID(ctx, planned.ID)
	if err != nil || current == nil {
		fields := map[string]interface{}{"feedback_id": planned.ID}
		if err != nil {
			fields["error"] = err.Error()
		}
		e.logger.Debug(ctx, "using planned record after status change", fields)
		return planned
	}
	return *current
}

// Transition loads the record by id and applies the status change.
func (e *Engine) Transition(ctx context.Context, id string, to models.Status) (result0 Result, err error) {
	ctx, span := observability.TraceLifecycleFunction(ctx, "transition", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	record, err := e.store.GetByID(ctx, id)
	if err != nil {
		return Result{}, contextutils.WrapError(err, "failed to load feedback")
	}
	if record == nil {
		return Result{}, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "feedback with ID %s not found", id)
	}
	return e.Apply(ctx, *record, to)
}
