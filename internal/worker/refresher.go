// Package worker runs background jobs next to the HTTP server.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/wilforlan/suncture-feedback-board/internal/config"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Loader reloads a projection from its store.
type Loader interface {
	Load(ctx context.Context) error
}

// Status represents the current state of the refresher
type Status struct {
	IsRunning     bool          `json:"is_running"`
	IsPaused      bool          `json:"is_paused"`
	Interval      time.Duration `json:"interval"`
	LastRunStart  time.Time     `json:"last_run_start"`
	LastRunFinish time.Time     `json:"last_run_finish"`
	LastRunError  string        `json:"last_run_error,omitempty"`
	Runs          int           `json:"runs"`
}

// RunRecord tracks individual refresh runs
type RunRecord struct {
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Status    string        `json:"status"` // Success, Failure
	Error     string        `json:"error,omitempty"`
}

// Refresher reconciles the board with the store on a fixed interval.
// A failed reload keeps the previous projection and is retried on the next tick only.
type Refresher struct {
	loader        Loader
	interval      time.Duration
	logger        *observability.Logger
	status        Status
	history       []RunRecord
	mu            sync.RWMutex
	manualTrigger chan struct{}

	timeNow func() time.Time
}

// NewRefresher creates a refresher; interval must be positive.
func NewRefresher(loader Loader, interval time.Duration, logger *observability.Logger) *Refresher {
	if loader == nil {
		panic("NewRefresher: loader is nil")
	}
	if interval <= 0 {
		panic("NewRefresher: interval must be positive")
	}
	return &Refresher{
		loader:        loader,
		interval:      interval,
		logger:        logger,
		status:        Status{Interval: interval},
		manualTrigger: make(chan struct{}, 1),
		timeNow:       time.Now,
	}
}

// Start runs the loop until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.setRunning(true)
	r.logger.Info(ctx, "Board refresher started", map[string]interface{}{"interval": r.interval.String()})

	for {
		select {
		case <-ctx.Done():
			r.setRunning(false)
			r.logger.Info(ctx, "Board refresher shutting down")
			return

		case <-ticker.C:
			if !r.GetStatus().IsPaused {
				r.run(ctx)
			}

		case <-r.manualTrigger:
			r.logger.Info(ctx, "Board refresher triggered manually")
			r.run(ctx)
		}
	}
}

func (r *Refresher) run(parent context.Context) {
	ctx, span := observability.TraceWorkerFunction(parent, "refresh_board",
		attribute.String("worker.interval", r.interval.String()),
	)
	start := r.timeNow()
	err := r.loader.Load(ctx)
	finish := r.timeNow()
	observability.FinishSpan(span, &err)

	record := RunRecord{StartTime: start, EndTime: finish, Duration: finish.Sub(start), Status: "Success"}
	if err != nil {
		record.Status = "Failure"
		record.Error = err.Error()
		r.logger.Warn(ctx, "Board refresh failed, keeping previous state", map[string]interface{}{"error": err.Error()})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.LastRunStart = start
	r.status.LastRunFinish = finish
	r.status.LastRunError = record.Error
	r.status.Runs++
	r.history = append(r.history, record)
	if len(r.history) > config.RefresherMaxHistory {
		r.history = r.history[len(r.history)-config.RefresherMaxHistory:]
	}
}

// TriggerManualRun asks the loop for an immediate refresh. Extra triggers
// while one is pending are dropped.
func (r *Refresher) TriggerManualRun() {
	select {
	case r.manualTrigger <- struct{}{}:
	default:
	}
}

// Pause stops timed refreshes; manual triggers still run.
func (r *Refresher) Pause() {
	r.mu.Lock()
	r.status.IsPaused = true
	r.mu.Unlock()
}

// Resume restarts timed refreshes.
func (r *Refresher) Resume() {
	r.mu.Lock()
	r.status.IsPaused = false
	r.mu.Unlock()
}

// GetStatus returns the current refresher status
func (r *Refresher) GetStatus() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// GetHistory returns a copy of recent runs, oldest first
func (r *Refresher) GetHistory() []RunRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	history := make([]RunRecord, len(r.history))
	copy(history, r.history)
	return history
}

func (r *Refresher) setRunning(running bool) {
	r.mu.Lock()
	r.status.IsRunning = running
	r.mu.Unlock()
}
