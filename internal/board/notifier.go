package board

import (
	"context"
	"strings"

	"github.com/wilforlan/suncture-feedback-board/internal/models"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
)

// Notice is a short user-facing message about a move.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Destructive bool   `json:"destructive,omitempty"`
}

// Notifier delivers notices to whoever is watching the board.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// LogNotifier writes notices to the structured log.
type LogNotifier struct {
	logger *observability.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *observability.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n at info, or warn when destructive.
func (l *LogNotifier) Notify(ctx context.Context, n Notice) {
	fields := map[string]interface{}{"title": n.Title, "description": n.Description}
	if n.Destructive {
		l.logger.Warn(ctx, "board notice", fields)
		return
	}
	l.logger.Info(ctx, "board notice", fields)
}

func appliedNotice(to models.Status) Notice {
	return Notice{
		Title:       "Status updated",
		Description: "Feedback moved to " + strings.ReplaceAll(string(to), "_", " "),
	}
}

func failedNotice() Notice {
	return Notice{
		Title:       "Error updating status",
		Description: "Failed to update feedback status. Please try again.",
		Destructive: true,
	}
}
