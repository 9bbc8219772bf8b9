// Package serviceinterfaces defines the service contracts the HTTP and CLI
// layers depend on, so handlers can be tested against mocks.
package serviceinterfaces

import (
	"context"

	"github.com/wilforlan/suncture-feedback-board/internal/board"
	"github.com/wilforlan/suncture-feedback-board/internal/leaderboard"
	"github.com/wilforlan/suncture-feedback-board/internal/lifecycle"
	"github.com/wilforlan/suncture-feedback-board/internal/models"
	"github.com/wilforlan/suncture-feedback-board/internal/worker"
)

// Submission is the user-supplied part of a new feedback record.
type Submission struct {
	Severity          models.Severity      `json:"severity" validate:"required,oneof=Low Medium High Critical"`
	TestingDevice     models.TestingDevice `json:"testing_device" validate:"required,oneof=Mobile Desktop Tablet Other"`
	DefectDescription string               `json:"defect_description" validate:"required"`
	Precondition      string               `json:"precondition" validate:"required"`
	StepsToRecreate   string               `json:"steps_to_recreate" validate:"required"`
	ExpectedResult    string               `json:"expected_result" validate:"required"`
	ActualResult      string               `json:"actual_result" validate:"required"`

	Name              string `json:"name" validate:"required,max=200"`
	Email             string `json:"email" validate:"required,email"`
	PhoneNumber       string `json:"phone_number" validate:"max=50"`
	Profession        string `json:"profession" validate:"max=200"`
	Location          string `json:"location" validate:"max=200"`
	MostUsefulFeature string `json:"most_useful_feature"`
	ChatbotRating     int    `json:"chatbot_rating" validate:"omitempty,min=1,max=5"`

	ScreenshotURL      *string `json:"screenshot_url" validate:"omitempty,url"`
	ParentSerialNumber *string `json:"parent_serial_number" validate:"omitempty,max=50"`
}

// FeedbackServiceInterface covers submission and the detail view.
type FeedbackServiceInterface interface {
	SubmitFeedback(ctx context.Context, identity *models.Identity, sub Submission) (*models.FeedbackRecord, error)
	GetFeedback(ctx context.Context, id string) (*models.FeedbackRecord, error)
	ListFeedback(ctx context.Context, status *models.Status) ([]models.FeedbackRecord, error)
	ChangeStatus(ctx context.Context, id string, to models.Status) (lifecycle.Result, error)
	RelatedFeedback(ctx context.Context, serial string) ([]models.FeedbackRecord, error)
}

// BoardInterface is the board projection as seen by presentation code.
type BoardInterface interface {
	Load(ctx context.Context) error
	Snapshot() board.State
	MoveRecord(ctx context.Context, id string, from, to models.Status) (board.MoveOutcome, error)
}

// LeaderboardInterface ranks contributors.
type LeaderboardInterface interface {
	TopContributors(ctx context.Context, limit int, window leaderboard.Window) []models.LeaderboardEntry
}

// RefresherInterface controls the background board reload.
type RefresherInterface interface {
	GetStatus() worker.Status
	GetHistory() []worker.RunRecord
	TriggerManualRun()
	Pause()
	Resume()
}
