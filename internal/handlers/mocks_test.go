package handlers

import (
	"context"

	"github.com/wilforlan/suncture-feedback-board/internal/board"
	"github.com/wilforlan/suncture-feedback-board/internal/leaderboard"
	"github.com/wilforlan/suncture-feedback-board/internal/lifecycle"
	"github.com/wilforlan/suncture-feedback-board/internal/models"
	serviceinterfaces "github.com/wilforlan/suncture-feedback-board/internal/serviceinterfaces"

	"github.com/stretchr/testify/mock"
)

type mockFeedbackService struct {
	mock.Mock
}

func (m *mockFeedbackService) SubmitFeedback(ctx context.Context, identity *models.Identity, sub serviceinterfaces.Submission) (*models.FeedbackRecord, error) {
	args := m.Called(ctx, identity, sub)
	if rec := args.Get(0); rec != nil {
		return rec.(*models.FeedbackRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFeedbackService) GetFeedback(ctx context.Context, id string) (*models.FeedbackRecord, error) {
	args := m.Called(ctx, id)
	if rec := args.Get(0); rec != nil {
		return rec.(*models.FeedbackRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFeedbackService) ListFeedback(ctx context.Context, status *models.Status) ([]models.FeedbackRecord, error) {
	args := m.Called(ctx, status)
	if list := args.Get(0); list != nil {
		return list.([]models.FeedbackRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFeedbackService) ChangeStatus(ctx context.Context, id string, to models.Status) (lifecycle.Result, error) {
	args := m.Called(ctx, id, to)
	return args.Get(0).(lifecycle.Result), args.Error(1)
}

func (m *mockFeedbackService) RelatedFeedback(ctx context.Context, serial string) ([]models.FeedbackRecord, error) {
	args := m.Called(ctx, serial)
	if list := args.Get(0); list != nil {
		return list.([]models.FeedbackRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockBoard struct {
	mock.Mock
}

func (m *mockBoard) Load(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockBoard) Snapshot() board.State {
	args := m.Called()
	return args.Get(0).(board.State)
}

func (m *mockBoard) MoveRecord(ctx context.Context, id string, from, to models.Status) (board.MoveOutcome, error) {
	args := m.Called(ctx, id, from, to)
	return args.Get(0).(board.MoveOutcome), args.Error(1)
}

type mockLeaderboard struct {
	mock.Mock
}

func (m *mockLeaderboard) TopContributors(ctx context.Context, limit int, window leaderboard.Window) []models.LeaderboardEntry {
	args := m.Called(ctx, limit, window)
	return args.Get(0).([]models.LeaderboardEntry)
}
