package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wilforlan/suncture-feedback-board/internal/lifecycle"
	"github.com/wilforlan/suncture-feedback-board/internal/models"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	"github.com/wilforlan/suncture-feedback-board/internal/serial"
	serviceinterfaces "github.com/wilforlan/suncture-feedback-board/internal/serviceinterfaces"
	"github.com/wilforlan/suncture-feedback-board/internal/store"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRecordStore struct {
	mock.Mock
}

func (m *mockRecordStore) Insert(ctx context.Context, record *models.FeedbackRecord) (string, error) {
	args := m.Called(ctx, record)
	id := args.String(0)
	if args.Error(1) == nil {
		record.ID = id
	}
	return id, args.Error(1)
}

func (m *mockRecordStore) Update(ctx context.Context, id string, patch store.Patch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *mockRecordStore) List(ctx context.Context, filter store.ListFilter) ([]models.FeedbackRecord, error) {
	args := m.Called(ctx, filter)
	if list := args.Get(0); list != nil {
		return list.([]models.FeedbackRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRecordStore) GetByID(ctx context.Context, id string) (*models.FeedbackRecord, error) {
	args := m.Called(ctx, id)
	if rec := args.Get(0); rec != nil {
		return rec.(*models.FeedbackRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRecordStore) LatestSerial(ctx context.Context) (*string, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*string), args.Error(1)
	}
	return nil, args.Error(1)
}

type recordingObserver struct {
	records []models.FeedbackRecord
}

func (o *recordingObserver) Upsert(r models.FeedbackRecord) {
	o.records = append(o.records, r)
}

var submittedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestFeedbackService(ms *mockRecordStore) *FeedbackService {
	logger := observability.NewNopLogger()
	s := NewFeedbackService(ms, serial.NewAllocator(ms, "BUG", logger), lifecycle.NewEngine(ms, logger), logger)
	s.now = func() time.Time { return submittedAt }
	return s
}

func validSubmission() serviceinterfaces.Submission {
	return serviceinterfaces.Submission{
		Severity:          models.SeverityHigh,
		TestingDevice:     models.DeviceMobile,
		DefectDescription: "Crash on login",
		Precondition:      "Fresh install",
		StepsToRecreate:   "Open app, tap login",
		ExpectedResult:    "Login screen",
		ActualResult:      "App closes",
		Name:              "Grace Hopper",
		Email:             " grace@example.com ",
		ChatbotRating:     4,
	}
}

func TestSubmitFeedback(t *testing.T) {
	ms := new(mockRecordStore)
	ms.On("LatestSerial", mock.Anything).Return(models.StringPtr("BUG-041"), nil).Once()
	ms.On("Insert", mock.Anything, mock.MatchedBy(func(r *models.FeedbackRecord) bool {
		return r.SerialNumber == "BUG-042" && r.Status == models.StatusOpen && r.RefixCount == 0 &&
			r.CreatedBy != nil && *r.CreatedBy == "user-7" && r.CreatedAt.Equal(submittedAt) &&
			r.Email == "grace@example.com"
	})).Return("new-id", nil).Once()

	svc := newTestFeedbackService(ms)
	seen := &recordingObserver{}
	svc.Observe(seen)
	got, err := svc.SubmitFeedback(context.Background(), &models.Identity{ID: "user-7", Email: "g@x.io"}, validSubmission())

	require.NoError(t, err)
	assert.Equal(t, "new-id", got.ID)
	assert.Equal(t, "BUG-042", got.SerialNumber)
	require.Len(t, seen.records, 1)
	assert.Equal(t, "new-id", seen.records[0].ID)
	ms.AssertExpectations(t)
}

func TestSubmitFeedback_Anonymous(t *testing.T) {
	ms := new(mockRecordStore)
	ms.On("LatestSerial", mock.Anything).Return(nil, nil).Once()
	ms.On("Insert", mock.Anything, mock.MatchedBy(func(r *models.FeedbackRecord) bool {
		return r.CreatedBy == nil && r.SerialNumber == "BUG-001"
	})).Return("anon-id", nil).Once()

	got, err := newTestFeedbackService(ms).SubmitFeedback(context.Background(), nil, validSubmission())

	require.NoError(t, err)
	assert.Nil(t, got.CreatedBy)
	ms.AssertExpectations(t)
}

func TestSubmitFeedback_SerialReadFailureUsesFallback(t *testing.T) {
	ms := new(mockRecordStore)
	ms.On("LatestSerial", mock.Anything).Return(nil, errors.New("timeout")).Once()
	ms.On("Insert", mock.Anything, mock.MatchedBy(func(r *models.FeedbackRecord) bool {
		return r.SerialNumber == "BUG-001"
	})).Return("id", nil).Once()

	_, err := newTestFeedbackService(ms).SubmitFeedback(context.Background(), nil, validSubmission())

	require.NoError(t, err)
	ms.AssertExpectations(t)
}

func TestSubmitFeedback_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*serviceinterfaces.Submission)
		field  string
	}{
		{"missing description", func(s *serviceinterfaces.Submission) { s.DefectDescription = "" }, "DefectDescription"},
		{"bad severity", func(s *serviceinterfaces.Submission) { s.Severity = "Urgent" }, "Severity"},
		{"bad device", func(s *serviceinterfaces.Submission) { s.TestingDevice = "Watch" }, "TestingDevice"},
		{"bad email", func(s *serviceinterfaces.Submission) { s.Email = "not-an-email" }, "Email"},
		{"rating too high", func(s *serviceinterfaces.Submission) { s.ChatbotRating = 6 }, "ChatbotRating"},
		{"bad screenshot url", func(s *serviceinterfaces.Submission) { s.ScreenshotURL = models.StringPtr("::nope") }, "ScreenshotURL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := new(mockRecordStore)
			sub := validSubmission()
			tt.mutate(&sub)

			_, err := newTestFeedbackService(ms).SubmitFeedback(context.Background(), nil, sub)

			require.Error(t, err)
			assert.True(t, contextutils.IsError(err, contextutils.ErrValidationFailed))
			assert.Contains(t, err.Error(), tt.field)
			ms.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitFeedback_InsertFailure(t *testing.T) {
	ms := new(mockRecordStore)
	ms.On("LatestSerial", mock.Anything).Return(nil, nil).Once()
	ms.On("Insert", mock.Anything, mock.Anything).Return("", errors.New("disk full")).Once()

	_, err := newTestFeedbackService(ms).SubmitFeedback(context.Background(), nil, validSubmission())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to submit feedback")
}

func TestGetFeedback(t *testing.T) {
	ms := new(mockRecordStore)
	rec := &models.FeedbackRecord{ID: "a", SerialNumber: "BUG-001"}
	ms.On("GetByID", mock.Anything, "a").Return(rec, nil).Once()
	ms.On("GetByID", mock.Anything, "b").Return(nil, nil).Once()

	svc := newTestFeedbackService(ms)
	got, err := svc.GetFeedback(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "BUG-001", got.SerialNumber)

	_, err = svc.GetFeedback(context.Background(), "b")
	assert.True(t, contextutils.IsError(err, contextutils.ErrRecordNotFound))
}

func TestListFeedback(t *testing.T) {
	ms := new(mockRecordStore)
	done := models.StatusDone
	ms.On("List", mock.Anything, store.ListFilter{Status: &done}).
		Return([]models.FeedbackRecord{{ID: "x", Status: models.StatusDone}}, nil).Once()

	svc := newTestFeedbackService(ms)
	got, err := svc.ListFeedback(context.Background(), &done)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	bad := models.Status("closed")
	_, err = svc.ListFeedback(context.Background(), &bad)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidStatus))
	ms.AssertExpectations(t)
}

func TestChangeStatus(t *testing.T) {
	ms := new(mockRecordStore)
	ms.On("GetByID", mock.Anything, "a").Return(&models.FeedbackRecord{ID: "a", Status: models.StatusDone, RefixCount: 1}, nil).Once()
	ms.On("Update", mock.Anything, "a", mock.MatchedBy(func(p store.Patch) bool {
		return *p.Status == models.StatusNeedsRefix && p.IncrementRefix
	})).Return(nil).Once()
	ms.On("GetByID", mock.Anything, "a").Return(&models.FeedbackRecord{ID: "a", Status: models.StatusNeedsRefix, RefixCount: 2}, nil).Once()

	svc := newTestFeedbackService(ms)
	seen := &recordingObserver{}
	svc.Observe(seen)
	res, err := svc.ChangeStatus(context.Background(), "a", models.StatusNeedsRefix)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Record.RefixCount)
	require.Len(t, seen.records, 1)
	assert.Equal(t, models.StatusNeedsRefix, seen.records[0].Status)
	ms.AssertExpectations(t)
}

func TestChangeStatus_NoOpAndFailureNotPublished(t *testing.T) {
	ms := new(mockRecordStore)
	ms.On("GetByID", mock.Anything, "a").Return(&models.FeedbackRecord{ID: "a", Status: models.StatusDone}, nil).Twice()
	ms.On("Update", mock.Anything, "a", mock.Anything).Return(errors.New("reset")).Once()

	svc := newTestFeedbackService(ms)
	seen := &recordingObserver{}
	svc.Observe(seen)

	res, err := svc.ChangeStatus(context.Background(), "a", models.StatusDone)
	require.NoError(t, err)
	assert.True(t, res.NoOp)

	_, err = svc.ChangeStatus(context.Background(), "a", models.StatusOpen)
	require.Error(t, err)
	assert.Empty(t, seen.records)
}

func TestRelatedFeedback(t *testing.T) {
	ms := new(mockRecordStore)
	ms.On("List", mock.Anything, mock.MatchedBy(func(f store.ListFilter) bool {
		return f.ParentSerial != nil && *f.ParentSerial == "BUG-010"
	})).Return([]models.FeedbackRecord{{ID: "child", SerialNumber: "BUG-011"}}, nil).Once()

	svc := newTestFeedbackService(ms)
	got, err := svc.RelatedFeedback(context.Background(), " BUG-010 ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BUG-011", got[0].SerialNumber)

	_, err = svc.RelatedFeedback(context.Background(), "  ")
	assert.True(t, contextutils.IsError(err, contextutils.ErrMissingRequired))
}
