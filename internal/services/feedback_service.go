package services

import (
	"context"
	"strings"
	"time"

	"github.com/wilforlan/suncture-feedback-board/internal/lifecycle"
	"github.com/wilforlan/suncture-feedback-board/internal/models"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	"github.com/wilforlan/suncture-feedback-board/internal/serial"
	serviceinterfaces "github.com/wilforlan/suncture-feedback-board/internal/serviceinterfaces"
	"github.com/wilforlan/suncture-feedback-board/internal/store"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"
)

// RecordObserver is told about every record the service creates or changes.
type RecordObserver interface {
	Upsert(record models.FeedbackRecord)
}

// FeedbackService implements FeedbackServiceInterface on top of a RecordStore.
type FeedbackService struct {
	store     store.RecordStore
	allocator *serial.Allocator
	engine    *lifecycle.Engine
	logger    *observability.Logger
	now       func() time.Time
	observers []RecordObserver
}

var _ serviceinterfaces.FeedbackServiceInterface = (*FeedbackService)(nil)

// NewFeedbackService creates a new FeedbackService instance.
func NewFeedbackService(s store.RecordStore, allocator *serial.Allocator, engine *lifecycle.Engine, logger *observability.Logger) *FeedbackService {
	if s == nil {
		panic("NewFeedbackService: store is nil")
	}
	if allocator == nil {
		panic("NewFeedbackService: allocator is nil")
	}
	if engine == nil {
		panic("NewFeedbackService: engine is nil")
	}
	if logger == nil {
		panic("NewFeedbackService: logger is nil")
	}
	return &FeedbackService{store: s, allocator: allocator, engine: engine, logger: logger, now: time.Now}
}

// Observe registers o for submitted and re-statused records. It must be
// called before the service is shared.
func (s *FeedbackService) Observe(o RecordObserver) {
	if o != nil {
		s.observers = append(s.observers, o)
	}
}

func (s *FeedbackService) publish(record models.FeedbackRecord) {
	for _, o := range s.observers {
		o.Upsert(record)
	}
}

// SubmitFeedback validates sub, allocates a serial and stores a new open
// record. identity may be nil for anonymous submissions.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, identity *models.Identity, sub serviceinterfaces.Submission) (result0 *models.FeedbackRecord, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "submit_feedback")
	defer observability.FinishSpan(span, &err)

	sub.Email = strings.TrimSpace(sub.Email)
	if err := contextutils.ValidateStruct(sub); err != nil {
		return nil, err
	}

	// A failed read still yields PREFIX-001; submission goes ahead with it.
	serialNumber, serr := s.allocator.Next(ctx)
	if serr != nil {
		s.logger.Warn(ctx, "submitting with fallback serial", map[string]interface{}{"serial": serialNumber})
	}

	record := &models.FeedbackRecord{
		SerialNumber:       serialNumber,
		Severity:           sub.Severity,
		TestingDevice:      sub.TestingDevice,
		DefectDescription:  sub.DefectDescription,
		Precondition:       sub.Precondition,
		StepsToRecreate:    sub.StepsToRecreate,
		ExpectedResult:     sub.ExpectedResult,
		ActualResult:       sub.ActualResult,
		Name:               sub.Name,
		Email:              sub.Email,
		PhoneNumber:        sub.PhoneNumber,
		Profession:         sub.Profession,
		Location:           sub.Location,
		MostUsefulFeature:  sub.MostUsefulFeature,
		ChatbotRating:      sub.ChatbotRating,
		ScreenshotURL:      sub.ScreenshotURL,
		ParentSerialNumber: sub.ParentSerialNumber,
		Status:             models.StatusOpen,
		RefixCount:         0,
		CreatedAt:          s.now().UTC(),
	}
	if identity != nil && identity.ID != "" {
		record.CreatedBy = models.StringPtr(identity.ID)
		span.SetAttributes(observability.AttributeUserID(identity.ID))
	}

	if _, err := s.store.Insert(ctx, record); err != nil {
		return nil, contextutils.WrapError(err, "failed to submit feedback")
	}

	span.SetAttributes(observability.AttributeSerial(record.SerialNumber))
	s.logger.Info(ctx, "feedback submitted", map[string]interface{}{
		"feedback_id": record.ID,
		"serial":      record.SerialNumber,
		"severity":    string(record.Severity),
		"anonymous":   record.CreatedBy == nil,
	})
	s.publish(*record)
	return record, nil
}

// GetFeedback fetches a single record.
func (s *FeedbackService) GetFeedback(ctx context.Context, id string) (result0 *models.FeedbackRecord, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "get_feedback", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get feedback")
	}
	if record == nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "feedback with ID %s not found", id)
	}
	return record, nil
}

// ListFeedback returns records newest first, optionally in one status.
func (s *FeedbackService) ListFeedback(ctx context.Context, status *models.Status) (result0 []models.FeedbackRecord, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "list_feedback")
	defer observability.FinishSpan(span, &err)

	if status != nil {
		if !status.IsValid() {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidStatus, "unknown status %q", *status)
		}
		span.SetAttributes(observability.AttributeStatus("filter", string(*status)))
	}

	list, err := s.store.List(ctx, store.ListFilter{Status: status})
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list feedback")
	}
	return list, nil
}

// ChangeStatus moves one record to a new status from the detail view.
func (s *FeedbackService) ChangeStatus(ctx context.Context, id string, to models.Status) (result0 lifecycle.Result, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "change_status",
		observability.AttributeFeedbackID(id),
		observability.AttributeStatus("to", string(to)),
	)
	defer observability.FinishSpan(span, &err)

	result, err := s.engine.Transition(ctx, id, to)
	if err != nil {
		return lifecycle.Result{}, err
	}
	if !result.NoOp {
		s.publish(result.Record)
	}
	return result, nil
}

// RelatedFeedback returns records filed as follow-ups of serial.
func (s *FeedbackService) RelatedFeedback(ctx context.Context, serialNumber string) (result0 []models.FeedbackRecord, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "related_feedback", observability.AttributeSerial(serialNumber))
	defer observability.FinishSpan(span, &err)

	serialNumber = strings.TrimSpace(serialNumber)
	if serialNumber == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "serial number is required")
	}
	list, err := s.store.List(ctx, store.ListFilter{ParentSerial: &serialNumber})
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list related feedback")
	}
	return list, nil
}
