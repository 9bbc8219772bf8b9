package handlers

import (
	"net/http"
	"strings"

	"github.com/wilforlan/suncture-feedback-board/internal/middleware"
	"github.com/wilforlan/suncture-feedback-board/internal/models"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	serviceinterfaces "github.com/wilforlan/suncture-feedback-board/internal/serviceinterfaces"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"github.com/gin-gonic/gin"
)

// FeedbackHandler handles feedback submission and the detail view.
type FeedbackHandler struct {
	feedbackService serviceinterfaces.FeedbackServiceInterface
	logger          *observability.Logger
}

// NewFeedbackHandler creates a FeedbackHandler.
func NewFeedbackHandler(fs serviceinterfaces.FeedbackServiceInterface, logger *observability.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: fs, logger: logger}
}

// StatusChangeRequest is the body of PATCH /v1/feedback/:id/status.
type StatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
}

// SubmitFeedback handles POST /v1/feedback.
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_feedback")
	defer observability.FinishSpan(span, nil)

	var req serviceinterfaces.Submission
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return
	}

	identity, _ := middleware.GetIdentity(c)
	created, err := h.feedbackService.SubmitFeedback(ctx, identity, req)
	if err != nil {
		if !contextutils.IsError(err, contextutils.ErrValidationFailed) {
			h.logger.Error(ctx, "submit feedback failed", err, nil)
		}
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListFeedback handles GET /v1/feedback.
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_feedback")
	defer observability.FinishSpan(span, nil)

	status, err := ParseStatusFilter(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	list, err := h.feedbackService.ListFeedback(ctx, status)
	if err != nil {
		h.logger.Error(ctx, "list feedback failed", err, nil)
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": list, "total": len(list)})
}

// GetFeedback handles GET /v1/feedback/:id.
func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_feedback")
	defer observability.FinishSpan(span, nil)

	feedback, err := h.feedbackService.GetFeedback(ctx, c.Param("id"))
	if err != nil {
		if !contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			h.logger.Error(ctx, "get feedback failed", err, nil)
		}
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, feedback)
}

// RelatedFeedback handles GET /v1/feedback/:id/related.
func (h *FeedbackHandler) RelatedFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "related_feedback")
	defer observability.FinishSpan(span, nil)

	feedback, err := h.feedbackService.GetFeedback(ctx, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	related, err := h.feedbackService.RelatedFeedback(ctx, feedback.SerialNumber)
	if err != nil {
		h.logger.Error(ctx, "related feedback failed", err, nil)
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"serial_number":        feedback.SerialNumber,
		"parent_serial_number": feedback.ParentSerialNumber,
		"items":                related,
	})
}

// UpdateStatus handles PATCH /v1/feedback/:id/status.
func (h *FeedbackHandler) UpdateStatus(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_status")
	defer observability.FinishSpan(span, nil)

	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "status", req.Status, "status is required")
		return
	}

	result, err := h.feedbackService.ChangeStatus(ctx, c.Param("id"), models.Status(strings.TrimSpace(req.Status)))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"no_op": result.NoOp, "feedback": result.Record})
}
