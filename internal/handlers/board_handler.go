package handlers

import (
	"net/http"

	"github.com/wilforlan/suncture-feedback-board/internal/board"
	"github.com/wilforlan/suncture-feedback-board/internal/models"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	serviceinterfaces "github.com/wilforlan/suncture-feedback-board/internal/serviceinterfaces"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"github.com/gin-gonic/gin"
)

// BoardHandler exposes the status board.
type BoardHandler struct {
	board  serviceinterfaces.BoardInterface
	logger *observability.Logger
}

// NewBoardHandler creates a BoardHandler.
func NewBoardHandler(b serviceinterfaces.BoardInterface, logger *observability.Logger) *BoardHandler {
	return &BoardHandler{board: b, logger: logger}
}

// MoveRequest is the body of POST /v1/board/moves.
type MoveRequest struct {
	ID   string `json:"id" binding:"required"`
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// GetBoard handles GET /v1/board. The board is rebuilt from the store first
// so writes from other processes show up; a failed rebuild serves the last
// projection.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_board")
	defer observability.FinishSpan(span, nil)

	if err := h.board.Load(ctx); err != nil {
		h.logger.Warn(ctx, "serving last board projection", map[string]interface{}{"error": err.Error()})
	}
	c.JSON(http.StatusOK, h.board.Snapshot())
}

// Refresh handles POST /v1/board/refresh.
func (h *BoardHandler) Refresh(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "refresh_board")
	defer observability.FinishSpan(span, nil)

	if err := h.board.Load(ctx); err != nil {
		h.logger.Error(ctx, "board refresh failed", err, nil)
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.board.Snapshot())
}

// MoveRecord handles POST /v1/board/moves.
func (h *BoardHandler) MoveRecord(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "move_record")
	defer observability.FinishSpan(span, nil)

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"id, from and to are required",
			err,
		))
		return
	}

	outcome, err := h.board.MoveRecord(ctx, req.ID, models.Status(req.From), models.Status(req.To))
	switch {
	case err != nil:
		HandleAppError(c, err)
	case outcome == board.OutcomeBusy:
		HandleAppError(c, contextutils.WrapErrorf(contextutils.ErrMoveInFlight, "feedback %s is already being moved", req.ID))
	default:
		c.JSON(http.StatusOK, gin.H{"outcome": outcome, "board": h.board.Snapshot()})
	}
}
