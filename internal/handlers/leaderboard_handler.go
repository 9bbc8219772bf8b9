package handlers

import (
	"net/http"

	"github.com/wilforlan/suncture-feedback-board/internal/config"
	"github.com/wilforlan/suncture-feedback-board/internal/leaderboard"
	serviceinterfaces "github.com/wilforlan/suncture-feedback-board/internal/serviceinterfaces"

	"github.com/gin-gonic/gin"
)

const maxLeaderboardLimit = 100

// LeaderboardHandler serves contributor rankings.
type LeaderboardHandler struct {
	aggregator serviceinterfaces.LeaderboardInterface
	cfg        config.FeedbackConfig
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(a serviceinterfaces.LeaderboardInterface, cfg config.FeedbackConfig) *LeaderboardHandler {
	return &LeaderboardHandler{aggregator: a, cfg: cfg}
}

// GetLeaderboard handles GET /v1/leaderboard.
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	limit := ParseLimit(c, "limit", h.cfg.LeaderboardLimit, maxLeaderboardLimit)

	window, err := leaderboard.ParseWindow(c.DefaultQuery("window", h.cfg.LeaderboardWindow))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	entries := h.aggregator.TopContributors(c.Request.Context(), limit, window)
	c.JSON(http.StatusOK, gin.H{"window": window, "limit": limit, "entries": entries})
}
