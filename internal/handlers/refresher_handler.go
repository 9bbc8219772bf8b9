package handlers

import (
	"net/http"

	serviceinterfaces "github.com/wilforlan/suncture-feedback-board/internal/serviceinterfaces"

	"github.com/gin-gonic/gin"
)

// RefresherHandler exposes the background board refresher.
type RefresherHandler struct {
	refresher serviceinterfaces.RefresherInterface
}

// NewRefresherHandler creates a RefresherHandler.
func NewRefresherHandler(r serviceinterfaces.RefresherInterface) *RefresherHandler {
	return &RefresherHandler{refresher: r}
}

// GetStatus handles GET /v1/board/refresher.
func (h *RefresherHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  h.refresher.GetStatus(),
		"history": h.refresher.GetHistory(),
	})
}

// Trigger handles POST /v1/board/refresher/run.
func (h *RefresherHandler) Trigger(c *gin.Context) {
	h.refresher.TriggerManualRun()
	c.JSON(http.StatusAccepted, gin.H{"status": h.refresher.GetStatus()})
}

// Pause handles POST /v1/board/refresher/pause.
func (h *RefresherHandler) Pause(c *gin.Context) {
	h.refresher.Pause()
	c.JSON(http.StatusOK, gin.H{"status": h.refresher.GetStatus()})
}

// Resume handles POST /v1/board/refresher/resume.
func (h *RefresherHandler) Resume(c *gin.Context) {
	h.refresher.Resume()
	c.JSON(http.StatusOK, gin.H{"status": h.refresher.GetStatus()})
}
