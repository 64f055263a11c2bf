package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"medalarm-backend/internal/firing"
)

// GetPrompts returns the prompts currently firing for a user.
func (h *Handler) GetPrompts(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	prompts := h.prompts.ActiveForUser(userID)
	if prompts == nil {
		prompts = []firing.Prompt{}
	}
	c.JSON(http.StatusOK, prompts)
}

// PostDismiss dismisses a firing prompt. This ends the occurrence; the next
// scheduled firing is already armed.
func (h *Handler) PostDismiss(c *gin.Context) {
	alarmID := c.Param("alarm_id")

	if err := h.prompts.Dismiss(alarmID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// PostSnooze snoozes a firing prompt. 409 once the snooze budget is spent.
func (h *Handler) PostSnooze(c *gin.Context) {
	alarmID := c.Param("alarm_id")

	err := h.prompts.Snooze(alarmID)
	if errors.Is(err, firing.ErrSnoozeLimit) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
