package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAlarms lists the caller's active alarms, ordered by hour then minute.
func (h *Handler) GetAlarms(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	alarms, err := h.registry.ListActiveAlarmsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, alarms)
}
