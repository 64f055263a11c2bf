package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medalarm-backend/internal/lifecycle"
)

// PostBoot injects a device-boot event. The reschedule runs on the boot
// receiver's goroutine; the request returns as soon as the event is queued.
func (h *Handler) PostBoot(c *gin.Context) {
	var ev lifecycle.BootEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ev.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	h.boot.Notify(ev)
	c.Status(http.StatusAccepted)
}
