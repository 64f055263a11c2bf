package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"medalarm-backend/internal/lifecycle"
	"medalarm-backend/internal/registry"
)

// PostMedicine runs the setup flow: persist the medicine, create its alarms
// and arm their wake timers. A partially saved schedule still comes back as
// 201, with mismatching alarms_requested/alarms_saved counts.
func (h *Handler) PostMedicine(c *gin.Context) {
	var req lifecycle.SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.lifecycle.SetupMedicine(c.Request.Context(), req)
	if errors.Is(err, lifecycle.ErrInvalidSetup) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetMedicines lists the caller's active medicines, newest first.
func (h *Handler) GetMedicines(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	medicines, err := h.registry.ListActiveMedicinesForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, medicines)
}

// DeleteMedicine soft-deletes a medicine, its alarms, and their timers.
func (h *Handler) DeleteMedicine(c *gin.Context) {
	medicineID := c.Param("id")

	err := h.lifecycle.DeleteMedicine(c.Request.Context(), medicineID)
	if errors.Is(err, registry.ErrMedicineNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "medicine not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
