package handlers

import (
	"github.com/gin-gonic/gin"

	"sovereign-health-server/internal/middleware"
	"sovereign-health-server/internal/services"
	"sovereign-health-server/internal/utils"
)

// EmergencyHandler serves the break-glass lookup and its audit trail.
type EmergencyHandler struct {
	Emergency *services.EmergencyService
}

// NewEmergencyHandler creates a new EmergencyHandler.
func NewEmergencyHandler(emergency *services.EmergencyService) *EmergencyHandler {
	return &EmergencyHandler{Emergency: emergency}
}

// EmergencyAccessRequest represents the request body for a break-glass lookup.
type EmergencyAccessRequest struct {
	TargetPatientID string `json:"targetPatientId" binding:"required"`
}

// GetEmergencyData is public: anonymous responders are served without an
// audit entry, identified callers are always logged first.
func (h *EmergencyHandler) GetEmergencyData(c *gin.Context) {
	var req EmergencyAccessRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	data, err := h.Emergency.Access(c.Request.Context(), middleware.GetIdentity(c), req.TargetPatientID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Emergency data retrieved", data)
}

// GetEmergencyLogs returns the emergency access entries visible to the caller.
func (h *EmergencyHandler) GetEmergencyLogs(c *gin.Context) {
	logs, err := h.Emergency.Logs(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Emergency access logs fetched successfully", logs)
}
