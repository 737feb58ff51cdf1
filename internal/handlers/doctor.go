package handlers

import (
	"github.com/gin-gonic/gin"

	"sovereign-health-server/internal/middleware"
	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/services"
	"sovereign-health-server/internal/utils"
)

// DoctorHandler serves doctor-facing patient lookups.
type DoctorHandler struct {
	Consents *services.ConsentService
	Profiles *services.ProfileService
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(consents *services.ConsentService, profiles *services.ProfileService) *DoctorHandler {
	return &DoctorHandler{Consents: consents, Profiles: profiles}
}

// GetConsentedPatients lists patients with a GRANTED consent to the calling doctor.
func (h *DoctorHandler) GetConsentedPatients(c *gin.Context) {
	patients, err := h.Consents.ConsentedPatients(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	sanitized := make([]models.UserSanitized, len(patients))
	for i := range patients {
		sanitized[i] = patients[i].Sanitize()
	}
	utils.Success(c, "Patients fetched successfully", sanitized)
}

// SearchPatients finds patient profiles by ?query= on name or id.
func (h *DoctorHandler) SearchPatients(c *gin.Context) {
	profiles, err := h.Profiles.SearchPatients(c.Request.Context(), middleware.GetIdentity(c), c.Query("query"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Patients fetched successfully", profiles)
}
