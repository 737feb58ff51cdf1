package handlers

import (
	"github.com/gin-gonic/gin"

	"sovereign-health-server/internal/middleware"
	"sovereign-health-server/internal/services"
	"sovereign-health-server/internal/utils"
)

// ConsentHandler exposes the patient's consent operations. The patient is
// always the caller.
type ConsentHandler struct {
	Consents *services.ConsentService
}

// NewConsentHandler creates a new ConsentHandler.
func NewConsentHandler(consents *services.ConsentService) *ConsentHandler {
	return &ConsentHandler{Consents: consents}
}

// GiveConsentRequest represents the request body for granting consent.
type GiveConsentRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
}

// GiveConsent grants the doctor access to the caller's records.
func (h *ConsentHandler) GiveConsent(c *gin.Context) {
	var req GiveConsentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	caller := middleware.GetIdentity(c)
	consent, err := h.Consents.Grant(c.Request.Context(), caller, caller.ID, req.DoctorID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Consent granted", consent)
}

// RevokeConsent revokes the caller's consent for :doctorId.
func (h *ConsentHandler) RevokeConsent(c *gin.Context) {
	caller := middleware.GetIdentity(c)
	consent, err := h.Consents.Revoke(c.Request.Context(), caller, caller.ID, c.Param("doctorId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if consent == nil {
		utils.Success(c, "No consent to revoke", nil)
		return
	}
	utils.Success(c, "Consent revoked", consent)
}

// GetConsents lists the caller's consents with doctor details.
func (h *ConsentHandler) GetConsents(c *gin.Context) {
	caller := middleware.GetIdentity(c)
	consents, err := h.Consents.List(c.Request.Context(), caller, caller.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Consents fetched successfully", consents)
}
