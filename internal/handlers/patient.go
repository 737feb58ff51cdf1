package handlers

import (
	"github.com/gin-gonic/gin"

	"sovereign-health-server/internal/middleware"
	"sovereign-health-server/internal/services"
	"sovereign-health-server/internal/utils"
)

// PatientHandler serves patient profiles and medical records.
type PatientHandler struct {
	Records  *services.RecordService
	Profiles *services.ProfileService
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(records *services.RecordService, profiles *services.ProfileService) *PatientHandler {
	return &PatientHandler{Records: records, Profiles: profiles}
}

// GetRecords returns every record of :patientId when the caller is the patient
// or a doctor holding a granted consent.
func (h *PatientHandler) GetRecords(c *gin.Context) {
	records, err := h.Records.GetRecords(c.Request.Context(), middleware.GetIdentity(c), c.Param("patientId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Medical records fetched successfully", records)
}

// UploadRecordRequest represents the request body for uploading a record reference.
type UploadRecordRequest struct {
	Title      string `json:"title" binding:"required"`
	Type       string `json:"type" binding:"required"`
	ContentRef string `json:"contentRef" binding:"required"`
}

// UploadRecord appends a record reference for :patientId.
func (h *PatientHandler) UploadRecord(c *gin.Context) {
	var req UploadRecordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	record, err := h.Records.Upload(c.Request.Context(), services.UploadRecordInput{
		PatientID:  c.Param("patientId"),
		Title:      req.Title,
		Type:       req.Type,
		ContentRef: req.ContentRef,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Medical record created successfully", record)
}

// GetProfile returns a patient's profile with its records.
func (h *PatientHandler) GetProfile(c *gin.Context) {
	profile, err := h.Profiles.GetProfile(c.Request.Context(), c.Param("patientId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Profile fetched successfully", profile)
}

// SaveProfileRequest represents the request body for the caller's own profile.
type SaveProfileRequest struct {
	Name              string `json:"name" binding:"required"`
	Age               int    `json:"age" binding:"gte=0"`
	Gender            string `json:"gender"`
	BloodGroup        string `json:"bloodGroup"`
	Allergies         string `json:"allergies"`
	ChronicConditions string `json:"chronicConditions"`
	EmergencyContact  string `json:"emergencyContact"`
}

// SaveProfile creates or updates the calling patient's profile.
func (h *PatientHandler) SaveProfile(c *gin.Context) {
	var req SaveProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	profile, err := h.Profiles.SaveProfile(c.Request.Context(), middleware.GetIdentity(c), services.ProfileInput{
		Name:              req.Name,
		Age:               req.Age,
		Gender:            req.Gender,
		BloodGroup:        req.BloodGroup,
		Allergies:         req.Allergies,
		ChronicConditions: req.ChronicConditions,
		EmergencyContact:  req.EmergencyContact,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Profile saved successfully", profile)
}
