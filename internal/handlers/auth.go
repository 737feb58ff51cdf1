package handlers

import (
	"github.com/gin-gonic/gin"

	"sovereign-health-server/internal/middleware"
	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/services"
	"sovereign-health-server/internal/utils"
)

// AuthHandler handles account registration and lookup.
type AuthHandler struct {
	Auth *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	Role          string `json:"role" binding:"required,oneof=PATIENT DOCTOR RESEARCHER PHARMA"`
}

// RegisterResponse reports whether the account already existed.
type RegisterResponse struct {
	Status string               `json:"status"`
	User   models.UserSanitized `json:"user"`
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	status, user, err := h.Auth.Register(c.Request.Context(), req.WalletAddress, models.Role(req.Role))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	resp := RegisterResponse{Status: status, User: user.Sanitize()}
	if status == services.RegisterStatusCreated {
		utils.Created(c, "User registered successfully", resp)
		return
	}
	utils.Success(c, "User already registered", resp)
}

// Me returns the caller's account.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.Auth.Me(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Profile fetched successfully", user.Sanitize())
}
