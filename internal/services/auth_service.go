package services

import (
	"context"
	"errors"
	"strings"

	"sovereign-health-server/internal/logger"
	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/repository"
)

// Registration outcomes.
const (
	RegisterStatusExists  = "EXISTS"
	RegisterStatusCreated = "CREATED"
)

// AuthService registers wallet-backed accounts. Credentials are issued
// elsewhere; this only records who exists and with which role.
type AuthService struct {
	users UserRepository
	log   *logger.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserRepository, log *logger.Logger) *AuthService {
	return &AuthService{users: users, log: log}
}

// Register returns the existing account for walletAddress, or creates one with
// a placeholder profile for patients and doctors.
func (s *AuthService) Register(ctx context.Context, walletAddress string, role models.Role) (string, *models.User, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return "", nil, newValidation("walletAddress is required")
	}
	if !role.Valid() {
		return "", nil, newValidation("role must be one of PATIENT, DOCTOR, RESEARCHER, PHARMA")
	}

	existing, err := s.users.FindByWallet(ctx, walletAddress)
	if err == nil {
		return RegisterStatusExists, existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", nil, newInternal(err)
	}

	user := &models.User{WalletAddress: walletAddress, Role: role}
	switch role {
	case models.RolePatient:
		user.PatientProfile = &models.PatientProfile{
			Name:             "New Patient",
			Gender:           "Unknown",
			BloodGroup:       "Unknown",
			Allergies:        "None",
			EmergencyContact: "None",
		}
	case models.RoleDoctor:
		user.DoctorProfile = &models.DoctorProfile{
			Name:           "New Doctor",
			Specialization: "General",
			LicenseNumber:  "PENDING",
			Hospital:       "Clinic",
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		return "", nil, newInternal(err)
	}

	s.log.Audit(user.ID, "auth.register", "user", true, map[string]interface{}{"role": role})
	return RegisterStatusCreated, user, nil
}

// Me returns the caller's account with profiles.
func (s *AuthService) Me(ctx context.Context, caller Identity) (*models.User, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, caller.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newNotFound("User not found")
	}
	if err != nil {
		return nil, newInternal(err)
	}
	return user, nil
}
