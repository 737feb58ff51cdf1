package services

import (
	"context"
	"errors"
	"strings"

	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/repository"
)

// ProfileInput holds the editable fields of a patient profile.
type ProfileInput struct {
	Name              string
	Age               int
	Gender            string
	BloodGroup        string
	Allergies         string
	ChronicConditions string
	EmergencyContact  string
}

// ProfileService manages patient health summaries.
type ProfileService struct {
	profiles ProfileRepository
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profiles ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// GetProfile returns the patient's profile with its record references.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.PatientProfile, error) {
	profile, err := s.profiles.FindPatientProfileWithRecords(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newNotFound("Profile not found")
	}
	if err != nil {
		return nil, newInternal(err)
	}
	return profile, nil
}

// SaveProfile creates or replaces the calling patient's own profile.
func (s *ProfileService) SaveProfile(ctx context.Context, caller Identity, in ProfileInput) (*models.PatientProfile, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	if caller.Role != models.RolePatient {
		return nil, newForbidden("Only patients can edit a patient profile.")
	}
	if in.Age < 0 {
		return nil, newValidation("age must not be negative")
	}

	profile := &models.PatientProfile{
		UserID:            caller.ID,
		Name:              strings.TrimSpace(in.Name),
		Age:               in.Age,
		Gender:            in.Gender,
		BloodGroup:        in.BloodGroup,
		Allergies:         in.Allergies,
		ChronicConditions: in.ChronicConditions,
		EmergencyContact:  in.EmergencyContact,
	}
	if err := s.profiles.SavePatientProfile(ctx, profile); err != nil {
		return nil, newInternal(err)
	}

	saved, err := s.profiles.FindPatientProfile(ctx, caller.ID)
	if err != nil {
		return nil, newInternal(err)
	}
	return saved, nil
}

// SearchPatients finds profiles by name or id fragment. Doctors only; the
// records themselves stay consent-gated.
func (s *ProfileService) SearchPatients(ctx context.Context, caller Identity, query string) ([]models.PatientProfile, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	if caller.Role != models.RoleDoctor {
		return nil, newForbidden("Restricted to Doctors.")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.PatientProfile{}, nil
	}
	profiles, err := s.profiles.SearchPatientProfiles(ctx, query)
	if err != nil {
		return nil, newInternal(err)
	}
	return profiles, nil
}
