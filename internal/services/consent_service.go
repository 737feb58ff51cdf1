package services

import (
	"context"
	"errors"

	"sovereign-health-server/internal/logger"
	"sovereign-health-server/internal/metrics"
	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/repository"
)

// ConsentService owns every mutation of consent rows.
type ConsentService struct {
	consents ConsentRepository
	users    UserRepository
	log      *logger.Logger
	metrics  *metrics.Metrics

	// When set, revoking a pair that was never granted succeeds with a nil
	// consent instead of failing with NotFound.
	revokeMissingIsNoop bool
}

// NewConsentService creates a new ConsentService.
func NewConsentService(consents ConsentRepository, users UserRepository, log *logger.Logger, m *metrics.Metrics, revokeMissingIsNoop bool) *ConsentService {
	return &ConsentService{
		consents:            consents,
		users:               users,
		log:                 log,
		metrics:             m,
		revokeMissingIsNoop: revokeMissingIsNoop,
	}
}

// checkSelf enforces that only the patient themself manages their consents.
func checkSelf(caller Identity, patientID, action string) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	if caller.Role != models.RolePatient {
		return newForbidden("Only patients can " + action + " consent.")
	}
	if caller.ID != patientID {
		return newForbidden("Patients may only " + action + " their own consent.")
	}
	return nil
}

// Grant upserts the (patientID, doctorID) consent to GRANTED. Granting twice
// keeps one row and refreshes its timestamp.
func (s *ConsentService) Grant(ctx context.Context, caller Identity, patientID, doctorID string) (*models.Consent, error) {
	if err := checkSelf(caller, patientID, "grant"); err != nil {
		s.log.Security("consent_grant_denied", caller.ID, map[string]interface{}{"patient_id": patientID, "doctor_id": doctorID})
		return nil, err
	}
	if doctorID == "" {
		return nil, newValidation("doctorId is required")
	}

	doctor, err := s.users.FindByID(ctx, doctorID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && doctor.Role != models.RoleDoctor) {
		return nil, newNotFound("Doctor not found")
	}
	if err != nil {
		return nil, newInternal(err)
	}

	consent, err := s.consents.Upsert(ctx, patientID, doctorID, models.ConsentGranted)
	if err != nil {
		return nil, newInternal(err)
	}

	s.metrics.RecordConsentChange(string(models.ConsentGranted))
	s.log.Audit(caller.ID, "consent.grant", "consent", true, map[string]interface{}{"doctor_id": doctorID})
	return consent, nil
}

// Revoke flips an existing consent to REVOKED. The row is kept.
func (s *ConsentService) Revoke(ctx context.Context, caller Identity, patientID, doctorID string) (*models.Consent, error) {
	if err := checkSelf(caller, patientID, "revoke"); err != nil {
		s.log.Security("consent_revoke_denied", caller.ID, map[string]interface{}{"patient_id": patientID, "doctor_id": doctorID})
		return nil, err
	}

	consent, err := s.consents.UpdateStatus(ctx, patientID, doctorID, models.ConsentRevoked)
	if errors.Is(err, repository.ErrNotFound) {
		if s.revokeMissingIsNoop {
			return nil, nil
		}
		return nil, newNotFound("No consent exists for this doctor")
	}
	if err != nil {
		return nil, newInternal(err)
	}

	s.metrics.RecordConsentChange(string(models.ConsentRevoked))
	s.log.Audit(caller.ID, "consent.revoke", "consent", true, map[string]interface{}{"doctor_id": doctorID})
	return consent, nil
}

// List returns the patient's consents with each doctor's public profile.
func (s *ConsentService) List(ctx context.Context, caller Identity, patientID string) ([]models.Consent, error) {
	if err := checkSelf(caller, patientID, "view"); err != nil {
		return nil, err
	}
	consents, err := s.consents.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, newInternal(err)
	}
	return consents, nil
}

// ConsentedPatients lists the patients currently granting the calling doctor access.
func (s *ConsentService) ConsentedPatients(ctx context.Context, caller Identity) ([]models.User, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	if caller.Role != models.RoleDoctor {
		return nil, newForbidden("Restricted to Doctors.")
	}

	consents, err := s.consents.ListGrantedByDoctor(ctx, caller.ID)
	if err != nil {
		return nil, newInternal(err)
	}

	patients := make([]models.User, 0, len(consents))
	for _, c := range consents {
		if c.Patient != nil {
			patients = append(patients, *c.Patient)
		} else {
			patients = append(patients, models.User{BaseModel: models.BaseModel{ID: c.PatientID}, Role: models.RolePatient})
		}
	}
	return patients, nil
}
