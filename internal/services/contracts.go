package services

import (
	"context"

	"sovereign-health-server/internal/models"
)

// Repositories return repository.ErrNotFound when a single-row lookup misses.

// ConsentRepository persists consents keyed by (patient, doctor).
type ConsentRepository interface {
	// Upsert atomically creates or updates the pair's row to status.
	Upsert(ctx context.Context, patientID, doctorID string, status models.ConsentStatus) (*models.Consent, error)
	FindByPair(ctx context.Context, patientID, doctorID string) (*models.Consent, error)
	UpdateStatus(ctx context.Context, patientID, doctorID string, status models.ConsentStatus) (*models.Consent, error)
	// ListByPatient preloads each consent's doctor and doctor profile.
	ListByPatient(ctx context.Context, patientID string) ([]models.Consent, error)
	// ListGrantedByDoctor preloads each consent's patient and patient profile.
	ListGrantedByDoctor(ctx context.Context, doctorID string) ([]models.Consent, error)
}

// RecordRepository is append-only storage for medical record references.
type RecordRepository interface {
	Create(ctx context.Context, record *models.MedicalRecord) error
	ListByPatient(ctx context.Context, patientID string) ([]models.MedicalRecord, error)
}

// ProfileRepository stores patient health summaries.
type ProfileRepository interface {
	FindPatientProfile(ctx context.Context, userID string) (*models.PatientProfile, error)
	FindPatientProfileWithRecords(ctx context.Context, userID string) (*models.PatientProfile, error)
	SavePatientProfile(ctx context.Context, profile *models.PatientProfile) error
	SearchPatientProfiles(ctx context.Context, query string) ([]models.PatientProfile, error)
}

// AuditRepository is the append-only emergency access log.
type AuditRepository interface {
	Append(ctx context.Context, entry *models.EmergencyAccessLog) error
	// List methods return entries newest first.
	ListAll(ctx context.Context) ([]models.EmergencyAccessLog, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.EmergencyAccessLog, error)
	ListByAccessor(ctx context.Context, userID string) ([]models.EmergencyAccessLog, error)
}

// UserRepository stores platform accounts.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByWallet(ctx context.Context, walletAddress string) (*models.User, error)
	// Create inserts the user together with any attached profile.
	Create(ctx context.Context, user *models.User) error
}
