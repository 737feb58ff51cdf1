package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sovereign-health-server/internal/models"
)

// ConsentRepository stores consents in the consents table.
type ConsentRepository struct {
	DB *gorm.DB
}

// NewConsentRepository creates a new ConsentRepository.
func NewConsentRepository(db *gorm.DB) *ConsentRepository {
	return &ConsentRepository{DB: db}
}

// Upsert relies on the idx_consent_pair unique index so concurrent grants for
// the same pair collapse into one row; the last writer's status wins.
func (r *ConsentRepository) Upsert(ctx context.Context, patientID, doctorID string, status models.ConsentStatus) (*models.Consent, error) {
	consent := models.Consent{
		PatientID: patientID,
		DoctorID:  doctorID,
		Status:    status,
	}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "patient_id"}, {Name: "doctor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&consent).Error
	if err != nil {
		return nil, translate(err, "upsert consent")
	}
	return r.FindByPair(ctx, patientID, doctorID)
}

func (r *ConsentRepository) FindByPair(ctx context.Context, patientID, doctorID string) (*models.Consent, error) {
	var consent models.Consent
	err := r.DB.WithContext(ctx).
		Where("patient_id = ? AND doctor_id = ?", patientID, doctorID).
		First(&consent).Error
	if err != nil {
		return nil, translate(err, "find consent")
	}
	return &consent, nil
}

func (r *ConsentRepository) UpdateStatus(ctx context.Context, patientID, doctorID string, status models.ConsentStatus) (*models.Consent, error) {
	consent, err := r.FindByPair(ctx, patientID, doctorID)
	if err != nil {
		return nil, err
	}
	err = r.DB.WithContext(ctx).Model(consent).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}).Error
	if err != nil {
		return nil, translate(err, "update consent status")
	}
	consent.Status = status
	return consent, nil
}

func (r *ConsentRepository) ListByPatient(ctx context.Context, patientID string) ([]models.Consent, error) {
	var consents []models.Consent
	err := r.DB.WithContext(ctx).
		Preload("Doctor.DoctorProfile").
		Where("patient_id = ?", patientID).
		Order("updated_at DESC").
		Find(&consents).Error
	if err != nil {
		return nil, translate(err, "list consents by patient")
	}
	return consents, nil
}

func (r *ConsentRepository) ListGrantedByDoctor(ctx context.Context, doctorID string) ([]models.Consent, error) {
	var consents []models.Consent
	err := r.DB.WithContext(ctx).
		Preload("Patient.PatientProfile").
		Where("doctor_id = ? AND status = ?", doctorID, models.ConsentGranted).
		Find(&consents).Error
	if err != nil {
		return nil, translate(err, "list granted consents by doctor")
	}
	return consents, nil
}
