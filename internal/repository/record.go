package repository

import (
	"context"

	"gorm.io/gorm"

	"sovereign-health-server/internal/models"
)

// RecordRepository stores medical record references. It exposes no update or
// delete.
type RecordRepository struct {
	DB *gorm.DB
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{DB: db}
}

func (r *RecordRepository) Create(ctx context.Context, record *models.MedicalRecord) error {
	return translate(r.DB.WithContext(ctx).Create(record).Error, "create medical record")
}

func (r *RecordRepository) ListByPatient(ctx context.Context, patientID string) ([]models.MedicalRecord, error) {
	var records []models.MedicalRecord
	err := r.DB.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, translate(err, "list medical records")
	}
	return records, nil
}
