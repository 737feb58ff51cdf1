package repository

import (
	"context"

	"gorm.io/gorm"

	"sovereign-health-server/internal/models"
)

// AuditRepository stores emergency access log entries. Rows are inserted one
// statement each and never updated.
type AuditRepository struct {
	DB *gorm.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{DB: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry *models.EmergencyAccessLog) error {
	return translate(r.DB.WithContext(ctx).Create(entry).Error, "append emergency access log")
}

func (r *AuditRepository) ListAll(ctx context.Context) ([]models.EmergencyAccessLog, error) {
	return r.list(ctx, r.DB.WithContext(ctx))
}

func (r *AuditRepository) ListByPatient(ctx context.Context, patientID string) ([]models.EmergencyAccessLog, error) {
	return r.list(ctx, r.DB.WithContext(ctx).Where("patient_id = ?", patientID))
}

func (r *AuditRepository) ListByAccessor(ctx context.Context, userID string) ([]models.EmergencyAccessLog, error) {
	return r.list(ctx, r.DB.WithContext(ctx).Where("accessed_by = ?", userID))
}

func (r *AuditRepository) list(_ context.Context, q *gorm.DB) ([]models.EmergencyAccessLog, error) {
	var logs []models.EmergencyAccessLog
	if err := q.Order("timestamp DESC").Find(&logs).Error; err != nil {
		return nil, translate(err, "list emergency access logs")
	}
	return logs, nil
}
