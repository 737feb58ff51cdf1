package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sovereign-health-server/internal/models"
)

// ProfileRepository stores patient profiles.
type ProfileRepository struct {
	DB *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) FindPatientProfile(ctx context.Context, userID string) (*models.PatientProfile, error) {
	var profile models.PatientProfile
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, translate(err, "find patient profile")
	}
	return &profile, nil
}

func (r *ProfileRepository) FindPatientProfileWithRecords(ctx context.Context, userID string) (*models.PatientProfile, error) {
	var profile models.PatientProfile
	err := r.DB.WithContext(ctx).
		Preload("MedicalRecords", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, translate(err, "find patient profile")
	}
	return &profile, nil
}

// SavePatientProfile inserts the profile or overwrites the editable columns of
// the existing one for the same user.
func (r *ProfileRepository) SavePatientProfile(ctx context.Context, profile *models.PatientProfile) error {
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "age", "gender", "blood_group", "allergies",
			"chronic_conditions", "emergency_contact", "updated_at",
		}),
	}).Create(profile).Error
	return translate(err, "save patient profile")
}

func (r *ProfileRepository) SearchPatientProfiles(ctx context.Context, query string) ([]models.PatientProfile, error) {
	var profiles []models.PatientProfile
	like := "%" + query + "%"
	err := r.DB.WithContext(ctx).
		Where("name LIKE ? OR user_id LIKE ?", like, like).
		Order("name ASC").
		Limit(50).
		Find(&profiles).Error
	if err != nil {
		return nil, translate(err, "search patient profiles")
	}
	return profiles, nil
}
