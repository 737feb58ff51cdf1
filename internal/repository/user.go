package repository

import (
	"context"

	"gorm.io/gorm"

	"sovereign-health-server/internal/models"
)

// UserRepository stores platform accounts.
type UserRepository struct {
	DB *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Preload("PatientProfile").
		Preload("DoctorProfile").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "find user")
	}
	return &user, nil
}

func (r *UserRepository) FindByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Preload("PatientProfile").
		Preload("DoctorProfile").
		Where("wallet_address = ?", walletAddress).
		First(&user).Error
	if err != nil {
		return nil, translate(err, "find user by wallet")
	}
	return &user, nil
}

// Create inserts the user; a non-nil PatientProfile or DoctorProfile is
// inserted in the same transaction by gorm's association handling.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(user).Error, "create user")
}
