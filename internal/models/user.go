package models

import (
	"strings"
	"time"
)

// Role enum
type Role string

const (
	RolePatient    Role = "PATIENT"
	RoleDoctor     Role = "DOCTOR"
	RoleResearcher Role = "RESEARCHER"
	RolePharma     Role = "PHARMA"
)

// ParseRole normalizes a role string. Unknown values are returned upper-cased
// and are rejected later by the authorization rules, not here.
func ParseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// Valid reports whether r is one of the platform roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleResearcher, RolePharma:
		return true
	}
	return false
}

// User represents a platform account identified by its wallet address.
type User struct {
	BaseModel
	WalletAddress string `gorm:"uniqueIndex;size:255;not null" json:"walletAddress"`
	Role          Role   `gorm:"size:20;default:'PATIENT'" json:"role"`

	// Relations (not always preloaded)
	PatientProfile *PatientProfile `gorm:"foreignKey:UserID" json:"patientProfile,omitempty"`
	DoctorProfile  *DoctorProfile  `gorm:"foreignKey:UserID" json:"doctorProfile,omitempty"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID             string          `json:"id"`
	WalletAddress  string          `json:"walletAddress"`
	Role           Role            `json:"role"`
	PatientProfile *PatientProfile `json:"patientProfile,omitempty"`
	DoctorProfile  *DoctorProfile  `json:"doctorProfile,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Sanitize creates a UserSanitized struct from a User model.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:             u.ID,
		WalletAddress:  u.WalletAddress,
		Role:           u.Role,
		PatientProfile: u.PatientProfile,
		DoctorProfile:  u.DoctorProfile,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
