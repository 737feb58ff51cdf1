package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReasonEmergencyOverride is the reason code written for break-glass reads.
const ReasonEmergencyOverride = "CRITICAL_EMERGENCY_OVERRIDE"

// EmergencyAccessLog is an append-only audit entry for a break-glass read.
type EmergencyAccessLog struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PatientID  string    `gorm:"size:64;index;not null" json:"patientId"`
	AccessedBy string    `gorm:"size:64;index;not null" json:"accessedBy"`
	Reason     string    `gorm:"size:64;not null" json:"reason"`
	Timestamp  time.Time `gorm:"index;not null" json:"timestamp"`
}

// BeforeCreate assigns the id and, when unset, the timestamp.
func (l *EmergencyAccessLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	return nil
}
