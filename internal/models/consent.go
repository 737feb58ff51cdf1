package models

// ConsentStatus represents the state of a patient's grant to a doctor.
type ConsentStatus string

const (
	ConsentGranted ConsentStatus = "GRANTED"
	ConsentRevoked ConsentStatus = "REVOKED"
)

// Consent is a patient's standing authorization for one doctor. The
// (patient_id, doctor_id) pair is unique; revocation keeps the row.
type Consent struct {
	BaseModel
	PatientID string        `gorm:"size:64;not null;uniqueIndex:idx_consent_pair" json:"patientId"`
	DoctorID  string        `gorm:"size:64;not null;uniqueIndex:idx_consent_pair;index" json:"doctorId"`
	Status    ConsentStatus `gorm:"size:20;not null" json:"status"`

	// Relations
	Doctor  *User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Patient *User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
}
