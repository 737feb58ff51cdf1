package models

// MedicalRecordType represents the category of an uploaded health document.
type MedicalRecordType string

const (
	RecordTypeLabResult     MedicalRecordType = "LabResult"
	RecordTypePrescription  MedicalRecordType = "Prescription"
	RecordTypeImagingReport MedicalRecordType = "ImagingReport"
	RecordTypeVaccination   MedicalRecordType = "VaccinationRecord"
	RecordTypeGeneral       MedicalRecordType = "General"
)

// MedicalRecord is an immutable reference to a document held in the external
// content-addressed store. Rows are only ever inserted.
type MedicalRecord struct {
	BaseModel
	PatientID  string            `gorm:"size:64;index;not null" json:"patientId"`
	Title      string            `gorm:"size:255" json:"title"`
	RecordType MedicalRecordType `gorm:"size:50" json:"recordType"`
	ContentRef string            `gorm:"size:255;not null" json:"contentRef"`
}
