package models

// PatientProfile is the mutable health summary used by the emergency path.
type PatientProfile struct {
	BaseModel
	UserID            string `gorm:"uniqueIndex;size:64;not null" json:"userId"`
	Name              string `gorm:"size:255" json:"name"`
	Age               int    `json:"age"`
	Gender            string `gorm:"size:20" json:"gender"`
	BloodGroup        string `gorm:"size:10" json:"bloodGroup"`
	Allergies         string `gorm:"type:text" json:"allergies"`
	ChronicConditions string `gorm:"type:text" json:"chronicConditions"`
	EmergencyContact  string `gorm:"size:255" json:"emergencyContact"`

	MedicalRecords []MedicalRecord `gorm:"foreignKey:PatientID;references:UserID" json:"medicalRecords,omitempty"`
}

// DoctorProfile holds the public practitioner details shown next to consents.
type DoctorProfile struct {
	BaseModel
	UserID         string `gorm:"uniqueIndex;size:64;not null" json:"userId"`
	Name           string `gorm:"size:255" json:"name"`
	Specialization string `gorm:"size:100" json:"specialization"`
	LicenseNumber  string `gorm:"size:100" json:"licenseNumber"`
	Hospital       string `gorm:"size:255" json:"hospital"`
}
