package services

import (
	"context"
	"strings"

	"sovereign-health-server/internal/logger"
	"sovereign-health-server/internal/models"
)

// UploadRecordInput describes a new medical record reference.
type UploadRecordInput struct {
	PatientID  string
	Title      string
	Type       string
	ContentRef string
}

// RecordService serves the consent-gated records read and the append-only upload.
type RecordService struct {
	records    RecordRepository
	authorizer *AccessAuthorizer
	log        *logger.Logger
}

// NewRecordService creates a new RecordService.
func NewRecordService(records RecordRepository, authorizer *AccessAuthorizer, log *logger.Logger) *RecordService {
	return &RecordService{records: records, authorizer: authorizer, log: log}
}

// GetRecords returns every record of patientID once the caller is authorized.
// There is no per-record filtering.
func (s *RecordService) GetRecords(ctx context.Context, caller Identity, patientID string) ([]models.MedicalRecord, error) {
	if err := s.authorizer.AuthorizeRecordsRead(ctx, caller, patientID); err != nil {
		return nil, err
	}
	records, err := s.records.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, newInternal(err)
	}
	return records, nil
}

// Upload appends a record. No caller policy is enforced on this path.
func (s *RecordService) Upload(ctx context.Context, in UploadRecordInput) (*models.MedicalRecord, error) {
	if strings.TrimSpace(in.PatientID) == "" {
		return nil, newValidation("patientId is required")
	}
	if strings.TrimSpace(in.ContentRef) == "" {
		return nil, newValidation("contentRef is required")
	}

	recordType := models.MedicalRecordType(in.Type)
	if recordType == "" {
		recordType = models.RecordTypeGeneral
	}

	record := &models.MedicalRecord{
		PatientID:  in.PatientID,
		Title:      in.Title,
		RecordType: recordType,
		ContentRef: in.ContentRef,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, newInternal(err)
	}

	s.log.WithComponent("records").WithField("patient_id", in.PatientID).Info("Medical record uploaded")
	return record, nil
}
