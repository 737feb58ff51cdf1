package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"sovereign-health-server/internal/logger"
	"sovereign-health-server/internal/metrics"
	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/repository"
)

// StatusEmergencyAccessLogged tags every break-glass payload.
const StatusEmergencyAccessLogged = "EMERGENCY_ACCESS_LOGGED"

// EmergencyData is the restricted summary returned to a first responder.
type EmergencyData struct {
	BloodGroup        string   `json:"bloodGroup"`
	Allergies         string   `json:"allergies"`
	ChronicConditions string   `json:"chronicConditions"`
	EmergencyContact  string   `json:"emergencyContact"`
	Medications       []string `json:"medications"`
	RecentProcedures  []string `json:"recentProcedures"`
	Status            string   `json:"status"`
}

// FallbackPolicy decides when an unknown patient id yields a placeholder
// payload instead of NotFound.
type FallbackPolicy struct {
	Enabled  bool
	Prefixes []string
	Markers  []string
}

// Matches reports whether id has the recognised demo-identifier shape.
func (p FallbackPolicy) Matches(id string) bool {
	if !p.Enabled {
		return false
	}
	for _, prefix := range p.Prefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	for _, marker := range p.Markers {
		if strings.Contains(id, marker) {
			return true
		}
	}
	return false
}

// EmergencyService implements the break-glass read and the audit log reader.
type EmergencyService struct {
	audit    AuditRepository
	profiles ProfileRepository
	fallback FallbackPolicy
	// Non-patient roles allowed to read every patient's emergency log.
	globalViewers map[models.Role]bool
	log           *logger.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

// NewEmergencyService creates a new EmergencyService.
func NewEmergencyService(audit AuditRepository, profiles ProfileRepository, fallback FallbackPolicy, globalViewerRoles []models.Role, log *logger.Logger, m *metrics.Metrics) *EmergencyService {
	viewers := make(map[models.Role]bool, len(globalViewerRoles))
	for _, r := range globalViewerRoles {
		viewers[r] = true
	}
	return &EmergencyService{
		audit:         audit,
		profiles:      profiles,
		fallback:      fallback,
		globalViewers: viewers,
		log:           log,
		metrics:       m,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Access performs the break-glass lookup. For an identified caller the audit
// entry is written before the lookup; a failed write is logged and does not
// block the lookup. Anonymous callers are served without an audit entry.
func (s *EmergencyService) Access(ctx context.Context, caller Identity, targetPatientID string) (*EmergencyData, error) {
	if strings.TrimSpace(targetPatientID) == "" {
		return nil, newValidation("targetPatientId is required")
	}

	if caller.Present() {
		entry := &models.EmergencyAccessLog{
			PatientID:  targetPatientID,
			AccessedBy: caller.ID,
			Reason:     models.ReasonEmergencyOverride,
			Timestamp:  s.now(),
		}
		if err := s.audit.Append(ctx, entry); err != nil {
			s.log.WithError(err).WithField("patient_id", targetPatientID).Error("Failed to write emergency access log")
		}
		s.log.Audit(caller.ID, "emergency.access", "patient_profile", true, map[string]interface{}{
			"patient_id": targetPatientID,
			"reason":     models.ReasonEmergencyOverride,
		})
	} else {
		s.log.Security("anonymous_emergency_access", "", map[string]interface{}{"patient_id": targetPatientID})
	}

	profile, err := s.profiles.FindPatientProfile(ctx, targetPatientID)
	if errors.Is(err, repository.ErrNotFound) {
		if s.fallback.Matches(targetPatientID) {
			s.metrics.RecordEmergencyAccess("fallback", caller.Present())
			return placeholderEmergencyData(), nil
		}
		s.metrics.RecordEmergencyAccess("not_found", caller.Present())
		return nil, newNotFound("Patient Not Found in National Registry")
	}
	if err != nil {
		s.metrics.RecordEmergencyAccess("error", caller.Present())
		return nil, newInternal(err)
	}

	s.metrics.RecordEmergencyAccess("found", caller.Present())
	chronic := profile.ChronicConditions
	if chronic == "" {
		chronic = "None recorded"
	}
	return &EmergencyData{
		BloodGroup:        profile.BloodGroup,
		Allergies:         profile.Allergies,
		ChronicConditions: chronic,
		EmergencyContact:  profile.EmergencyContact,
		Medications:       []string{},
		RecentProcedures:  []string{},
		Status:            StatusEmergencyAccessLogged,
	}, nil
}

func placeholderEmergencyData() *EmergencyData {
	return &EmergencyData{
		BloodGroup:        "Unknown",
		Allergies:         "Unknown",
		ChronicConditions: "No record found on chain.",
		EmergencyContact:  "Unknown",
		Medications:       []string{},
		RecentProcedures:  []string{},
		Status:            StatusEmergencyAccessLogged,
	}
}

// CanViewAllEmergencyLogs is the permission for reading every patient's
// emergency access history.
func (s *EmergencyService) CanViewAllEmergencyLogs(role models.Role) bool {
	return role != models.RolePatient && s.globalViewers[role]
}

// Logs returns the emergency access entries visible to caller, newest first.
// Patients see entries about themselves; global viewers see everything; any
// other role sees only the entries it created.
func (s *EmergencyService) Logs(ctx context.Context, caller Identity) ([]models.EmergencyAccessLog, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	var (
		logs []models.EmergencyAccessLog
		err  error
	)
	switch {
	case caller.Role == models.RolePatient:
		logs, err = s.audit.ListByPatient(ctx, caller.ID)
	case s.CanViewAllEmergencyLogs(caller.Role):
		logs, err = s.audit.ListAll(ctx)
	default:
		logs, err = s.audit.ListByAccessor(ctx, caller.ID)
	}
	if err != nil {
		return nil, newInternal(err)
	}
	return logs, nil
}
