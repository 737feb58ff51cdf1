package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sovereign-health-server/internal/logger"
	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/repository/memory"
)

var demoFallback = FallbackPolicy{Enabled: true, Prefixes: []string{"NB-"}, Markers: []string{"PATIENT"}}

func newEmergencyService(store *memory.Store, fallback FallbackPolicy) *EmergencyService {
	viewers := []models.Role{models.RoleDoctor, models.RoleResearcher, models.RolePharma}
	return NewEmergencyService(store.Audit, store.Profiles, fallback, viewers, logger.Discard(), nil)
}

// failingAudit rejects every append but still records the attempt.
type failingAudit struct {
	*memory.AuditRepository
	attempts int
}

func (f *failingAudit) Append(context.Context, *models.EmergencyAccessLog) error {
	f.attempts++
	return errors.New("disk full")
}

func TestFallbackPolicy_Matches(t *testing.T) {
	assert.True(t, demoFallback.Matches("NB-1234"))
	assert.True(t, demoFallback.Matches("ABHA-PATIENT-7"))
	assert.False(t, demoFallback.Matches("unknown-id"))
	assert.False(t, demoFallback.Matches("nb-lowercase"))

	disabled := demoFallback
	disabled.Enabled = false
	assert.False(t, disabled.Matches("NB-PATIENT-999"))
}

func TestEmergencyService_AnonymousFallback(t *testing.T) {
	store := newTestStore(t)
	svc := newEmergencyService(store, demoFallback)

	data, err := svc.Access(context.Background(), Identity{}, "NB-PATIENT-999")
	require.NoError(t, err)
	assert.Equal(t, StatusEmergencyAccessLogged, data.Status)
	assert.Equal(t, "Unknown", data.BloodGroup)
	assert.Equal(t, "No record found on chain.", data.ChronicConditions)
	assert.Empty(t, data.Medications)
	assert.Equal(t, 0, store.Audit.Len(), "anonymous access writes no log")
}

func TestEmergencyService_IdentifiedAccessIsLogged(t *testing.T) {
	store := newTestStore(t)
	svc := newEmergencyService(store, demoFallback)
	ctx := context.Background()

	data, err := svc.Access(ctx, doctorD1, "P1")
	respondedAt := time.Now().UTC()
	require.NoError(t, err)

	assert.Equal(t, "O+", data.BloodGroup)
	assert.Equal(t, "Penicillin", data.Allergies)
	assert.Equal(t, "+91 555 0101", data.EmergencyContact)
	assert.Equal(t, "None recorded", data.ChronicConditions)
	assert.NotNil(t, data.Medications)
	assert.NotNil(t, data.RecentProcedures)
	assert.Equal(t, StatusEmergencyAccessLogged, data.Status)

	logs, err := store.Audit.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "P1", logs[0].PatientID)
	assert.Equal(t, "D1", logs[0].AccessedBy)
	assert.Equal(t, models.ReasonEmergencyOverride, logs[0].Reason)
	assert.False(t, logs[0].Timestamp.After(respondedAt))
}

func TestEmergencyService_LogWrittenEvenWhenLookupFails(t *testing.T) {
	store := newTestStore(t)
	svc := newEmergencyService(store, demoFallback)
	ctx := context.Background()

	_, err := svc.Access(ctx, research, "unknown-id")
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, "Patient Not Found in National Registry", err.(*ServiceError).Message)

	_, err = svc.Access(ctx, research, "NB-42")
	require.NoError(t, err)

	logs, err := store.Audit.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, logs, 2, "one entry per identified attempt regardless of outcome")
}

func TestEmergencyService_FallbackDisabled(t *testing.T) {
	store := newTestStore(t)
	svc := newEmergencyService(store, FallbackPolicy{})

	_, err := svc.Access(context.Background(), Identity{}, "NB-PATIENT-999")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestEmergencyService_AuditFailureDoesNotBlockLookup(t *testing.T) {
	store := newTestStore(t)
	audit := &failingAudit{AuditRepository: store.Audit}
	svc := NewEmergencyService(audit, store.Profiles, demoFallback, nil, logger.Discard(), nil)

	data, err := svc.Access(context.Background(), doctorD1, "P1")
	require.NoError(t, err)
	assert.Equal(t, "O+", data.BloodGroup)
	assert.Equal(t, 1, audit.attempts)
}

func TestEmergencyService_LogScoping(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Only doctors may read the full log here; pharma falls back to its own entries.
	svc := NewEmergencyService(store.Audit, store.Profiles, demoFallback, []models.Role{models.RoleDoctor}, logger.Discard(), nil)

	for _, call := range []struct {
		caller Identity
		target string
	}{
		{doctorD1, "P1"},
		{doctorD2, "P2"},
		{pharma, "P1"},
		{doctorD1, "P2"},
	} {
		_, err := svc.Access(ctx, call.caller, call.target)
		require.True(t, err == nil || IsKind(err, KindNotFound))
	}

	own, err := svc.Logs(ctx, patientP1)
	require.NoError(t, err)
	require.Len(t, own, 2)
	for _, l := range own {
		assert.Equal(t, "P1", l.PatientID)
	}
	assert.True(t, !own[0].Timestamp.Before(own[1].Timestamp), "newest first")

	all, err := svc.Logs(ctx, doctorD2)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Timestamp.After(all[i-1].Timestamp))
	}

	mine, err := svc.Logs(ctx, pharma)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "PH1", mine[0].AccessedBy)

	_, err = svc.Logs(ctx, Identity{})
	assert.True(t, IsKind(err, KindUnauthorized))
}

func TestEmergencyService_DefaultViewersSeeEverything(t *testing.T) {
	store := newTestStore(t)
	svc := newEmergencyService(store, demoFallback)
	ctx := context.Background()

	_, err := svc.Access(ctx, doctorD1, "P1")
	require.NoError(t, err)
	_, err = svc.Access(ctx, doctorD1, "P2")
	require.True(t, IsKind(err, KindNotFound))

	for _, caller := range []Identity{doctorD2, research, pharma} {
		logs, err := svc.Logs(ctx, caller)
		require.NoError(t, err)
		assert.Len(t, logs, 2, "role %s", caller.Role)
	}
	assert.False(t, svc.CanViewAllEmergencyLogs(models.RolePatient))
}
