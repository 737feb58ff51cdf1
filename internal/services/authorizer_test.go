package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sovereign-health-server/internal/models"
)

func TestDecide(t *testing.T) {
	granted := &models.Consent{PatientID: "P1", DoctorID: "D1", Status: models.ConsentGranted}
	revoked := &models.Consent{PatientID: "P1", DoctorID: "D1", Status: models.ConsentRevoked}

	cases := []struct {
		name    string
		caller  Identity
		consent *models.Consent
		allowed bool
		message string
	}{
		{"patient reads own", patientP1, nil, true, ""},
		{"patient reads other", patientP2, nil, false, msgPatientOwnRecordsOnly},
		{"patient ignores consent rows", patientP2, granted, false, msgPatientOwnRecordsOnly},
		{"doctor with granted consent", doctorD1, granted, true, ""},
		{"doctor with revoked consent", doctorD1, revoked, false, msgNoValidConsent},
		{"doctor without consent", doctorD1, nil, false, msgNoValidConsent},
		{"researcher", research, granted, false, msgRoleNotPermitted},
		{"pharma", pharma, nil, false, msgRoleNotPermitted},
		{"unknown role", Identity{ID: "X", Role: "ADMIN"}, nil, false, msgRoleNotPermitted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Decide(tc.caller, "P1", tc.consent)
			if tc.allowed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsKind(err, KindForbidden))
			assert.Equal(t, tc.message, err.(*ServiceError).Message)
		})
	}
}

func TestRecordService_ConsentLifecycle(t *testing.T) {
	store := newTestStore(t)
	consents := newConsentService(store, false)
	records := newRecordService(store)
	ctx := context.Background()

	_, err := records.Upload(ctx, UploadRecordInput{PatientID: "P1", Title: "CBC", Type: "LabResult", ContentRef: "bafy-cbc"})
	require.NoError(t, err)
	_, err = records.Upload(ctx, UploadRecordInput{PatientID: "P1", Title: "X-Ray", Type: "ImagingReport", ContentRef: "bafy-xray"})
	require.NoError(t, err)
	_, err = records.Upload(ctx, UploadRecordInput{PatientID: "P2", Title: "Other", ContentRef: "bafy-other"})
	require.NoError(t, err)

	// Before any consent
	_, err = records.GetRecords(ctx, doctorD1, "P1")
	assert.True(t, IsKind(err, KindForbidden))

	_, err = consents.Grant(ctx, patientP1, "P1", "D1")
	require.NoError(t, err)

	got, err := records.GetRecords(ctx, doctorD1, "P1")
	require.NoError(t, err)
	assert.Len(t, got, 2, "doctor receives the full record set")
	for _, r := range got {
		assert.Equal(t, "P1", r.PatientID)
	}

	// A doctor who was never granted
	_, err = records.GetRecords(ctx, doctorD2, "P1")
	assert.True(t, IsKind(err, KindForbidden))

	_, err = consents.Revoke(ctx, patientP1, "P1", "D1")
	require.NoError(t, err)

	_, err = records.GetRecords(ctx, doctorD1, "P1")
	assert.True(t, IsKind(err, KindForbidden), "access must end with revocation")
}

func TestRecordService_PatientAndOtherRoles(t *testing.T) {
	store := newTestStore(t)
	records := newRecordService(store)
	ctx := context.Background()

	_, err := records.Upload(ctx, UploadRecordInput{PatientID: "P1", Title: "CBC", Type: "LabResult", ContentRef: "bafy-cbc"})
	require.NoError(t, err)

	own, err := records.GetRecords(ctx, patientP1, "P1")
	require.NoError(t, err)
	assert.Len(t, own, 1)

	_, err = records.GetRecords(ctx, patientP2, "P1")
	assert.True(t, IsKind(err, KindForbidden))

	_, err = records.GetRecords(ctx, research, "P1")
	assert.True(t, IsKind(err, KindForbidden))

	_, err = records.GetRecords(ctx, Identity{}, "P1")
	assert.True(t, IsKind(err, KindUnauthorized))
}

func TestRecordService_UploadAppends(t *testing.T) {
	store := newTestStore(t)
	records := newRecordService(store)
	ctx := context.Background()

	first, err := records.Upload(ctx, UploadRecordInput{PatientID: "P1", Title: "CBC", ContentRef: "bafy-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, models.RecordTypeGeneral, first.RecordType)

	second, err := records.Upload(ctx, UploadRecordInput{PatientID: "P1", Title: "CBC", ContentRef: "bafy-1"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID, "identical uploads are separate records")

	all, err := records.GetRecords(ctx, patientP1, "P1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	_, err = records.Upload(ctx, UploadRecordInput{PatientID: "P1", Title: "empty"})
	assert.True(t, IsKind(err, KindValidation))
}
