package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sovereign-health-server/internal/logger"
	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/repository/memory"
)

var (
	patientP1 = Identity{ID: "P1", Role: models.RolePatient}
	patientP2 = Identity{ID: "P2", Role: models.RolePatient}
	doctorD1  = Identity{ID: "D1", Role: models.RoleDoctor}
	doctorD2  = Identity{ID: "D2", Role: models.RoleDoctor}
	research  = Identity{ID: "R1", Role: models.RoleResearcher}
	pharma    = Identity{ID: "PH1", Role: models.RolePharma}
)

// tickingClock returns strictly increasing times one second apart.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	store.SetClock(tickingClock())

	ctx := context.Background()
	for _, u := range []*models.User{
		{BaseModel: models.BaseModel{ID: "P1"}, WalletAddress: "0xP1", Role: models.RolePatient,
			PatientProfile: &models.PatientProfile{Name: "Asha", BloodGroup: "O+", Allergies: "Penicillin", EmergencyContact: "+91 555 0101"}},
		{BaseModel: models.BaseModel{ID: "P2"}, WalletAddress: "0xP2", Role: models.RolePatient},
		{BaseModel: models.BaseModel{ID: "D1"}, WalletAddress: "0xD1", Role: models.RoleDoctor,
			DoctorProfile: &models.DoctorProfile{Name: "Dr. Rao", Specialization: "Cardiology"}},
		{BaseModel: models.BaseModel{ID: "D2"}, WalletAddress: "0xD2", Role: models.RoleDoctor},
		{BaseModel: models.BaseModel{ID: "R1"}, WalletAddress: "0xR1", Role: models.RoleResearcher},
	} {
		require.NoError(t, store.Users.Create(ctx, u))
	}
	return store
}

func newConsentService(store *memory.Store, revokeMissingIsNoop bool) *ConsentService {
	return NewConsentService(store.Consents, store.Users, logger.Discard(), nil, revokeMissingIsNoop)
}

func newRecordService(store *memory.Store) *RecordService {
	return NewRecordService(store.Records, NewAccessAuthorizer(store.Consents, logger.Discard(), nil), logger.Discard())
}
