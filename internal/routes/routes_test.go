package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sovereign-health-server/internal/config"
	"sovereign-health-server/internal/logger"
	"sovereign-health-server/internal/metrics"
	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/repository/memory"
	"sovereign-health-server/internal/utils"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	router *gin.Engine
	store  *memory.Store
}

func testConfig() *config.Config {
	return &config.Config{
		MetricsEnabled: true,
		Identity:       config.IdentityConfig{Mode: config.IdentityModeHeader},
		Emergency: config.EmergencyConfig{
			FallbackEnabled:  true,
			FallbackPrefixes: []string{"NB-"},
			FallbackMarkers:  []string{"PATIENT"},
		},
		Audit: config.AuditConfig{GlobalViewerRoles: []string{"DOCTOR", "RESEARCHER", "PHARMA"}},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Users.Create(ctx, &models.User{
		BaseModel: models.BaseModel{ID: "P1"}, WalletAddress: "0xP1", Role: models.RolePatient,
		PatientProfile: &models.PatientProfile{Name: "Asha", BloodGroup: "B-", Allergies: "Latex", EmergencyContact: "Ravi"},
	}))
	require.NoError(t, store.Users.Create(ctx, &models.User{
		BaseModel: models.BaseModel{ID: "D1"}, WalletAddress: "0xD1", Role: models.RoleDoctor,
		DoctorProfile: &models.DoctorProfile{Name: "Dr. Rao"},
	}))

	log := logger.Discard()
	m := metrics.New()
	router := gin.New()
	SetupRoutes(router, NewHandlers(NewMemoryRepositories(store), cfg, log, m), cfg, log, m)
	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func as(id string, role models.Role) map[string]string {
	return map[string]string{"X-User-Id": id, "X-User-Role": string(role)}
}

func TestConsentFlow(t *testing.T) {
	s := newTestServer(t, testConfig())
	p1 := as("P1", models.RolePatient)
	d1 := as("D1", models.RoleDoctor)

	w, _ := s.do(t, http.MethodPost, "/api/v1/patients/P1/records",
		map[string]string{"title": "CBC", "type": "LabResult", "contentRef": "bafy-cbc"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/v1/patients/P1/records", nil, d1)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied. No valid consent found.", env.Error)

	w, env = s.do(t, http.MethodPost, "/api/v1/consents", map[string]string{"doctorId": "D1"}, p1)
	require.Equal(t, http.StatusOK, w.Code)
	var consent models.Consent
	require.NoError(t, json.Unmarshal(env.Data, &consent))
	assert.Equal(t, models.ConsentGranted, consent.Status)
	assert.Equal(t, "P1", consent.PatientID)

	w, env = s.do(t, http.MethodGet, "/api/v1/patients/P1/records", nil, d1)
	require.Equal(t, http.StatusOK, w.Code)
	var records []models.MedicalRecord
	require.NoError(t, json.Unmarshal(env.Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "bafy-cbc", records[0].ContentRef)

	w, env = s.do(t, http.MethodGet, "/api/v1/doctors/consented-patients", nil, d1)
	require.Equal(t, http.StatusOK, w.Code)
	var patients []models.UserSanitized
	require.NoError(t, json.Unmarshal(env.Data, &patients))
	require.Len(t, patients, 1)
	assert.Equal(t, "P1", patients[0].ID)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/consents/D1", nil, p1)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/patients/P1/records", nil, d1)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/v1/consents", nil, p1)
	require.Equal(t, http.StatusOK, w.Code)
	var consents []models.Consent
	require.NoError(t, json.Unmarshal(env.Data, &consents))
	require.Len(t, consents, 1)
	assert.Equal(t, models.ConsentRevoked, consents[0].Status)
}

func TestConsentRoutes_ErrorMapping(t *testing.T) {
	s := newTestServer(t, testConfig())

	w, _ := s.do(t, http.MethodGet, "/api/v1/consents", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/consents", map[string]string{"doctorId": "D1"}, as("D1", models.RoleDoctor))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/consents/D1", nil, as("P1", models.RolePatient))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/consents", map[string]string{}, as("P1", models.RolePatient))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/doctors/consented-patients", nil, as("P1", models.RolePatient))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHeaderIdentity_DefaultsToPatient(t *testing.T) {
	s := newTestServer(t, testConfig())

	w, _ := s.do(t, http.MethodGet, "/api/v1/patients/P1/records", nil, map[string]string{"X-User-Id": "P1"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/patients/P1/records", nil, map[string]string{"X-User-Id": "P1", "X-User-Role": "doctor"})
	assert.Equal(t, http.StatusForbidden, w.Code, "lower-case role is normalized to DOCTOR")
}

func TestEmergencyRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())
	ctx := context.Background()

	w, env := s.do(t, http.MethodPost, "/api/v1/emergency/access", map[string]string{"targetPatientId": "NB-PATIENT-999"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "EMERGENCY_ACCESS_LOGGED", data["status"])
	assert.Equal(t, "Unknown", data["bloodGroup"])
	assert.Equal(t, 0, s.store.Audit.Len())

	w, env = s.do(t, http.MethodPost, "/api/v1/emergency/access", map[string]string{"targetPatientId": "P1"}, as("D1", models.RoleDoctor))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "B-", data["bloodGroup"])
	assert.Equal(t, "Ravi", data["emergencyContact"])

	logs, err := s.store.Audit.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "P1", logs[0].PatientID)
	assert.Equal(t, "D1", logs[0].AccessedBy)

	w, env = s.do(t, http.MethodPost, "/api/v1/emergency/access", map[string]string{"targetPatientId": "random"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Patient Not Found in National Registry", env.Error)

	w, env = s.do(t, http.MethodGet, "/api/v1/emergency/logs", nil, as("P1", models.RolePatient))
	require.Equal(t, http.StatusOK, w.Code)
	var own []models.EmergencyAccessLog
	require.NoError(t, json.Unmarshal(env.Data, &own))
	assert.Len(t, own, 1)

	w, env = s.do(t, http.MethodGet, "/api/v1/emergency/logs", nil, as("P9", models.RolePatient))
	require.Equal(t, http.StatusOK, w.Code)
	var none []models.EmergencyAccessLog
	require.NoError(t, json.Unmarshal(env.Data, &none))
	assert.Empty(t, none)

	w, _ = s.do(t, http.MethodGet, "/api/v1/emergency/logs", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())

	w, env := s.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{"walletAddress": "0xnew", "role": "DOCTOR"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Status string               `json:"status"`
		User   models.UserSanitized `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "CREATED", created.Status)

	w, env = s.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{"walletAddress": "0xnew", "role": "DOCTOR"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"EXISTS"`)

	w, _ = s.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{"walletAddress": "0xbad", "role": "ADMIN"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/auth/me", nil, as(created.User.ID, models.RoleDoctor))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTIdentityMode(t *testing.T) {
	cfg := testConfig()
	cfg.Identity = config.IdentityConfig{Mode: config.IdentityModeJWT, JWTSecret: "test-secret"}
	s := newTestServer(t, cfg)

	token, err := utils.SignIdentityToken("P1", models.RolePatient, "test-secret", time.Minute)
	require.NoError(t, err)

	w, _ := s.do(t, http.MethodGet, "/api/v1/patients/P1/records", nil, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)

	// Trusted headers are ignored in jwt mode.
	w, _ = s.do(t, http.MethodGet, "/api/v1/patients/P1/records", nil, as("P1", models.RolePatient))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	forged, err := utils.SignIdentityToken("P1", models.RolePatient, "other-secret", time.Minute)
	require.NoError(t, err)
	w, _ = s.do(t, http.MethodGet, "/api/v1/patients/P1/records", nil, map[string]string{"Authorization": "Bearer " + forged})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Anonymous break-glass stays available.
	w, _ = s.do(t, http.MethodPost, "/api/v1/emergency/access", map[string]string{"targetPatientId": "P1"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, testConfig())

	w, _ := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	_, _ = s.do(t, http.MethodGet, "/api/v1/patients/P1/records", nil, as("D1", models.RoleDoctor))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `records_access_decisions_total{decision="deny",user_role="DOCTOR"} 1`)
}
