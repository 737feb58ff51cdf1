// Package memory is a process-local implementation of the storage contracts,
// used for demos (STORAGE_DRIVER=memory) and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/repository"
)

// Store holds every table behind one lock so cross-table preloads see a
// consistent snapshot.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[string]models.User
	patients map[string]models.PatientProfile // by user id
	doctors  map[string]models.DoctorProfile  // by user id
	consents map[pairKey]models.Consent
	records  []models.MedicalRecord
	audit    []models.EmergencyAccessLog

	Consents *ConsentRepository
	Records  *RecordRepository
	Profiles *ProfileRepository
	Audit    *AuditRepository
	Users    *UserRepository
}

type pairKey struct{ patientID, doctorID string }

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{
		now:      func() time.Time { return time.Now().UTC() },
		users:    map[string]models.User{},
		patients: map[string]models.PatientProfile{},
		doctors:  map[string]models.DoctorProfile{},
		consents: map[pairKey]models.Consent{},
	}
	s.Consents = &ConsentRepository{s}
	s.Records = &RecordRepository{s}
	s.Profiles = &ProfileRepository{s}
	s.Audit = &AuditRepository{s}
	s.Users = &UserRepository{s}
	return s
}

// SetClock replaces the time source. Tests use it to get distinct timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) stamp(base *models.BaseModel) {
	t := s.now()
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = t
	}
	base.UpdatedAt = t
}

// userWithProfiles must be called with the lock held.
func (s *Store) userWithProfiles(id string) (models.User, bool) {
	u, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	if p, ok := s.patients[id]; ok {
		u.PatientProfile = &p
	}
	if d, ok := s.doctors[id]; ok {
		u.DoctorProfile = &d
	}
	return u, true
}

// ConsentRepository is the in-memory consent table.
type ConsentRepository struct{ s *Store }

func (r *ConsentRepository) Upsert(_ context.Context, patientID, doctorID string, status models.ConsentStatus) (*models.Consent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := pairKey{patientID, doctorID}
	c, ok := r.s.consents[key]
	if !ok {
		c = models.Consent{PatientID: patientID, DoctorID: doctorID}
	}
	c.Status = status
	r.s.stamp(&c.BaseModel)
	r.s.consents[key] = c
	return &c, nil
}

func (r *ConsentRepository) FindByPair(_ context.Context, patientID, doctorID string) (*models.Consent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.consents[pairKey{patientID, doctorID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *ConsentRepository) UpdateStatus(_ context.Context, patientID, doctorID string, status models.ConsentStatus) (*models.Consent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := pairKey{patientID, doctorID}
	c, ok := r.s.consents[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.Status = status
	r.s.stamp(&c.BaseModel)
	r.s.consents[key] = c
	return &c, nil
}

func (r *ConsentRepository) ListByPatient(_ context.Context, patientID string) ([]models.Consent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Consent{}
	for key, c := range r.s.consents {
		if key.patientID != patientID {
			continue
		}
		if u, ok := r.s.userWithProfiles(c.DoctorID); ok {
			c.Doctor = &u
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *ConsentRepository) ListGrantedByDoctor(_ context.Context, doctorID string) ([]models.Consent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Consent{}
	for key, c := range r.s.consents {
		if key.doctorID != doctorID || c.Status != models.ConsentGranted {
			continue
		}
		if u, ok := r.s.userWithProfiles(c.PatientID); ok {
			c.Patient = &u
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PatientID < out[j].PatientID })
	return out, nil
}

// RecordRepository is the in-memory, append-only record table.
type RecordRepository struct{ s *Store }

func (r *RecordRepository) Create(_ context.Context, record *models.MedicalRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.stamp(&record.BaseModel)
	r.s.records = append(r.s.records, *record)
	return nil
}

func (r *RecordRepository) ListByPatient(_ context.Context, patientID string) ([]models.MedicalRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.recordsOf(patientID), nil
}

// recordsOf returns newest first; must be called with the lock held.
func (s *Store) recordsOf(patientID string) []models.MedicalRecord {
	out := []models.MedicalRecord{}
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].PatientID == patientID {
			out = append(out, s.records[i])
		}
	}
	return out
}

// ProfileRepository is the in-memory patient profile table.
type ProfileRepository struct{ s *Store }

func (r *ProfileRepository) FindPatientProfile(_ context.Context, userID string) (*models.PatientProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.patients[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *ProfileRepository) FindPatientProfileWithRecords(_ context.Context, userID string) (*models.PatientProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.patients[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.MedicalRecords = r.s.recordsOf(userID)
	return &p, nil
}

func (r *ProfileRepository) SavePatientProfile(_ context.Context, profile *models.PatientProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.patients[profile.UserID]; ok {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
	}
	r.s.stamp(&profile.BaseModel)
	stored := *profile
	stored.MedicalRecords = nil
	r.s.patients[profile.UserID] = stored
	return nil
}

func (r *ProfileRepository) SearchPatientProfiles(_ context.Context, query string) ([]models.PatientProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.PatientProfile{}
	for _, p := range r.s.patients {
		if strings.Contains(p.Name, query) || strings.Contains(p.UserID, query) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AuditRepository is the in-memory emergency access log.
type AuditRepository struct{ s *Store }

func (r *AuditRepository) Append(_ context.Context, entry *models.EmergencyAccessLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.s.now()
	}
	r.s.audit = append(r.s.audit, *entry)
	return nil
}

func (r *AuditRepository) ListAll(_ context.Context) ([]models.EmergencyAccessLog, error) {
	return r.filter(func(models.EmergencyAccessLog) bool { return true }), nil
}

func (r *AuditRepository) ListByPatient(_ context.Context, patientID string) ([]models.EmergencyAccessLog, error) {
	return r.filter(func(l models.EmergencyAccessLog) bool { return l.PatientID == patientID }), nil
}

func (r *AuditRepository) ListByAccessor(_ context.Context, userID string) ([]models.EmergencyAccessLog, error) {
	return r.filter(func(l models.EmergencyAccessLog) bool { return l.AccessedBy == userID }), nil
}

func (r *AuditRepository) filter(keep func(models.EmergencyAccessLog) bool) []models.EmergencyAccessLog {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.EmergencyAccessLog{}
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		if keep(r.s.audit[i]) {
			out = append(out, r.s.audit[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// Len returns the number of audit entries.
func (r *AuditRepository) Len() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.audit)
}

// UserRepository is the in-memory account table.
type UserRepository struct{ s *Store }

func (r *UserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.userWithProfiles(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) FindByWallet(_ context.Context, walletAddress string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for id, u := range r.s.users {
		if u.WalletAddress == walletAddress {
			found, _ := r.s.userWithProfiles(id)
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.stamp(&user.BaseModel)
	if user.PatientProfile != nil {
		user.PatientProfile.UserID = user.ID
		r.s.stamp(&user.PatientProfile.BaseModel)
		r.s.patients[user.ID] = *user.PatientProfile
	}
	if user.DoctorProfile != nil {
		user.DoctorProfile.UserID = user.ID
		r.s.stamp(&user.DoctorProfile.BaseModel)
		r.s.doctors[user.ID] = *user.DoctorProfile
	}
	stored := *user
	stored.PatientProfile = nil
	stored.DoctorProfile = nil
	r.s.users[user.ID] = stored
	return nil
}
