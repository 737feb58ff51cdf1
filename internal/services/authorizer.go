package services

import (
	"context"
	"errors"

	"sovereign-health-server/internal/logger"
	"sovereign-health-server/internal/metrics"
	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/repository"
)

// Denial messages for the records read path.
const (
	msgPatientOwnRecordsOnly = "You can only view your own records."
	msgNoValidConsent        = "Access denied. No valid consent found."
	msgRoleNotPermitted      = "Your role is not permitted to read patient records."
)

// Decide is the records.read policy, first match wins. consent is the
// stored (patientID, caller) row for doctors and is ignored for every other role;
// nil means no row exists.
func Decide(caller Identity, patientID string, consent *models.Consent) error {
	switch caller.Role {
	case models.RolePatient:
		if caller.ID != patientID {
			return newForbidden(msgPatientOwnRecordsOnly)
		}
		return nil
	case models.RoleDoctor:
		// Revoked and absent consents share one message.
		if consent == nil || consent.Status != models.ConsentGranted {
			return newForbidden(msgNoValidConsent)
		}
		return nil
	default:
		return newForbidden(msgRoleNotPermitted)
	}
}

// AccessAuthorizer loads the consent state Decide needs and records the outcome.
type AccessAuthorizer struct {
	consents ConsentRepository
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewAccessAuthorizer creates a new AccessAuthorizer.
func NewAccessAuthorizer(consents ConsentRepository, log *logger.Logger, m *metrics.Metrics) *AccessAuthorizer {
	return &AccessAuthorizer{consents: consents, log: log, metrics: m}
}

// AuthorizeRecordsRead returns nil when caller may read all of patientID's records.
func (a *AccessAuthorizer) AuthorizeRecordsRead(ctx context.Context, caller Identity, patientID string) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}

	var consent *models.Consent
	if caller.Role == models.RoleDoctor {
		c, err := a.consents.FindByPair(ctx, patientID, caller.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return newInternal(err)
		default:
			consent = c
		}
	}

	err := Decide(caller, patientID, consent)
	allowed := err == nil
	a.metrics.RecordAccessDecision(string(caller.Role), allowed)
	a.log.PHIAccess(caller.ID, patientID, "records.read", allowed, map[string]interface{}{"role": caller.Role})
	return err
}
