package services

import "sovereign-health-server/internal/models"

// Identity is the already-authenticated caller handed in by the transport.
// The zero value means "no identity".
type Identity struct {
	ID   string
	Role models.Role
}

// Present reports whether a caller identity was supplied.
func (i Identity) Present() bool {
	return i.ID != ""
}

func (i Identity) is(role models.Role) bool {
	return i.Present() && i.Role == role
}

func requireIdentity(id Identity) error {
	if !id.Present() {
		return newUnauthorized("authentication required")
	}
	return nil
}
