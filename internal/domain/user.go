package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a principal bound to at most one tenant.
// TenantID is nil only for cross-tenant roles.
type User struct {
	ID           uuid.UUID
	TenantID     *uuid.UUID
	Username     string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks the role and tenant pairing of a user.
func (u User) Validate() error {
	var errs []FieldError

	if u.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "required"})
	} else if len(u.Username) > 128 {
		errs = append(errs, FieldError{Field: "username", Message: "too long"})
	}
	if !u.Role.IsValid() {
		errs = append(errs, FieldError{Field: "role", Message: "invalid role"})
	} else if !u.Role.IsCrossTenant() && u.TenantID == nil {
		errs = append(errs, FieldError{Field: "tenant_id", Message: "required for role " + u.Role.String()})
	}

	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// Principal is the acting identity passed explicitly into every service call.
// A zero UserID denotes a system actor.
type Principal struct {
	UserID   uuid.UUID
	Username string
	TenantID *uuid.UUID
	Role     UserRole
}

// PrincipalFromUser builds a Principal for an authenticated user.
func PrincipalFromUser(u User) Principal {
	return Principal{
		UserID:   u.ID,
		Username: u.Username,
		TenantID: u.TenantID,
		Role:     u.Role,
	}
}

// SystemPrincipal is used by operator tooling that runs outside a login session.
func SystemPrincipal() Principal {
	return Principal{Username: "system", Role: UserRoleSuperadmin}
}

// ActorID returns the user id or nil for the system actor.
func (p Principal) ActorID() *uuid.UUID {
	if p.UserID == uuid.Nil {
		return nil
	}
	id := p.UserID
	return &id
}
