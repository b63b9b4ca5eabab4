package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the isolation boundary for users and data.
// Tenants are never deleted, only deactivated.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Active    bool
	CreatedAt time.Time
}
