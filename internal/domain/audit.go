package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent is one append-only row of the audit trail.
// TenantID and ActorID are nil for system-wide or anonymous events.
type AuditEvent struct {
	ID        uuid.UUID
	TenantID  *uuid.UUID
	ActorID   *uuid.UUID
	EventType AuditEventType
	Detail    map[string]any
	CreatedAt time.Time
}

// NewAuditEvent builds an event stamped with a fresh id and the current UTC time.
func NewAuditEvent(actor Principal, tenantID *uuid.UUID, eventType AuditEventType, detail map[string]any) AuditEvent {
	if detail == nil {
		detail = map[string]any{}
	}
	if actor.Username != "" {
		detail["actor"] = actor.Username
	}
	return AuditEvent{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ActorID:   actor.ActorID(),
		EventType: eventType,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
}

// AuditFilter narrows an audit query. A nil TenantID means all tenants.
type AuditFilter struct {
	TenantID  *uuid.UUID
	EventType *AuditEventType
	Limit     int
}
