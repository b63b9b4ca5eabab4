package vault

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/access"
)

// AuditQuery narrows ListAuditEvents.
type AuditQuery struct {
	TenantID  *uuid.UUID
	EventType *domain.AuditEventType
	Limit     int
}

// ListAuditEvents returns audit events newest first. Cross-tenant roles may
// pass a nil tenant to see every tenant and system-wide events.
func (s *Service) ListAuditEvents(ctx context.Context, actor domain.Principal, q AuditQuery) ([]domain.AuditEvent, error) {
	scope, err := s.gate.Authorize(ctx, actor, access.ActionAuditRead, q.TenantID)
	if err != nil {
		return nil, err
	}
	if q.EventType != nil && !q.EventType.IsValid() {
		return nil, domain.NewValidationError("event_type", "unknown event type")
	}
	events, err := s.audit.List(ctx, domain.AuditFilter{
		TenantID:  scope,
		EventType: q.EventType,
		Limit:     clampLimit(q.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("vault.ListAuditEvents: %w", err)
	}
	return events, nil
}
