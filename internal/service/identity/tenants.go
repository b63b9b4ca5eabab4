package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/access"
)

// CreateTenant creates an active tenant (superadmin only).
func (s *Service) CreateTenant(ctx context.Context, actor domain.Principal, input CreateTenantInput) (domain.Tenant, error) {
	if _, err := s.gate.Authorize(ctx, actor, access.ActionTenantManage, nil); err != nil {
		return domain.Tenant{}, err
	}
	if err := input.Validate(); err != nil {
		return domain.Tenant{}, err
	}

	var created domain.Tenant
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.tenants.Create(ctx, domain.Tenant{
			ID:        uuid.New(),
			Name:      strings.TrimSpace(input.Name),
			Active:    true,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}
		return s.audit.Log(ctx, domain.NewAuditEvent(actor, &created.ID, domain.AuditTenantCreate, map[string]any{
			"name": created.Name,
		}))
	})
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("identity.CreateTenant: %w", err)
	}

	s.log.InfoContext(ctx, "tenant created",
		slog.String("tenant_id", created.ID.String()),
		slog.String("name", created.Name),
	)
	return created, nil
}

// DeactivateTenant disables a tenant. Its users can no longer log in and
// its data becomes read-only.
func (s *Service) DeactivateTenant(ctx context.Context, actor domain.Principal, tenantID uuid.UUID) error {
	if _, err := s.gate.Authorize(ctx, actor, access.ActionTenantManage, &tenantID); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.tenants.SetActive(ctx, tenantID, false); err != nil {
			return err
		}
		return s.audit.Log(ctx, domain.NewAuditEvent(actor, &tenantID, domain.AuditTenantDeactivate, nil))
	})
	if err != nil {
		return fmt.Errorf("identity.DeactivateTenant: %w", err)
	}

	s.log.InfoContext(ctx, "tenant deactivated", slog.String("tenant_id", tenantID.String()))
	return nil
}

// ListTenants returns every tenant for cross-tenant roles and only the
// caller's own tenant otherwise.
func (s *Service) ListTenants(ctx context.Context, actor domain.Principal) ([]domain.Tenant, error) {
	tenantID, err := s.gate.Authorize(ctx, actor, access.ActionDataRead, nil)
	if err != nil {
		return nil, err
	}
	tenants, err := s.tenants.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("identity.ListTenants: %w", err)
	}
	return tenants, nil
}
