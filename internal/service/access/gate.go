// Package access is the single authorization point for every privileged
// operation: role checks, tenant resolution and audited denials.
package access

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// Action names a guarded operation.
type Action string

const (
	ActionTenantManage    Action = "tenant.manage"
	ActionUserManage      Action = "user.manage"
	ActionArtifactWrite   Action = "artifact.write"
	ActionInspectionWrite Action = "inspection.write"
	ActionEvidenceWrite   Action = "evidence.write"
	ActionDataRead        Action = "data.read"
	ActionVaultVerify     Action = "vault.verify"
	ActionAuditRead       Action = "audit.read"
	ActionExport          Action = "export"
)

func (a Action) String() string { return string(a) }

// writes lists the actions that create rows. They require an active tenant.
var writes = map[Action]bool{
	ActionUserManage:      true,
	ActionArtifactWrite:   true,
	ActionInspectionWrite: true,
	ActionEvidenceWrite:   true,
	ActionExport:          true,
}

var matrix = map[Action][]domain.UserRole{
	ActionTenantManage:    {domain.UserRoleSuperadmin},
	ActionUserManage:      {domain.UserRoleSuperadmin, domain.UserRoleTenantAdmin},
	ActionArtifactWrite:   {domain.UserRoleSuperadmin, domain.UserRoleTenantAdmin, domain.UserRoleAnalyst},
	ActionInspectionWrite: {domain.UserRoleSuperadmin, domain.UserRoleTenantAdmin, domain.UserRoleAnalyst},
	ActionEvidenceWrite:   {domain.UserRoleSuperadmin, domain.UserRoleTenantAdmin, domain.UserRoleAnalyst},
	ActionDataRead:        domain.AllUserRoles(),
	ActionVaultVerify:     {domain.UserRoleSuperadmin, domain.UserRoleTenantAdmin, domain.UserRoleAuditor},
	ActionAuditRead:       {domain.UserRoleSuperadmin, domain.UserRoleTenantAdmin, domain.UserRoleAuditor},
	ActionExport:          {domain.UserRoleSuperadmin, domain.UserRoleTenantAdmin, domain.UserRoleAnalyst, domain.UserRoleAuditor},
}

// Allowed reports whether role may perform action at all.
func Allowed(role domain.UserRole, action Action) bool {
	for _, r := range matrix[action] {
		if r == role {
			return true
		}
	}
	return false
}

type tenantReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Tenant, error)
}

type auditLogger interface {
	Log(ctx context.Context, ev domain.AuditEvent) error
}

type deniedRecorder interface {
	ObserveDenied(action string)
}

// Gate authorizes actors and records rejected attempts.
type Gate struct {
	log     *slog.Logger
	tenants tenantReader
	audit   auditLogger
	metrics deniedRecorder
}

// NewGate creates a Gate. metrics may be nil.
func NewGate(logger *slog.Logger, tenants tenantReader, audit auditLogger, metrics deniedRecorder) *Gate {
	return &Gate{
		log:     logger.With("service", "access"),
		tenants: tenants,
		audit:   audit,
		metrics: metrics,
	}
}

// ResolveTenant returns the tenant an actor operates on. Roles bound to a
// tenant always get their own tenant, whatever was requested. Cross-tenant
// roles get the requested tenant, which may be nil meaning all tenants.
func ResolveTenant(actor domain.Principal, requested *uuid.UUID) (*uuid.UUID, error) {
	if actor.Role.IsCrossTenant() {
		if requested == nil {
			return nil, nil
		}
		id := *requested
		return &id, nil
	}
	if actor.TenantID == nil {
		return nil, &domain.PermissionError{Role: actor.Role, Reason: "no tenant bound to user"}
	}
	id := *actor.TenantID
	return &id, nil
}

// Authorize checks action for actor and resolves the tenant scope. The
// returned tenant is nil only for cross-tenant actors that requested no
// tenant on a non-write action. Write actions additionally require an active
// tenant. Every rejection is logged, counted and audited before returning a
// *domain.PermissionError.
func (g *Gate) Authorize(ctx context.Context, actor domain.Principal, action Action, requested *uuid.UUID) (*uuid.UUID, error) {
	if !actor.Role.IsValid() {
		return nil, g.Deny(ctx, actor, action, requested, "unknown role")
	}
	if !Allowed(actor.Role, action) {
		return nil, g.Deny(ctx, actor, action, requested, "role not permitted")
	}

	tenantID, err := ResolveTenant(actor, requested)
	if err != nil {
		return nil, g.Deny(ctx, actor, action, requested, "no tenant bound to user")
	}

	if !writes[action] {
		return tenantID, nil
	}
	if tenantID == nil {
		return nil, g.Deny(ctx, actor, action, requested, "tenant required")
	}
	t, err := g.tenants.GetByID(ctx, *tenantID)
	if err != nil {
		return nil, g.Deny(ctx, actor, action, requested, "unknown tenant")
	}
	if !t.Active {
		return nil, g.Deny(ctx, actor, action, requested, "tenant inactive")
	}
	return tenantID, nil
}

// AuthorizeTenant is Authorize for operations that need one concrete tenant.
func (g *Gate) AuthorizeTenant(ctx context.Context, actor domain.Principal, action Action, requested *uuid.UUID) (uuid.UUID, error) {
	tenantID, err := g.Authorize(ctx, actor, action, requested)
	if err != nil {
		return uuid.Nil, err
	}
	if tenantID == nil {
		return uuid.Nil, domain.NewValidationError("tenant_id", "required")
	}
	return *tenantID, nil
}

// Deny records a rejected attempt and returns the error to surface. Call it
// outside a transaction: the audit row must persist when the caller's work
// does not.
func (g *Gate) Deny(ctx context.Context, actor domain.Principal, action Action, requested *uuid.UUID, reason string) error {
	detail := map[string]any{
		"action": action.String(),
		"reason": reason,
		"role":   actor.Role.String(),
	}
	if requested != nil {
		detail["requested_tenant"] = requested.String()
	}

	g.log.WarnContext(ctx, "permission denied",
		slog.String("action", action.String()),
		slog.String("role", actor.Role.String()),
		slog.String("reason", reason),
	)
	if g.metrics != nil {
		g.metrics.ObserveDenied(action.String())
	}

	ev := domain.NewAuditEvent(actor, actor.TenantID, domain.AuditPermissionDenied, detail)
	if err := g.audit.Log(context.WithoutCancel(ctx), ev); err != nil {
		g.log.ErrorContext(ctx, "audit permission denied", slog.String("error", err.Error()))
	}

	return &domain.PermissionError{Action: action.String(), Role: actor.Role, Reason: reason}
}
