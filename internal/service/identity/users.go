package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/access"
)

// CreateUser creates an active user. Superadmins may create users in any
// tenant and unbound auditors; tenant admins create analysts and viewers in
// their own tenant.
func (s *Service) CreateUser(ctx context.Context, actor domain.Principal, input CreateUserInput) (domain.User, error) {
	if err := input.Validate(); err != nil {
		return domain.User{}, err
	}

	var tenantID *uuid.UUID
	if input.CrossTenant {
		if _, err := s.gate.Authorize(ctx, actor, access.ActionTenantManage, nil); err != nil {
			return domain.User{}, err
		}
	} else {
		var err error
		tenantID, err = s.gate.Authorize(ctx, actor, access.ActionUserManage, input.TenantID)
		if err != nil {
			return domain.User{}, err
		}
	}
	if !canGrant(actor.Role, input.Role) {
		return domain.User{}, s.gate.Deny(ctx, actor, access.ActionUserManage, tenantID, "role "+input.Role.String()+" not grantable")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("identity.CreateUser hash: %w", err)
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Username:     NormalizeUsername(input.Username),
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return domain.User{}, err
	}

	var created domain.User
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.users.Create(ctx, u)
		if err != nil {
			return err
		}
		return s.audit.Log(ctx, domain.NewAuditEvent(actor, tenantID, domain.AuditUserCreate, map[string]any{
			"user_id":  created.ID.String(),
			"username": created.Username,
			"role":     created.Role.String(),
		}))
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("identity.CreateUser: %w", err)
	}

	s.log.InfoContext(ctx, "user created",
		slog.String("user_id", created.ID.String()),
		slog.String("role", created.Role.String()),
	)
	return created, nil
}

// DisableUser deactivates a user. Disabled users cannot log in and their
// existing tokens stop authenticating.
func (s *Service) DisableUser(ctx context.Context, actor domain.Principal, userID uuid.UUID) error {
	if userID == actor.UserID {
		return domain.NewValidationError("user_id", "cannot disable yourself")
	}
	return s.setActive(ctx, actor, userID, false)
}

// EnableUser re-activates a previously disabled user.
func (s *Service) EnableUser(ctx context.Context, actor domain.Principal, userID uuid.UUID) error {
	return s.setActive(ctx, actor, userID, true)
}

func (s *Service) setActive(ctx context.Context, actor domain.Principal, userID uuid.UUID, active bool) error {
	target, err := s.loadManaged(ctx, actor, userID)
	if err != nil {
		return err
	}

	event := domain.AuditUserDisable
	if active {
		event = domain.AuditUserEnable
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.SetActive(ctx, userID, active); err != nil {
			return err
		}
		return s.audit.Log(ctx, domain.NewAuditEvent(actor, target.TenantID, event, map[string]any{
			"user_id":  userID.String(),
			"username": target.Username,
		}))
	})
	if err != nil {
		return fmt.Errorf("identity.setActive: %w", err)
	}

	s.log.InfoContext(ctx, "user active state changed",
		slog.String("user_id", userID.String()),
		slog.Bool("active", active),
	)
	return nil
}

// ResetPassword replaces a user's password.
func (s *Service) ResetPassword(ctx context.Context, actor domain.Principal, userID uuid.UUID, password string) error {
	if errs := passwordErrors(password); len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	target, err := s.loadManaged(ctx, actor, userID)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("identity.ResetPassword hash: %w", err)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.SetPasswordHash(ctx, userID, hash); err != nil {
			return err
		}
		return s.audit.Log(ctx, domain.NewAuditEvent(actor, target.TenantID, domain.AuditPasswordReset, map[string]any{
			"user_id": userID.String(),
		}))
	})
	if err != nil {
		return fmt.Errorf("identity.ResetPassword: %w", err)
	}

	s.log.InfoContext(ctx, "password reset", slog.String("user_id", userID.String()))
	return nil
}

// SetRole changes the role of a user. tenantID is only honoured for
// superadmins; an auditor may be moved to no tenant.
func (s *Service) SetRole(ctx context.Context, actor domain.Principal, userID uuid.UUID, role domain.UserRole, tenantID *uuid.UUID) (domain.User, error) {
	if !role.IsValid() {
		return domain.User{}, domain.NewValidationError("role", "invalid role")
	}
	if userID == actor.UserID {
		return domain.User{}, domain.NewValidationError("role", "cannot change your own role")
	}
	target, err := s.loadManaged(ctx, actor, userID)
	if err != nil {
		return domain.User{}, err
	}
	if !canGrant(actor.Role, role) {
		return domain.User{}, s.gate.Deny(ctx, actor, access.ActionUserManage, target.TenantID, "role "+role.String()+" not grantable")
	}

	newTenant := target.TenantID
	if actor.Role == domain.UserRoleSuperadmin {
		newTenant = tenantID
		if newTenant == nil && !role.IsCrossTenant() {
			newTenant = target.TenantID
		}
	}
	candidate := target
	candidate.Role, candidate.TenantID = role, newTenant
	if err := candidate.Validate(); err != nil {
		return domain.User{}, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.SetRole(ctx, userID, role, newTenant); err != nil {
			return err
		}
		detail := map[string]any{
			"user_id":  userID.String(),
			"old_role": target.Role.String(),
			"new_role": role.String(),
		}
		if newTenant != nil {
			detail["tenant_id"] = newTenant.String()
		}
		return s.audit.Log(ctx, domain.NewAuditEvent(actor, newTenant, domain.AuditRoleChange, detail))
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("identity.SetRole: %w", err)
	}

	s.log.InfoContext(ctx, "user role updated",
		slog.String("target_user_id", userID.String()),
		slog.String("new_role", role.String()),
	)
	return s.users.GetByID(ctx, userID)
}

// ListUsers lists users of the resolved tenant. Superadmins may pass nil to
// list every user.
func (s *Service) ListUsers(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID) ([]domain.User, error) {
	if !access.Allowed(actor.Role, access.ActionUserManage) {
		return nil, s.gate.Deny(ctx, actor, access.ActionUserManage, tenantID, "role not permitted")
	}
	scope, err := access.ResolveTenant(actor, tenantID)
	if err != nil {
		return nil, s.gate.Deny(ctx, actor, access.ActionUserManage, tenantID, "no tenant bound to user")
	}
	users, err := s.users.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("identity.ListUsers: %w", err)
	}
	return users, nil
}

// loadManaged returns a user the actor may administer. Unbound users are
// managed by superadmins only. Tenant admins manage the roles they can grant
// inside their own tenant.
func (s *Service) loadManaged(ctx context.Context, actor domain.Principal, userID uuid.UUID) (domain.User, error) {
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("identity: load user: %w", err)
	}

	if target.TenantID == nil {
		if _, err := s.gate.Authorize(ctx, actor, access.ActionTenantManage, nil); err != nil {
			return domain.User{}, err
		}
		return target, nil
	}

	scope, err := s.gate.Authorize(ctx, actor, access.ActionUserManage, target.TenantID)
	if err != nil {
		return domain.User{}, err
	}
	if *scope != *target.TenantID {
		return domain.User{}, s.gate.Deny(ctx, actor, access.ActionUserManage, target.TenantID, "user belongs to another tenant")
	}
	if actor.Role != domain.UserRoleSuperadmin && !canGrant(actor.Role, target.Role) {
		return domain.User{}, s.gate.Deny(ctx, actor, access.ActionUserManage, target.TenantID, "cannot manage role "+target.Role.String())
	}
	return target, nil
}
