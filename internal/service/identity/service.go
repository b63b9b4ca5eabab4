// Package identity manages tenants, users and login sessions.
package identity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/access"
)

// tenantRepo defines the tenant repository interface needed by identity service.
type tenantRepo interface {
	Create(ctx context.Context, t domain.Tenant) (domain.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Tenant, error)
	List(ctx context.Context, id *uuid.UUID) ([]domain.Tenant, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// userRepo defines the user repository interface needed by identity service.
type userRepo interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context, tenantID *uuid.UUID) ([]domain.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	SetRole(ctx context.Context, id uuid.UUID, role domain.UserRole, tenantID *uuid.UUID) error
	CountByRole(ctx context.Context, role domain.UserRole) (int, error)
}

// auditRepo defines the audit repository interface needed by identity service.
type auditRepo interface {
	Log(ctx context.Context, ev domain.AuditEvent) error
}

// txManager defines the transaction manager interface needed by identity service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// gate defines the authorization interface needed by identity service.
type gate interface {
	Authorize(ctx context.Context, actor domain.Principal, action access.Action, requested *uuid.UUID) (*uuid.UUID, error)
	Deny(ctx context.Context, actor domain.Principal, action access.Action, requested *uuid.UUID, reason string) error
}

// passwordHasher defines password hashing needed by identity service.
type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, stored string) bool
}

// tokenManager defines the access token interface needed by identity service.
type tokenManager interface {
	GenerateAccessToken(p domain.Principal) (string, error)
	ValidateAccessToken(token string) (domain.Principal, error)
}

// Service implements tenant, user and session operations.
type Service struct {
	log     *slog.Logger
	tenants tenantRepo
	users   userRepo
	audit   auditRepo
	tx      txManager
	gate    gate
	hasher  passwordHasher
	tokens  tokenManager
}

// NewService creates a new identity service instance.
func NewService(
	logger *slog.Logger,
	tenants tenantRepo,
	users userRepo,
	audit auditRepo,
	tx txManager,
	gate gate,
	hasher passwordHasher,
	tokens tokenManager,
) *Service {
	return &Service{
		log:     logger.With("service", "identity"),
		tenants: tenants,
		users:   users,
		audit:   audit,
		tx:      tx,
		gate:    gate,
		hasher:  hasher,
		tokens:  tokens,
	}
}
