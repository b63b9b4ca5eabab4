package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// Login verifies credentials and issues an access token. Every outcome is
// audited. Unknown users, wrong passwords, disabled users and users of
// inactive tenants all yield domain.ErrUnauthorized.
func (s *Service) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	username := NormalizeUsername(input.Username)
	if username == "" || input.Password == "" {
		return LoginResult{}, domain.NewValidationError("credentials", "username and password required")
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.loginFailed(ctx, domain.User{Username: username}, "unknown user")
			return LoginResult{}, domain.ErrUnauthorized
		}
		return LoginResult{}, fmt.Errorf("identity.Login get user: %w", err)
	}

	if !s.hasher.Verify(input.Password, u.PasswordHash) {
		s.loginFailed(ctx, u, "bad password")
		return LoginResult{}, domain.ErrUnauthorized
	}
	if !u.Active {
		s.loginFailed(ctx, u, "user disabled")
		return LoginResult{}, domain.ErrUnauthorized
	}
	if reason, err := s.tenantBlocked(ctx, u); err != nil {
		return LoginResult{}, fmt.Errorf("identity.Login get tenant: %w", err)
	} else if reason != "" {
		s.loginFailed(ctx, u, reason)
		return LoginResult{}, domain.ErrUnauthorized
	}

	p := domain.PrincipalFromUser(u)
	token, err := s.tokens.GenerateAccessToken(p)
	if err != nil {
		return LoginResult{}, fmt.Errorf("identity.Login issue token: %w", err)
	}

	if err := s.audit.Log(ctx, domain.NewAuditEvent(p, u.TenantID, domain.AuditLoginSuccess, map[string]any{
		"role": u.Role.String(),
	})); err != nil {
		return LoginResult{}, fmt.Errorf("identity.Login audit: %w", err)
	}

	s.log.InfoContext(ctx, "user logged in", slog.String("user_id", u.ID.String()))
	return LoginResult{AccessToken: token, User: u}, nil
}

// Authenticate validates a token and reloads its user, so role changes and
// disables take effect before the token expires.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	claims, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return domain.Principal{}, domain.ErrUnauthorized
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Principal{}, domain.ErrUnauthorized
		}
		return domain.Principal{}, fmt.Errorf("identity.Authenticate: %w", err)
	}
	if !u.Active {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	if reason, err := s.tenantBlocked(ctx, u); err != nil {
		return domain.Principal{}, fmt.Errorf("identity.Authenticate: %w", err)
	} else if reason != "" {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return domain.PrincipalFromUser(u), nil
}

// tenantBlocked returns a non-empty reason when u is bound to a tenant that
// is missing or inactive.
func (s *Service) tenantBlocked(ctx context.Context, u domain.User) (string, error) {
	if u.TenantID == nil {
		return "", nil
	}
	t, err := s.tenants.GetByID(ctx, *u.TenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "tenant missing", nil
		}
		return "", err
	}
	if !t.Active {
		return "tenant inactive", nil
	}
	return "", nil
}

func (s *Service) loginFailed(ctx context.Context, u domain.User, reason string) {
	s.log.WarnContext(ctx, "login failed",
		slog.String("username", u.Username),
		slog.String("reason", reason),
	)
	ev := domain.NewAuditEvent(domain.Principal{}, u.TenantID, domain.AuditLoginFailure, map[string]any{
		"username": u.Username,
		"reason":   reason,
	})
	if err := s.audit.Log(ctx, ev); err != nil {
		s.log.ErrorContext(ctx, "audit login failure", slog.String("error", err.Error()))
	}
}
