package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// BootstrapSuperadmin creates the first superadmin. It fails with
// domain.ErrConflict once any superadmin exists.
func (s *Service) BootstrapSuperadmin(ctx context.Context, username, password string) (domain.User, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return domain.User{}, domain.NewValidationError("username", "required")
	}
	if errs := passwordErrors(password); len(errs) > 0 {
		return domain.User{}, domain.NewValidationErrors(errs)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("identity.BootstrapSuperadmin hash: %w", err)
	}

	var created domain.User
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		n, err := s.users.CountByRole(ctx, domain.UserRoleSuperadmin)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("superadmin already exists: %w", domain.ErrConflict)
		}

		now := time.Now().UTC()
		created, err = s.users.Create(ctx, domain.User{
			ID:           uuid.New(),
			Username:     username,
			PasswordHash: hash,
			Role:         domain.UserRoleSuperadmin,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		return s.audit.Log(ctx, domain.NewAuditEvent(domain.SystemPrincipal(), nil, domain.AuditSuperadminBootstrap, map[string]any{
			"user_id":  created.ID.String(),
			"username": created.Username,
		}))
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("identity.BootstrapSuperadmin: %w", err)
	}

	s.log.InfoContext(ctx, "superadmin bootstrapped", slog.String("user_id", created.ID.String()))
	return created, nil
}
