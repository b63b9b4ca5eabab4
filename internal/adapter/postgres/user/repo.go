// Package user implements the User repository using PostgreSQL.
package user

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

const table = "users"

var columns = []string{"id", "tenant_id", "username", "password_hash", "role", "active", "created_at", "updated_at"}

// Repo provides user persistence backed by PostgreSQL.
type Repo struct {
	db postgres.DB
}

// New creates a new user repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db}
}

type row struct {
	ID           uuid.UUID  `db:"id"`
	TenantID     *uuid.UUID `db:"tenant_id"`
	Username     string     `db:"username"`
	PasswordHash string     `db:"password_hash"`
	Role         string     `db:"role"`
	Active       bool       `db:"active"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (r row) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		TenantID:     r.TenantID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         domain.UserRole(r.Role),
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new user. A taken username maps to domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var out row
	err := postgres.Get(ctx, q, &out, postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(u.ID, u.TenantID, u.Username, u.PasswordHash, u.Role.String(), u.Active, u.CreatedAt, u.UpdatedAt).
		Suffix(postgres.Returning(columns)))
	if err != nil {
		return domain.User{}, postgres.MapError(err, "user", u.Username)
	}
	return out.toDomain(), nil
}

// SetActive enables or disables a user.
func (r *Repo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.update(ctx, id, map[string]any{"active": active})
}

// SetPasswordHash replaces the stored password hash.
func (r *Repo) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update(ctx, id, map[string]any{"password_hash": hash})
}

// SetRole changes the role and tenant binding of a user.
func (r *Repo) SetRole(ctx context.Context, id uuid.UUID, role domain.UserRole, tenantID *uuid.UUID) error {
	return r.update(ctx, id, map[string]any{"role": role.String(), "tenant_id": tenantID})
}

func (r *Repo) update(ctx context.Context, id uuid.UUID, set map[string]any) error {
	q := postgres.QuerierFromCtx(ctx, r.db)

	set["updated_at"] = sq.Expr("now()")
	n, err := postgres.Exec(ctx, q, postgres.Builder().
		Update(table).
		SetMap(set).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return postgres.MapError(err, "user", id)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a user by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id}, id)
}

// GetByUsername returns a user by its normalized username.
func (r *Repo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getOne(ctx, sq.Eq{"username": username}, username)
}

func (r *Repo) getOne(ctx context.Context, where sq.Eq, key any) (domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var out row
	if err := postgres.Get(ctx, q, &out, postgres.Builder().Select(columns...).From(table).Where(where)); err != nil {
		return domain.User{}, postgres.MapError(err, "user", key)
	}
	return out.toDomain(), nil
}

// List returns users ordered by username. A nil tenant lists every user.
func (r *Repo) List(ctx context.Context, tenantID *uuid.UUID) ([]domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	query := postgres.Builder().Select(columns...).From(table).OrderBy("username ASC")
	if tenantID != nil {
		query = query.Where(sq.Eq{"tenant_id": *tenantID})
	}

	var rows []row
	if err := postgres.Select(ctx, q, &rows, query); err != nil {
		return nil, postgres.MapError(err, "user", "list")
	}
	out := make([]domain.User, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}

// CountByRole returns how many users hold role.
func (r *Repo) CountByRole(ctx context.Context, role domain.UserRole) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var n int
	if err := postgres.Get(ctx, q, &n, postgres.Builder().
		Select("count(*)").
		From(table).
		Where(sq.Eq{"role": role.String()})); err != nil {
		return 0, postgres.MapError(err, "user", role)
	}
	return n, nil
}
