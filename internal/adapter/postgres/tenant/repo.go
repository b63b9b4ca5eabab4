// Package tenant implements the tenant repository using PostgreSQL.
package tenant

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

const table = "tenants"

var columns = []string{"id", "name", "active", "created_at"}

// Repo provides tenant persistence backed by PostgreSQL.
type Repo struct {
	db postgres.DB
}

// New creates a new tenant repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db}
}

type row struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

func (r row) toDomain() domain.Tenant {
	return domain.Tenant{ID: r.ID, Name: r.Name, Active: r.Active, CreatedAt: r.CreatedAt}
}

// Create inserts a tenant. A duplicate name maps to domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, t domain.Tenant) (domain.Tenant, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var out row
	err := postgres.Get(ctx, q, &out, postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(t.ID, t.Name, t.Active, t.CreatedAt).
		Suffix(postgres.Returning(columns)))
	if err != nil {
		return domain.Tenant{}, postgres.MapError(err, "tenant", t.Name)
	}
	return out.toDomain(), nil
}

// GetByID returns a tenant by id.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Tenant, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var out row
	err := postgres.Get(ctx, q, &out, postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.Tenant{}, postgres.MapError(err, "tenant", id)
	}
	return out.toDomain(), nil
}

// List returns tenants ordered by name. A nil id lists every tenant.
func (r *Repo) List(ctx context.Context, id *uuid.UUID) ([]domain.Tenant, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	query := postgres.Builder().Select(columns...).From(table).OrderBy("name ASC")
	if id != nil {
		query = query.Where(sq.Eq{"id": *id})
	}

	var rows []row
	if err := postgres.Select(ctx, q, &rows, query); err != nil {
		return nil, postgres.MapError(err, "tenant", "list")
	}
	out := make([]domain.Tenant, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}

// SetActive flips the active flag. Returns domain.ErrNotFound for an unknown id.
func (r *Repo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	q := postgres.QuerierFromCtx(ctx, r.db)

	n, err := postgres.Exec(ctx, q, postgres.Builder().
		Update(table).
		Set("active", active).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return postgres.MapError(err, "tenant", id)
	}
	if n == 0 {
		return fmt.Errorf("tenant %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
