package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// TenantRepo stores tenants.
type TenantRepo struct {
	c *Catalog
}

func (r *TenantRepo) Create(ctx context.Context, t domain.Tenant) (domain.Tenant, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if t.Name == "" {
		return domain.Tenant{}, domain.NewValidationError("name", "required")
	}
	for _, existing := range r.c.tenants {
		if existing.ID == t.ID || existing.Name == t.Name {
			return domain.Tenant{}, errAlreadyExists("tenant", t.Name)
		}
	}
	r.c.tenants[t.ID] = t
	r.c.onRollback(ctx, func() { delete(r.c.tenants, t.ID) })
	return t, nil
}

func (r *TenantRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Tenant, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	t, ok := r.c.tenants[id]
	if !ok {
		return domain.Tenant{}, notFound("tenant", id)
	}
	return t, nil
}

// List returns tenants ordered by name, or only id when non-nil.
func (r *TenantRepo) List(_ context.Context, id *uuid.UUID) ([]domain.Tenant, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	out := make([]domain.Tenant, 0, len(r.c.tenants))
	for _, t := range r.c.tenants {
		if id == nil || t.ID == *id {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b domain.Tenant) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *TenantRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	t, ok := r.c.tenants[id]
	if !ok {
		return notFound("tenant", id)
	}
	prev := t
	t.Active = active
	r.c.tenants[id] = t
	r.c.onRollback(ctx, func() { r.c.tenants[id] = prev })
	return nil
}

// UserRepo stores users.
type UserRepo struct {
	c *Catalog
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if err := u.Validate(); err != nil {
		return domain.User{}, err
	}
	if u.TenantID != nil && !r.c.tenantExists(*u.TenantID) {
		return domain.User{}, notFound("tenant", *u.TenantID)
	}
	for _, existing := range r.c.users {
		if existing.ID == u.ID || existing.Username == u.Username {
			return domain.User{}, errAlreadyExists("user", u.Username)
		}
	}
	r.c.users[u.ID] = u
	r.c.onRollback(ctx, func() { delete(r.c.users, u.ID) })
	return u, nil
}

func (r *UserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.update(ctx, id, func(u *domain.User) error {
		u.Active = active
		return nil
	})
}

func (r *UserRepo) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update(ctx, id, func(u *domain.User) error {
		u.PasswordHash = hash
		return nil
	})
}

func (r *UserRepo) SetRole(ctx context.Context, id uuid.UUID, role domain.UserRole, tenantID *uuid.UUID) error {
	return r.update(ctx, id, func(u *domain.User) error {
		if tenantID != nil && !r.c.tenantExists(*tenantID) {
			return notFound("tenant", *tenantID)
		}
		u.Role = role
		u.TenantID = tenantID
		return u.Validate()
	})
}

func (r *UserRepo) update(ctx context.Context, id uuid.UUID, fn func(u *domain.User) error) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	u, ok := r.c.users[id]
	if !ok {
		return notFound("user", id)
	}
	prev := u
	if err := fn(&u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	r.c.users[id] = u
	r.c.onRollback(ctx, func() { r.c.users[id] = prev })
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	u, ok := r.c.users[id]
	if !ok {
		return domain.User{}, notFound("user", id)
	}
	return u, nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	for _, u := range r.c.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, notFound("user", username)
}

// List returns users ordered by username. A nil tenant lists every user.
func (r *UserRepo) List(_ context.Context, tenantID *uuid.UUID) ([]domain.User, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	out := make([]domain.User, 0, len(r.c.users))
	for _, u := range r.c.users {
		if tenantID == nil || (u.TenantID != nil && *u.TenantID == *tenantID) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b domain.User) int { return cmp.Compare(a.Username, b.Username) })
	return out, nil
}

func (r *UserRepo) CountByRole(_ context.Context, role domain.UserRole) (int, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	n := 0
	for _, u := range r.c.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}
