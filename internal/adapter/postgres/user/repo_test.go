package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres/tenant"
	"github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres/testhelper"
	"github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres/user"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

func TestRepo_CreateAndLookup(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := user.New(pool)
	ctx := context.Background()
	ten := testhelper.SeedTenant(t, pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	in := domain.User{
		ID:           uuid.New(),
		TenantID:     &ten.ID,
		Username:     "analyst-" + uuid.NewString()[:8],
		PasswordHash: "hash",
		Role:         domain.UserRoleAnalyst,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := repo.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := in
	dup.ID = uuid.New()
	if _, err := repo.Create(ctx, dup); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for duplicate username, got %v", err)
	}

	got, err := repo.GetByUsername(ctx, in.Username)
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.ID != in.ID || got.Role != domain.UserRoleAnalyst {
		t.Fatalf("unexpected user: %+v", got)
	}

	if err := repo.SetActive(ctx, in.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	got, err = repo.GetByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Active {
		t.Fatal("expected user to be disabled")
	}
}

func TestRepo_TenantRequiredForScopedRole(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := user.New(pool)

	now := time.Now().UTC()
	_, err := repo.Create(context.Background(), domain.User{
		ID:        uuid.New(),
		Username:  "viewer-" + uuid.NewString()[:8],
		Role:      domain.UserRoleViewer,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation from check constraint, got %v", err)
	}
}

func TestRepo_SetActive_UnknownUser(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := user.New(pool)

	if err := repo.SetActive(context.Background(), uuid.New(), true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTenantRepo_SetActiveAndList(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := tenant.New(pool)
	ctx := context.Background()
	ten := testhelper.SeedTenant(t, pool)

	if err := repo.SetActive(ctx, ten.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	list, err := repo.List(ctx, &ten.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Active {
		t.Fatalf("expected one inactive tenant, got %+v", list)
	}
}
