package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres/audit"
	"github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres/testhelper"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// newRepo sets up a test DB and returns a ready Repo + pool.
func newRepo(t *testing.T) (*audit.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return audit.New(pool), pool
}

func buildEvent(tenantID, actorID *uuid.UUID, eventType domain.AuditEventType, detail map[string]any) domain.AuditEvent {
	return domain.AuditEvent{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ActorID:   actorID,
		EventType: eventType,
		Detail:    detail,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// ---------------------------------------------------------------------------
// Create tests
// ---------------------------------------------------------------------------

func TestRepo_Create_HappyPath(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	tenant := testhelper.SeedTenant(t, pool)
	user := testhelper.SeedUser(t, pool, &tenant.ID, domain.UserRoleAnalyst)

	input := buildEvent(&tenant.ID, &user.ID, domain.AuditInspectionSave, map[string]any{
		"inspection_id": "abc",
		"risk_score":    float64(42),
	})

	got, err := repo.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	if got.ID != input.ID {
		t.Errorf("ID mismatch: got %s, want %s", got.ID, input.ID)
	}
	if got.TenantID == nil || *got.TenantID != tenant.ID {
		t.Errorf("TenantID mismatch: got %v, want %s", got.TenantID, tenant.ID)
	}
	if got.EventType != domain.AuditInspectionSave {
		t.Errorf("EventType mismatch: got %s", got.EventType)
	}
	if got.Detail["risk_score"] != float64(42) {
		t.Errorf("Detail[risk_score] mismatch: got %v", got.Detail["risk_score"])
	}
}

func TestRepo_Create_SystemEvent(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	got, err := repo.Create(context.Background(), buildEvent(nil, nil, domain.AuditSuperadminBootstrap, nil))
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	if got.TenantID != nil || got.ActorID != nil {
		t.Errorf("expected nil tenant and actor, got %v %v", got.TenantID, got.ActorID)
	}
	if got.Detail == nil {
		t.Error("Detail should be an empty map, not nil")
	}
}

func TestRepo_Create_UnknownTenant(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	bogus := uuid.New()
	_, err := repo.Create(context.Background(), buildEvent(&bogus, nil, domain.AuditTenantCreate, nil))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for FK violation, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// List tests
// ---------------------------------------------------------------------------

func TestRepo_List_FiltersByTenantAndType(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	a := testhelper.SeedTenant(t, pool)
	b := testhelper.SeedTenant(t, pool)

	for _, ev := range []domain.AuditEvent{
		buildEvent(&a.ID, nil, domain.AuditInspectionSave, nil),
		buildEvent(&a.ID, nil, domain.AuditEvidenceAttach, nil),
		buildEvent(&b.ID, nil, domain.AuditInspectionSave, nil),
	} {
		if _, err := repo.Create(ctx, ev); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.List(ctx, domain.AuditFilter{TenantID: &a.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events for tenant a, got %d", len(got))
	}

	et := domain.AuditInspectionSave
	got, err = repo.List(ctx, domain.AuditFilter{TenantID: &b.ID, EventType: &et})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EventType != et {
		t.Fatalf("expected one inspection_save for tenant b, got %+v", got)
	}
}

func TestRepo_List_NewestFirstWithLimit(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	tenant := testhelper.SeedTenant(t, pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	var last uuid.UUID
	for i := range 3 {
		ev := buildEvent(&tenant.ID, nil, domain.AuditInspectionSave, nil)
		ev.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if _, err := repo.Create(ctx, ev); err != nil {
			t.Fatalf("Create: %v", err)
		}
		last = ev.ID
	}

	got, err := repo.List(ctx, domain.AuditFilter{TenantID: &tenant.ID, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].ID != last {
		t.Errorf("expected newest event first, got %s", got[0].ID)
	}
}

func TestRepo_Append_Only(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	ev, err := repo.Create(ctx, buildEvent(nil, nil, domain.AuditSuperadminBootstrap, nil))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM audit_events WHERE id = $1`, ev.ID); err == nil {
		t.Fatal("expected DELETE to be rejected")
	}
}
