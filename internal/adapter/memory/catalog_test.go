package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

func seedTenant(t *testing.T, c *Catalog, name string) domain.Tenant {
	t.Helper()
	ten, err := c.Tenants.Create(context.Background(), domain.Tenant{ID: uuid.New(), Name: name, Active: true, CreatedAt: time.Now()})
	require.NoError(t, err)
	return ten
}

func TestTenantRepo_UniqueName(t *testing.T) {
	t.Parallel()
	c := New()
	seedTenant(t, c, "acme")

	_, err := c.Tenants.Create(context.Background(), domain.Tenant{ID: uuid.New(), Name: "acme"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestUserRepo_Constraints(t *testing.T) {
	t.Parallel()
	c := New()
	ctx := context.Background()
	ten := seedTenant(t, c, "acme")

	_, err := c.Users.Create(ctx, domain.User{ID: uuid.New(), Username: "v", Role: domain.UserRoleViewer})
	assert.ErrorIs(t, err, domain.ErrValidation, "scoped role without tenant")

	bogus := uuid.New()
	_, err = c.Users.Create(ctx, domain.User{ID: uuid.New(), Username: "v", Role: domain.UserRoleViewer, TenantID: &bogus})
	assert.ErrorIs(t, err, domain.ErrNotFound, "unknown tenant")

	u, err := c.Users.Create(ctx, domain.User{ID: uuid.New(), Username: "v", Role: domain.UserRoleViewer, TenantID: &ten.ID})
	require.NoError(t, err)

	_, err = c.Users.Create(ctx, domain.User{ID: uuid.New(), Username: "v", Role: domain.UserRoleAuditor})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	require.NoError(t, c.Users.SetRole(ctx, u.ID, domain.UserRoleAuditor, nil))
	got, err := c.Users.GetByUsername(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleAuditor, got.Role)
	assert.Nil(t, got.TenantID)

	assert.ErrorIs(t, c.Users.SetRole(ctx, u.ID, domain.UserRoleAnalyst, nil), domain.ErrValidation)
}

func TestArtifactRepo_VersionUniqueness(t *testing.T) {
	t.Parallel()
	c := New()
	ctx := context.Background()
	ten := seedTenant(t, c, "acme")

	a, err := c.Artifacts.LockOrCreate(ctx, domain.Artifact{ID: uuid.New(), TenantID: ten.ID, LogicalKey: "a.txt"})
	require.NoError(t, err)
	again, err := c.Artifacts.LockOrCreate(ctx, domain.Artifact{ID: uuid.New(), TenantID: ten.ID, LogicalKey: "a.txt"})
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID)

	_, err = c.Artifacts.LatestVersion(ctx, ten.ID, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	v := domain.ArtifactVersion{ID: uuid.New(), TenantID: ten.ID, ArtifactID: a.ID, VersionInt: 1}
	_, err = c.Artifacts.CreateVersion(ctx, v)
	require.NoError(t, err)

	v.ID = uuid.New()
	_, err = c.Artifacts.CreateVersion(ctx, v)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	other := seedTenant(t, c, "other")
	_, err = c.Artifacts.GetVersion(ctx, other.ID, v.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInspectionRepo_ReturnsCopies(t *testing.T) {
	t.Parallel()
	c := New()
	ctx := context.Background()
	ten := seedTenant(t, c, "acme")

	in := domain.Inspection{ID: uuid.New(), TenantID: ten.ID, Patterns: map[string]int{"SSN": 1}}
	_, err := c.Inspections.Create(ctx, in)
	require.NoError(t, err)
	in.Patterns["SSN"] = 99

	got, err := c.Inspections.GetByID(ctx, ten.ID, in.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Patterns["SSN"])

	owner, err := c.Inspections.TenantOf(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, ten.ID, owner)
}

func TestAuditRepo_ListNewestFirst(t *testing.T) {
	t.Parallel()
	c := New()
	ctx := context.Background()
	ten := seedTenant(t, c, "acme")

	base := time.Now()
	for i := range 3 {
		_, err := c.Audit.Create(ctx, domain.AuditEvent{
			ID: uuid.New(), TenantID: &ten.ID, EventType: domain.AuditInspectionSave, CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
	_, err := c.Audit.Create(ctx, domain.AuditEvent{ID: uuid.New(), EventType: domain.AuditSuperadminBootstrap, CreatedAt: base})
	require.NoError(t, err)

	got, err := c.Audit.List(ctx, domain.AuditFilter{TenantID: &ten.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].CreatedAt.After(got[1].CreatedAt))

	all, err := c.Audit.List(ctx, domain.AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestTxManager_SerializesAndNests(t *testing.T) {
	t.Parallel()
	c := New()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Tx.RunInTx(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				inside++
				maxSeen = max(maxSeen, inside)
				mu.Unlock()

				// Nested call must join instead of deadlocking.
				err := c.Tx.RunInTx(ctx, func(context.Context) error { return nil })

				mu.Lock()
				inside--
				mu.Unlock()
				return err
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)

	sentinel := errors.New("boom")
	assert.ErrorIs(t, c.Tx.RunInTx(context.Background(), func(context.Context) error { return sentinel }), sentinel)
}

func TestTxManager_RollsBackFailedTransaction(t *testing.T) {
	t.Parallel()
	c := New()
	ctx := context.Background()
	ten := seedTenant(t, c, "acme")
	u, err := c.Users.Create(ctx, domain.User{ID: uuid.New(), Username: "ana", Role: domain.UserRoleAnalyst, TenantID: &ten.ID})
	require.NoError(t, err)

	var outside domain.AuditEvent
	sentinel := errors.New("audit down")
	err = c.Tx.RunInTx(ctx, func(ctx context.Context) error {
		art, err := c.Artifacts.LockOrCreate(ctx, domain.Artifact{ID: uuid.New(), TenantID: ten.ID, LogicalKey: "memo.txt", CreatedAt: time.Now()})
		require.NoError(t, err)
		_, err = c.Artifacts.CreateVersion(ctx, domain.ArtifactVersion{
			ID: uuid.New(), TenantID: ten.ID, ArtifactID: art.ID, VersionInt: 1, UploadedBy: &u.ID,
		})
		require.NoError(t, err)
		require.NoError(t, c.Users.SetActive(ctx, u.ID, false))
		require.NoError(t, c.Audit.Log(ctx, domain.NewAuditEvent(domain.PrincipalFromUser(u), &ten.ID, domain.AuditArtifactVersionCreate, nil)))

		// Written outside the transaction; must survive the rollback.
		outside = domain.NewAuditEvent(domain.SystemPrincipal(), nil, domain.AuditPermissionDenied, nil)
		require.NoError(t, c.Audit.Log(context.Background(), outside))
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	versions, err := c.Artifacts.ListVersions(ctx, &ten.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, versions)
	assert.Empty(t, c.artifacts)

	got, err := c.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Active, "update undone")

	evs, err := c.Audit.List(ctx, domain.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, outside.ID, evs[0].ID)
}

func TestTxManager_RollsBackOnPanic(t *testing.T) {
	t.Parallel()
	c := New()

	assert.Panics(t, func() {
		_ = c.Tx.RunInTx(context.Background(), func(ctx context.Context) error {
			_, err := c.Tenants.Create(ctx, domain.Tenant{ID: uuid.New(), Name: "ghost", Active: true})
			require.NoError(t, err)
			panic("boom")
		})
	})

	list, err := c.Tenants.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTxManager_CommitKeepsWrites(t *testing.T) {
	t.Parallel()
	c := New()

	require.NoError(t, c.Tx.RunInTx(context.Background(), func(ctx context.Context) error {
		_, err := c.Tenants.Create(ctx, domain.Tenant{ID: uuid.New(), Name: "kept", Active: true})
		return err
	}))

	list, err := c.Tenants.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
