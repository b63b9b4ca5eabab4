package identity

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genefryaustin-source/cui-inspector/internal/adapter/memory"
	"github.com/genefryaustin-source/cui-inspector/internal/auth"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/access"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

type fixture struct {
	svc    *Service
	cat    *memory.Catalog
	tokens *tokenManagerMock
	root   domain.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	cat := memory.New()
	gate := access.NewGate(logger, cat.Tenants, cat.Audit, nil)
	tokens := &tokenManagerMock{
		GenerateAccessTokenFunc: func(p domain.Principal) (string, error) { return "token-" + p.Username, nil },
	}
	svc := NewService(logger, cat.Tenants, cat.Users, cat.Audit, cat.Tx, gate, auth.NewPasswordHasher(1000), tokens)

	root, err := svc.BootstrapSuperadmin(context.Background(), "Root", "root-password")
	require.NoError(t, err)

	return &fixture{svc: svc, cat: cat, tokens: tokens, root: domain.PrincipalFromUser(root)}
}

func (f *fixture) tenant(t *testing.T, name string) domain.Tenant {
	t.Helper()
	ten, err := f.svc.CreateTenant(context.Background(), f.root, CreateTenantInput{Name: name})
	require.NoError(t, err)
	return ten
}

func (f *fixture) user(t *testing.T, actor domain.Principal, name string, role domain.UserRole, tenantID *uuid.UUID) domain.User {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), actor, CreateUserInput{
		Username: name, Password: "pw-" + name, Role: role, TenantID: tenantID,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) events(t *testing.T, et domain.AuditEventType) []domain.AuditEvent {
	t.Helper()
	evs, err := f.cat.Audit.List(context.Background(), domain.AuditFilter{EventType: &et})
	require.NoError(t, err)
	return evs
}

// ---------------------------------------------------------------------------
// Bootstrap
// ---------------------------------------------------------------------------

func TestBootstrapSuperadmin_OnlyOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	assert.Equal(t, "root", f.root.Username)
	assert.Nil(t, f.root.TenantID)

	_, err := f.svc.BootstrapSuperadmin(context.Background(), "second", "pw")
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, f.events(t, domain.AuditSuperadminBootstrap), 1)
}

// ---------------------------------------------------------------------------
// Tenants
// ---------------------------------------------------------------------------

func TestCreateTenant_SuperadminOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ten := f.tenant(t, " Acme ")
	assert.Equal(t, "Acme", ten.Name)

	admin := domain.PrincipalFromUser(f.user(t, f.root, "admin", domain.UserRoleTenantAdmin, &ten.ID))
	_, err := f.svc.CreateTenant(context.Background(), admin, CreateTenantInput{Name: "Other"})
	require.ErrorIs(t, err, domain.ErrPermission)
	assert.Len(t, f.events(t, domain.AuditPermissionDenied), 1)
}

func TestListTenants_ScopedToOwnTenant(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.tenant(t, "a")
	f.tenant(t, "b")

	all, err := f.svc.ListTenants(context.Background(), f.root)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	viewer := domain.PrincipalFromUser(f.user(t, f.root, "viewer", domain.UserRoleViewer, &a.ID))
	own, err := f.svc.ListTenants(context.Background(), viewer)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, a.ID, own[0].ID)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func TestCreateUser_TenantAdminForcedToOwnTenant(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a, b := f.tenant(t, "a"), f.tenant(t, "b")
	admin := domain.PrincipalFromUser(f.user(t, f.root, "admin", domain.UserRoleTenantAdmin, &a.ID))

	u := f.user(t, admin, "Analyst", domain.UserRoleAnalyst, &b.ID)

	require.NotNil(t, u.TenantID)
	assert.Equal(t, a.ID, *u.TenantID)
	assert.Equal(t, "analyst", u.Username)
}

func TestCreateUser_TenantAdminCannotGrantPrivilegedRoles(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.tenant(t, "a")
	admin := domain.PrincipalFromUser(f.user(t, f.root, "admin", domain.UserRoleTenantAdmin, &a.ID))

	for _, role := range []domain.UserRole{domain.UserRoleAuditor, domain.UserRoleSuperadmin, domain.UserRoleTenantAdmin} {
		_, err := f.svc.CreateUser(context.Background(), admin, CreateUserInput{
			Username: "x-" + role.String(), Password: "pw", Role: role, TenantID: &a.ID,
		})
		assert.ErrorIs(t, err, domain.ErrPermission, "role %s", role)
	}
}

func TestCreateUser_CrossTenantAuditor(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	u, err := f.svc.CreateUser(context.Background(), f.root, CreateUserInput{
		Username: "aud", Password: "pw", Role: domain.UserRoleAuditor, CrossTenant: true,
	})
	require.NoError(t, err)
	assert.Nil(t, u.TenantID)

	_, err = f.svc.CreateUser(context.Background(), f.root, CreateUserInput{
		Username: "bad", Password: "pw", Role: domain.UserRoleAnalyst, CrossTenant: true,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateUser_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.CreateUser(context.Background(), f.root, CreateUserInput{Role: "wizard"})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errors, 3)
}

func TestDisableEnableUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.tenant(t, "a")
	u := f.user(t, f.root, "bob", domain.UserRoleAnalyst, &a.ID)

	require.NoError(t, f.svc.DisableUser(ctx, f.root, u.ID))
	_, err := f.svc.Login(ctx, LoginInput{Username: "bob", Password: "pw-bob"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, f.svc.EnableUser(ctx, f.root, u.ID))
	_, err = f.svc.Login(ctx, LoginInput{Username: "bob", Password: "pw-bob"})
	require.NoError(t, err)

	assert.Len(t, f.events(t, domain.AuditUserDisable), 1)
	assert.Len(t, f.events(t, domain.AuditUserEnable), 1)
	assert.ErrorIs(t, f.svc.DisableUser(ctx, f.root, f.root.UserID), domain.ErrValidation)
}

func TestTenantAdminCannotManageForeignUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a, b := f.tenant(t, "a"), f.tenant(t, "b")
	admin := domain.PrincipalFromUser(f.user(t, f.root, "admin", domain.UserRoleTenantAdmin, &a.ID))
	foreign := f.user(t, f.root, "foreign", domain.UserRoleAnalyst, &b.ID)

	err := f.svc.DisableUser(context.Background(), admin, foreign.ID)
	require.ErrorIs(t, err, domain.ErrPermission)

	got, err := f.cat.Users.GetByID(context.Background(), foreign.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
}

func TestResetPassword(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.tenant(t, "a")
	u := f.user(t, f.root, "carol", domain.UserRoleViewer, &a.ID)

	require.NoError(t, f.svc.ResetPassword(ctx, f.root, u.ID, "new-secret"))

	_, err := f.svc.Login(ctx, LoginInput{Username: "carol", Password: "pw-carol"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.svc.Login(ctx, LoginInput{Username: "carol", Password: "new-secret"})
	require.NoError(t, err)
	assert.Len(t, f.events(t, domain.AuditPasswordReset), 1)
}

func TestSetRole(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.tenant(t, "a")
	u := f.user(t, f.root, "dave", domain.UserRoleViewer, &a.ID)

	got, err := f.svc.SetRole(ctx, f.root, u.ID, domain.UserRoleAnalyst, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleAnalyst, got.Role)
	assert.Equal(t, a.ID, *got.TenantID)

	got, err = f.svc.SetRole(ctx, f.root, u.ID, domain.UserRoleAuditor, nil)
	require.NoError(t, err)
	assert.Nil(t, got.TenantID)

	evs := f.events(t, domain.AuditRoleChange)
	require.Len(t, evs, 2)
	assert.Equal(t, "analyst", evs[0].Detail["old_role"])
}

func TestListUsers_Scoped(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a, b := f.tenant(t, "a"), f.tenant(t, "b")
	admin := domain.PrincipalFromUser(f.user(t, f.root, "admin", domain.UserRoleTenantAdmin, &a.ID))
	f.user(t, f.root, "other", domain.UserRoleAnalyst, &b.ID)

	users, err := f.svc.ListUsers(context.Background(), admin, &b.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)

	analyst := domain.PrincipalFromUser(f.user(t, f.root, "an", domain.UserRoleAnalyst, &a.ID))
	_, err = f.svc.ListUsers(context.Background(), analyst, nil)
	assert.ErrorIs(t, err, domain.ErrPermission)
}

// ---------------------------------------------------------------------------
// Login / Authenticate
// ---------------------------------------------------------------------------

func TestLogin_SuccessAndFailureAudited(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.tenant(t, "a")
	f.user(t, f.root, "erin", domain.UserRoleAnalyst, &a.ID)

	res, err := f.svc.Login(ctx, LoginInput{Username: " ERIN ", Password: "pw-erin"})
	require.NoError(t, err)
	assert.Equal(t, "token-erin", res.AccessToken)

	_, err = f.svc.Login(ctx, LoginInput{Username: "erin", Password: "wrong"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.svc.Login(ctx, LoginInput{Username: "nobody", Password: "x"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.Len(t, f.events(t, domain.AuditLoginSuccess), 1)
	failures := f.events(t, domain.AuditLoginFailure)
	require.Len(t, failures, 2)
	assert.Equal(t, "unknown user", failures[0].Detail["reason"])
	assert.Equal(t, "bad password", failures[1].Detail["reason"])
}

func TestLogin_InactiveTenant(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.tenant(t, "a")
	f.user(t, f.root, "frank", domain.UserRoleAnalyst, &a.ID)
	require.NoError(t, f.svc.DeactivateTenant(ctx, f.root, a.ID))

	_, err := f.svc.Login(ctx, LoginInput{Username: "frank", Password: "pw-frank"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_ReloadsUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.tenant(t, "a")
	u := f.user(t, f.root, "gina", domain.UserRoleViewer, &a.ID)

	f.tokens.ValidateAccessTokenFunc = func(string) (domain.Principal, error) {
		return domain.Principal{UserID: u.ID, Role: domain.UserRoleSuperadmin}, nil
	}

	p, err := f.svc.Authenticate(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleViewer, p.Role, "role comes from the stored user, not the token")

	require.NoError(t, f.svc.DisableUser(ctx, f.root, u.ID))
	_, err = f.svc.Authenticate(ctx, "tok")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.tokens.ValidateAccessTokenFunc = func(string) (domain.Principal, error) { return domain.Principal{}, errors.New("expired") }

	_, err := f.svc.Authenticate(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
