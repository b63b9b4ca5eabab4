package access

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestGate(tenants tenantReader, audit auditLogger) *Gate {
	return NewGate(slog.New(slog.DiscardHandler), tenants, audit, nil)
}

func activeTenants() *tenantReaderMock {
	return &tenantReaderMock{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (domain.Tenant, error) {
			return domain.Tenant{ID: id, Name: "t", Active: true}, nil
		},
	}
}

func okAudit() *auditLoggerMock {
	return &auditLoggerMock{LogFunc: func(context.Context, domain.AuditEvent) error { return nil }}
}

func principal(role domain.UserRole, tenantID *uuid.UUID) domain.Principal {
	return domain.Principal{UserID: uuid.New(), Username: "u", Role: role, TenantID: tenantID}
}

// ---------------------------------------------------------------------------
// Matrix
// ---------------------------------------------------------------------------

func TestAllowed_Matrix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action Action
		roles  map[domain.UserRole]bool
	}{
		{ActionTenantManage, map[domain.UserRole]bool{domain.UserRoleSuperadmin: true}},
		{ActionUserManage, map[domain.UserRole]bool{domain.UserRoleSuperadmin: true, domain.UserRoleTenantAdmin: true}},
		{ActionArtifactWrite, map[domain.UserRole]bool{domain.UserRoleSuperadmin: true, domain.UserRoleTenantAdmin: true, domain.UserRoleAnalyst: true}},
		{ActionEvidenceWrite, map[domain.UserRole]bool{domain.UserRoleSuperadmin: true, domain.UserRoleTenantAdmin: true, domain.UserRoleAnalyst: true}},
		{ActionDataRead, map[domain.UserRole]bool{
			domain.UserRoleSuperadmin: true, domain.UserRoleTenantAdmin: true, domain.UserRoleAnalyst: true,
			domain.UserRoleViewer: true, domain.UserRoleAuditor: true,
		}},
		{ActionVaultVerify, map[domain.UserRole]bool{domain.UserRoleSuperadmin: true, domain.UserRoleTenantAdmin: true, domain.UserRoleAuditor: true}},
		{ActionAuditRead, map[domain.UserRole]bool{domain.UserRoleSuperadmin: true, domain.UserRoleTenantAdmin: true, domain.UserRoleAuditor: true}},
		{ActionExport, map[domain.UserRole]bool{
			domain.UserRoleSuperadmin: true, domain.UserRoleTenantAdmin: true, domain.UserRoleAnalyst: true, domain.UserRoleAuditor: true,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			t.Parallel()
			for _, role := range domain.AllUserRoles() {
				assert.Equal(t, tt.roles[role], Allowed(role, tt.action), "role %s", role)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// ResolveTenant
// ---------------------------------------------------------------------------

func TestResolveTenant_ScopedRoleIgnoresRequest(t *testing.T) {
	t.Parallel()

	own, foreign := uuid.New(), uuid.New()
	for _, role := range []domain.UserRole{domain.UserRoleTenantAdmin, domain.UserRoleAnalyst, domain.UserRoleViewer} {
		got, err := ResolveTenant(principal(role, &own), &foreign)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, own, *got, "role %s", role)
	}
}

func TestResolveTenant_CrossTenantRole(t *testing.T) {
	t.Parallel()

	requested := uuid.New()
	got, err := ResolveTenant(principal(domain.UserRoleAuditor, nil), &requested)
	require.NoError(t, err)
	assert.Equal(t, requested, *got)

	got, err = ResolveTenant(principal(domain.UserRoleSuperadmin, nil), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveTenant_ScopedRoleWithoutTenant(t *testing.T) {
	t.Parallel()

	_, err := ResolveTenant(principal(domain.UserRoleAnalyst, nil), nil)
	assert.ErrorIs(t, err, domain.ErrPermission)
}

// ---------------------------------------------------------------------------
// Authorize
// ---------------------------------------------------------------------------

func TestAuthorize_AuditorWriteDeniedAndAudited(t *testing.T) {
	t.Parallel()

	audit := okAudit()
	g := newTestGate(activeTenants(), audit)
	tenantID := uuid.New()

	_, err := g.Authorize(context.Background(), principal(domain.UserRoleAuditor, nil), ActionArtifactWrite, &tenantID)

	var perr *domain.PermissionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "artifact.write", perr.Action)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	require.Len(t, audit.LogCalls(), 1)
	ev := audit.LogCalls()[0].Ev
	assert.Equal(t, domain.AuditPermissionDenied, ev.EventType)
	assert.Equal(t, "role not permitted", ev.Detail["reason"])
	assert.Equal(t, tenantID.String(), ev.Detail["requested_tenant"])
}

func TestAuthorize_ForcesOwnTenant(t *testing.T) {
	t.Parallel()

	tenants := activeTenants()
	g := newTestGate(tenants, okAudit())
	own, foreign := uuid.New(), uuid.New()

	got, err := g.Authorize(context.Background(), principal(domain.UserRoleAnalyst, &own), ActionArtifactWrite, &foreign)

	require.NoError(t, err)
	assert.Equal(t, own, *got)
	require.Len(t, tenants.GetByIDCalls(), 1)
	assert.Equal(t, own, tenants.GetByIDCalls()[0].ID)
}

func TestAuthorize_InactiveTenantRejectsWrites(t *testing.T) {
	t.Parallel()

	tenants := &tenantReaderMock{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (domain.Tenant, error) {
			return domain.Tenant{ID: id, Active: false}, nil
		},
	}
	audit := okAudit()
	g := newTestGate(tenants, audit)
	own := uuid.New()

	_, err := g.Authorize(context.Background(), principal(domain.UserRoleAnalyst, &own), ActionInspectionWrite, nil)
	assert.ErrorIs(t, err, domain.ErrPermission)
	assert.Len(t, audit.LogCalls(), 1)

	// Reads do not consult tenant state.
	_, err = g.Authorize(context.Background(), principal(domain.UserRoleAnalyst, &own), ActionDataRead, nil)
	assert.NoError(t, err)
}

func TestAuthorize_CrossTenantWriteNeedsTenant(t *testing.T) {
	t.Parallel()

	g := newTestGate(activeTenants(), okAudit())

	_, err := g.Authorize(context.Background(), principal(domain.UserRoleSuperadmin, nil), ActionArtifactWrite, nil)
	assert.ErrorIs(t, err, domain.ErrPermission)
}

func TestAuthorize_UnknownTenant(t *testing.T) {
	t.Parallel()

	tenants := &tenantReaderMock{
		GetByIDFunc: func(context.Context, uuid.UUID) (domain.Tenant, error) { return domain.Tenant{}, domain.ErrNotFound },
	}
	g := newTestGate(tenants, okAudit())
	requested := uuid.New()

	_, err := g.Authorize(context.Background(), principal(domain.UserRoleSuperadmin, nil), ActionEvidenceWrite, &requested)
	assert.ErrorIs(t, err, domain.ErrPermission)
}

func TestAuthorize_AuditFailureStillDenies(t *testing.T) {
	t.Parallel()

	audit := &auditLoggerMock{LogFunc: func(context.Context, domain.AuditEvent) error { return errors.New("db down") }}
	g := newTestGate(activeTenants(), audit)
	own := uuid.New()

	_, err := g.Authorize(context.Background(), principal(domain.UserRoleViewer, &own), ActionExport, nil)
	assert.ErrorIs(t, err, domain.ErrPermission)
}

func TestAuthorizeTenant_RequiresConcreteTenant(t *testing.T) {
	t.Parallel()

	g := newTestGate(activeTenants(), okAudit())

	_, err := g.AuthorizeTenant(context.Background(), principal(domain.UserRoleAuditor, nil), ActionDataRead, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
