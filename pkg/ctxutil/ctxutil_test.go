package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

func TestWithPrincipal_And_PrincipalFromCtx(t *testing.T) {
	t.Parallel()

	tenant := uuid.New()
	p := domain.Principal{UserID: uuid.New(), Username: "ana", TenantID: &tenant, Role: domain.UserRoleAnalyst}
	ctx := WithPrincipal(context.Background(), p)

	got, ok := PrincipalFromCtx(ctx)
	if !ok {
		t.Fatal("expected ok=true for valid principal")
	}
	if got.UserID != p.UserID || got.Role != p.Role || *got.TenantID != tenant {
		t.Fatalf("expected %+v, got %+v", p, got)
	}
}

func TestPrincipalFromCtx_EmptyContext(t *testing.T) {
	t.Parallel()

	_, ok := PrincipalFromCtx(context.Background())
	if ok {
		t.Fatal("expected ok=false for empty context")
	}
}

func TestPrincipalFromCtx_NilUserID(t *testing.T) {
	t.Parallel()

	ctx := WithPrincipal(context.Background(), domain.SystemPrincipal())

	_, ok := PrincipalFromCtx(ctx)
	if ok {
		t.Fatal("expected ok=false for the system principal")
	}
}

func TestPrincipalFromCtx_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ctxKey("principal"), "superadmin")

	_, ok := PrincipalFromCtx(ctx)
	if ok {
		t.Fatal("expected ok=false for wrong type")
	}
}

func TestWithRequestID_And_RequestIDFromCtx(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-123")

	got := RequestIDFromCtx(ctx)
	if got != "req-123" {
		t.Fatalf("expected req-123, got %s", got)
	}
}

func TestRequestIDFromCtx_EmptyContext(t *testing.T) {
	t.Parallel()

	got := RequestIDFromCtx(context.Background())
	if got != "" {
		t.Fatalf("expected empty string, got %s", got)
	}
}

func TestRequestIDFromCtx_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ctxKey("request_id"), 12345)

	got := RequestIDFromCtx(ctx)
	if got != "" {
		t.Fatalf("expected empty string, got %s", got)
	}
}
