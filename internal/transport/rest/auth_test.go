package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/identity"
)

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	tenant := uuid.New()
	svc := &loginServiceMock{
		LoginFunc: func(ctx context.Context, input identity.LoginInput) (identity.LoginResult, error) {
			if input.Password != "secret" {
				return identity.LoginResult{}, domain.ErrUnauthorized
			}
			return identity.LoginResult{
				AccessToken: "tok",
				User:        domain.User{ID: uuid.New(), TenantID: &tenant, Username: input.Username, Role: domain.UserRoleAnalyst, Active: true},
			}, nil
		},
	}
	h := NewAuthHandler(svc, slog.New(slog.DiscardHandler))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"ana","password":"secret"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken != "tok" || resp.TokenType != "Bearer" {
		t.Errorf("unexpected token fields: %+v", resp)
	}
	if resp.User.Role != "analyst" || *resp.User.TenantID != tenant {
		t.Errorf("unexpected user: %+v", resp.User)
	}

	calls := svc.LoginCalls()
	if len(calls) != 1 || calls[0].Input.Username != "ana" {
		t.Errorf("expected one Login call for ana, got %+v", calls)
	}
}

func TestAuthHandler_LoginErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"bad password", `{"username":"ana","password":"x"}`, domain.ErrUnauthorized, http.StatusUnauthorized},
		{"malformed body", `{"username":`, nil, http.StatusBadRequest},
		{"missing fields", `{}`, domain.NewValidationError("credentials", "required"), http.StatusBadRequest},
		{"catalog failure", `{"username":"ana","password":"x"}`, errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &loginServiceMock{
				LoginFunc: func(context.Context, identity.LoginInput) (identity.LoginResult, error) {
					return identity.LoginResult{}, tt.err
				},
			}
			h := NewAuthHandler(svc, slog.New(slog.DiscardHandler))

			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tt.body)))

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if strings.Contains(rec.Body.String(), "connection reset") {
				t.Error("internal error details must not leak")
			}
		})
	}
}
