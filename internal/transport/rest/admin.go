package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/identity"
)

// identityService defines the tenant and user operations needed by AdminHandler.
type identityService interface {
	CreateTenant(ctx context.Context, actor domain.Principal, input identity.CreateTenantInput) (domain.Tenant, error)
	DeactivateTenant(ctx context.Context, actor domain.Principal, tenantID uuid.UUID) error
	ListTenants(ctx context.Context, actor domain.Principal) ([]domain.Tenant, error)
	CreateUser(ctx context.Context, actor domain.Principal, input identity.CreateUserInput) (domain.User, error)
	DisableUser(ctx context.Context, actor domain.Principal, userID uuid.UUID) error
	EnableUser(ctx context.Context, actor domain.Principal, userID uuid.UUID) error
	ResetPassword(ctx context.Context, actor domain.Principal, userID uuid.UUID, password string) error
	SetRole(ctx context.Context, actor domain.Principal, userID uuid.UUID, role domain.UserRole, tenantID *uuid.UUID) (domain.User, error)
	ListUsers(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID) ([]domain.User, error)
}

// AdminHandler serves tenant and user management endpoints.
type AdminHandler struct {
	svc identityService
	log *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(svc identityService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: logger.With("handler", "admin")}
}

type createTenantRequest struct {
	Name string `json:"name"`
}

// CreateTenant handles POST /api/v1/tenants.
func (h *AdminHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	t, err := h.svc.CreateTenant(r.Context(), actor(r), identity.CreateTenantInput{Name: req.Name})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTenant(t))
}

// ListTenants handles GET /api/v1/tenants.
func (h *AdminHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListTenants(r.Context(), actor(r))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	out := make([]tenantResponse, len(list))
	for i, t := range list {
		out[i] = toTenant(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// DeactivateTenant handles POST /api/v1/tenants/{id}/deactivate.
func (h *AdminHandler) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.DeactivateTenant(r.Context(), actor(r), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

type createUserRequest struct {
	Username    string     `json:"username"`
	Password    string     `json:"password"`
	Role        string     `json:"role"`
	TenantID    *uuid.UUID `json:"tenant_id"`
	CrossTenant bool       `json:"cross_tenant"`
}

// CreateUser handles POST /api/v1/users.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	u, err := h.svc.CreateUser(r.Context(), actor(r), identity.CreateUserInput{
		Username:    req.Username,
		Password:    req.Password,
		Role:        domain.UserRole(req.Role),
		TenantID:    req.TenantID,
		CrossTenant: req.CrossTenant,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUser(u))
}

// ListUsers handles GET /api/v1/users?tenant_id=.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	tenantID, err := optionalUUID("tenant_id", r.URL.Query().Get("tenant_id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	list, err := h.svc.ListUsers(r.Context(), actor(r), tenantID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	out := make([]userResponse, len(list))
	for i, u := range list {
		out[i] = toUser(u)
	}
	writeJSON(w, http.StatusOK, out)
}

// DisableUser handles POST /api/v1/users/{id}/disable.
func (h *AdminHandler) DisableUser(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.DisableUser, "disabled")
}

// EnableUser handles POST /api/v1/users/{id}/enable.
func (h *AdminHandler) EnableUser(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.EnableUser, "enabled")
}

func (h *AdminHandler) toggle(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, domain.Principal, uuid.UUID) error, status string,
) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := fn(r.Context(), actor(r), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword handles POST /api/v1/users/{id}/password.
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.ResetPassword(r.Context(), actor(r), id, req.Password); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password_reset"})
}

type setRoleRequest struct {
	Role     string     `json:"role"`
	TenantID *uuid.UUID `json:"tenant_id"`
}

// SetRole handles POST /api/v1/users/{id}/role.
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req setRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	u, err := h.svc.SetRole(r.Context(), actor(r), id, domain.UserRole(req.Role), req.TenantID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}
