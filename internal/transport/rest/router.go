package rest

import (
	"net/http"

	"github.com/genefryaustin-source/cui-inspector/internal/transport/middleware"
)

// Handlers groups every HTTP handler served by the API.
type Handlers struct {
	Health *HealthHandler
	Auth   *AuthHandler
	Admin  *AdminHandler
	Scan   *ScanHandler
	Vault  *VaultHandler
}

// RouterOptions configures route registration.
type RouterOptions struct {
	// LoginLimit throttles the login route. Nil disables throttling.
	LoginLimit middleware.Middleware
	// MetricsPath and Metrics expose the Prometheus handler when both are set.
	MetricsPath string
	Metrics     http.Handler
}

// NewRouter registers every route on a new ServeMux. API routes other
// than login require an authenticated principal.
func NewRouter(h Handlers, opts RouterOptions) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)
	if opts.Metrics != nil && opts.MetricsPath != "" {
		mux.Handle("GET "+opts.MetricsPath, opts.Metrics)
	}

	var login http.Handler = http.HandlerFunc(h.Auth.Login)
	if opts.LoginLimit != nil {
		login = opts.LoginLimit(login)
	}
	mux.Handle("POST /api/v1/auth/login", login)

	protected := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, middleware.RequireAuth(fn))
	}

	protected("POST /api/v1/analyze", h.Scan.Analyze)
	protected("GET /api/v1/rulesets", h.Scan.Rulesets)

	protected("POST /api/v1/tenants", h.Admin.CreateTenant)
	protected("GET /api/v1/tenants", h.Admin.ListTenants)
	protected("POST /api/v1/tenants/{id}/deactivate", h.Admin.DeactivateTenant)
	protected("POST /api/v1/users", h.Admin.CreateUser)
	protected("GET /api/v1/users", h.Admin.ListUsers)
	protected("POST /api/v1/users/{id}/disable", h.Admin.DisableUser)
	protected("POST /api/v1/users/{id}/enable", h.Admin.EnableUser)
	protected("POST /api/v1/users/{id}/password", h.Admin.ResetPassword)
	protected("POST /api/v1/users/{id}/role", h.Admin.SetRole)

	protected("POST /api/v1/scans", h.Scan.Scan)
	protected("POST /api/v1/scans/text", h.Scan.ScanText)
	protected("POST /api/v1/scans/bulk", h.Scan.Bulk)

	protected("GET /api/v1/inspections", h.Vault.ListInspections)
	protected("GET /api/v1/inspections/compare", h.Vault.Compare)
	protected("GET /api/v1/inspections/{id}/evidence", h.Vault.ListEvidence)
	protected("POST /api/v1/inspections/{id}/evidence", h.Vault.AttachEvidence)
	protected("GET /api/v1/inspections/{id}/evidence/{evidence_id}", h.Vault.DownloadEvidence)
	protected("GET /api/v1/search", h.Vault.Search)
	protected("POST /api/v1/vault/verify", h.Vault.Verify)
	protected("POST /api/v1/export", h.Vault.Export)
	protected("GET /api/v1/audit", h.Vault.Audit)

	return mux
}
