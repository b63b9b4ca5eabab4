package identity

import (
	"strings"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

const (
	maxTenantName = 128
	maxPassword   = 256
)

// NormalizeUsername trims and lowercases a username.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CreateTenantInput holds parameters for tenant creation.
type CreateTenantInput struct {
	Name string
}

// Validate validates the create tenant input.
func (i CreateTenantInput) Validate() error {
	name := strings.TrimSpace(i.Name)
	switch {
	case name == "":
		return domain.NewValidationError("name", "required")
	case len(name) > maxTenantName:
		return domain.NewValidationError("name", "too long")
	}
	return nil
}

// CreateUserInput holds parameters for user creation. TenantID is the
// requested tenant; tenant admins always create inside their own tenant.
// CrossTenant asks for an unbound auditor and is honoured for superadmins only.
type CreateUserInput struct {
	Username    string
	Password    string
	Role        domain.UserRole
	TenantID    *uuid.UUID
	CrossTenant bool
}

// Validate validates the create user input.
func (i CreateUserInput) Validate() error {
	var errs []domain.FieldError

	if NormalizeUsername(i.Username) == "" {
		errs = append(errs, domain.FieldError{Field: "username", Message: "required"})
	} else if len(i.Username) > 128 {
		errs = append(errs, domain.FieldError{Field: "username", Message: "too long"})
	}
	errs = append(errs, passwordErrors(i.Password)...)
	if !i.Role.IsValid() {
		errs = append(errs, domain.FieldError{Field: "role", Message: "invalid role"})
	}
	if i.CrossTenant && i.Role != domain.UserRoleAuditor {
		errs = append(errs, domain.FieldError{Field: "cross_tenant", Message: "only auditors may be cross-tenant"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func passwordErrors(pw string) []domain.FieldError {
	switch {
	case pw == "":
		return []domain.FieldError{{Field: "password", Message: "required"}}
	case len(pw) > maxPassword:
		return []domain.FieldError{{Field: "password", Message: "too long"}}
	}
	return nil
}

// LoginInput holds credentials for Login.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult is a successful login.
type LoginResult struct {
	AccessToken string
	User        domain.User
}

// grantable lists the roles each administrator may assign.
var grantable = map[domain.UserRole][]domain.UserRole{
	domain.UserRoleSuperadmin:  {domain.UserRoleTenantAdmin, domain.UserRoleAnalyst, domain.UserRoleViewer, domain.UserRoleAuditor},
	domain.UserRoleTenantAdmin: {domain.UserRoleAnalyst, domain.UserRoleViewer},
}

func canGrant(actor, role domain.UserRole) bool {
	for _, r := range grantable[actor] {
		if r == role {
			return true
		}
	}
	return false
}
