package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedTenant creates an active tenant with a unique name.
func SeedTenant(t *testing.T, pool *pgxpool.Pool) domain.Tenant {
	t.Helper()

	tenant := domain.Tenant{
		ID:        uuid.New(),
		Name:      "tenant-" + uniqueSuffix(),
		Active:    true,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO tenants (id, name, active, created_at) VALUES ($1, $2, $3, $4)`,
		tenant.ID, tenant.Name, tenant.Active, tenant.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTenant: %v", err)
	}
	return tenant
}

// SeedUser creates an active user with role inside tenant. A nil tenant is
// only valid for cross-tenant roles.
func SeedUser(t *testing.T, pool *pgxpool.Pool, tenantID *uuid.UUID, role domain.UserRole) domain.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Username:     "user-" + uniqueSuffix(),
		PasswordHash: "pbkdf2_sha256$100000$00$00",
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, tenant_id, username, password_hash, role, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.TenantID, user.Username, user.PasswordHash, user.Role.String(), user.Active, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser: %v", err)
	}
	return user
}

// SeedArtifactVersion creates an artifact with a single version 1 whose
// digest is derived from a random suffix.
func SeedArtifactVersion(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID) domain.ArtifactVersion {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	artifactID := uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO artifacts (id, tenant_id, logical_key, display_name, created_at) VALUES ($1, $2, $3, $4, $5)`,
		artifactID, tenantID, "doc-"+suffix+".txt", "Doc-"+suffix+".txt", now,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedArtifactVersion insert artifact: %v", err)
	}

	digest := (suffix + suffix + suffix + suffix + suffix + suffix + suffix + suffix)[:64]
	v := domain.ArtifactVersion{
		ID:               uuid.New(),
		TenantID:         tenantID,
		ArtifactID:       artifactID,
		VersionInt:       1,
		OriginalFilename: "Doc-" + suffix + ".txt",
		SHA256:           digest,
		SizeBytes:        int64(len(suffix)),
		MIME:             "text/plain",
		ObjectRelPath:    "objects/" + digest[:2] + "/" + digest,
		CreatedAt:        now,
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO artifact_versions (id, tenant_id, artifact_id, version_int, original_filename, sha256, size_bytes, mime, object_relpath, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.TenantID, v.ArtifactID, v.VersionInt, v.OriginalFilename, v.SHA256, v.SizeBytes, v.MIME, v.ObjectRelPath, v.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedArtifactVersion insert version: %v", err)
	}
	return v
}
