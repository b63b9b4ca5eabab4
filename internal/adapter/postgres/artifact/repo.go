// Package artifact implements artifact and artifact version persistence using PostgreSQL.
package artifact

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

const (
	artifactsTable = "artifacts"
	versionsTable  = "artifact_versions"
)

var (
	artifactColumns = []string{"id", "tenant_id", "logical_key", "display_name", "created_at"}
	versionColumns  = []string{
		"id", "tenant_id", "artifact_id", "version_int", "original_filename", "sha256",
		"size_bytes", "mime", "object_relpath", "uploaded_by", "created_at",
	}
)

// Repo provides artifact and version persistence backed by PostgreSQL.
type Repo struct {
	db postgres.DB
}

// New creates a new artifact repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db}
}

type artifactRow struct {
	ID          uuid.UUID `db:"id"`
	TenantID    uuid.UUID `db:"tenant_id"`
	LogicalKey  string    `db:"logical_key"`
	DisplayName string    `db:"display_name"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r artifactRow) toDomain() domain.Artifact {
	return domain.Artifact{
		ID:          r.ID,
		TenantID:    r.TenantID,
		LogicalKey:  r.LogicalKey,
		DisplayName: r.DisplayName,
		CreatedAt:   r.CreatedAt,
	}
}

type versionRow struct {
	ID               uuid.UUID  `db:"id"`
	TenantID         uuid.UUID  `db:"tenant_id"`
	ArtifactID       uuid.UUID  `db:"artifact_id"`
	VersionInt       int        `db:"version_int"`
	OriginalFilename string     `db:"original_filename"`
	SHA256           string     `db:"sha256"`
	SizeBytes        int64      `db:"size_bytes"`
	MIME             string     `db:"mime"`
	ObjectRelPath    string     `db:"object_relpath"`
	UploadedBy       *uuid.UUID `db:"uploaded_by"`
	CreatedAt        time.Time  `db:"created_at"`
}

func (r versionRow) toDomain() domain.ArtifactVersion {
	return domain.ArtifactVersion{
		ID:               r.ID,
		TenantID:         r.TenantID,
		ArtifactID:       r.ArtifactID,
		VersionInt:       r.VersionInt,
		OriginalFilename: r.OriginalFilename,
		SHA256:           r.SHA256,
		SizeBytes:        r.SizeBytes,
		MIME:             r.MIME,
		ObjectRelPath:    r.ObjectRelPath,
		UploadedBy:       r.UploadedBy,
		CreatedAt:        r.CreatedAt,
	}
}

// ---------------------------------------------------------------------------
// Artifacts
// ---------------------------------------------------------------------------

// LockOrCreate inserts the artifact if its (tenant, logical key) is new, then
// returns the stored row locked FOR UPDATE. Must run inside a transaction so
// the lock serializes version allocation for the artifact.
func (r *Repo) LockOrCreate(ctx context.Context, a domain.Artifact) (domain.Artifact, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	if _, err := postgres.Exec(ctx, q, postgres.Builder().
		Insert(artifactsTable).
		Columns(artifactColumns...).
		Values(a.ID, a.TenantID, a.LogicalKey, a.DisplayName, a.CreatedAt).
		Suffix("ON CONFLICT (tenant_id, logical_key) DO NOTHING")); err != nil {
		return domain.Artifact{}, postgres.MapError(err, "artifact", a.LogicalKey)
	}

	var out artifactRow
	err := postgres.Get(ctx, q, &out, postgres.Builder().
		Select(artifactColumns...).
		From(artifactsTable).
		Where(sq.Eq{"tenant_id": a.TenantID, "logical_key": a.LogicalKey}).
		Suffix("FOR UPDATE"))
	if err != nil {
		return domain.Artifact{}, postgres.MapError(err, "artifact", a.LogicalKey)
	}
	return out.toDomain(), nil
}

// GetByID returns an artifact within a tenant.
func (r *Repo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Artifact, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var out artifactRow
	err := postgres.Get(ctx, q, &out, postgres.Builder().
		Select(artifactColumns...).
		From(artifactsTable).
		Where(sq.Eq{"tenant_id": tenantID, "id": id}))
	if err != nil {
		return domain.Artifact{}, postgres.MapError(err, "artifact", id)
	}
	return out.toDomain(), nil
}

// ---------------------------------------------------------------------------
// Versions
// ---------------------------------------------------------------------------

// LatestVersion returns the highest version of an artifact, or domain.ErrNotFound.
func (r *Repo) LatestVersion(ctx context.Context, tenantID, artifactID uuid.UUID) (domain.ArtifactVersion, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var out versionRow
	err := postgres.Get(ctx, q, &out, postgres.Builder().
		Select(versionColumns...).
		From(versionsTable).
		Where(sq.Eq{"tenant_id": tenantID, "artifact_id": artifactID}).
		OrderBy("version_int DESC").
		Limit(1))
	if err != nil {
		return domain.ArtifactVersion{}, postgres.MapError(err, "artifact_version", artifactID)
	}
	return out.toDomain(), nil
}

// CreateVersion inserts a version row. A reused (tenant, artifact, version_int)
// maps to domain.ErrAlreadyExists.
func (r *Repo) CreateVersion(ctx context.Context, v domain.ArtifactVersion) (domain.ArtifactVersion, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var out versionRow
	err := postgres.Get(ctx, q, &out, postgres.Builder().
		Insert(versionsTable).
		Columns(versionColumns...).
		Values(v.ID, v.TenantID, v.ArtifactID, v.VersionInt, v.OriginalFilename, v.SHA256,
			v.SizeBytes, v.MIME, v.ObjectRelPath, v.UploadedBy, v.CreatedAt).
		Suffix(postgres.Returning(versionColumns)))
	if err != nil {
		return domain.ArtifactVersion{}, postgres.MapError(err, "artifact_version", v.ID)
	}
	return out.toDomain(), nil
}

// GetVersion returns one version within a tenant.
func (r *Repo) GetVersion(ctx context.Context, tenantID, id uuid.UUID) (domain.ArtifactVersion, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var out versionRow
	err := postgres.Get(ctx, q, &out, postgres.Builder().
		Select(versionColumns...).
		From(versionsTable).
		Where(sq.Eq{"tenant_id": tenantID, "id": id}))
	if err != nil {
		return domain.ArtifactVersion{}, postgres.MapError(err, "artifact_version", id)
	}
	return out.toDomain(), nil
}

// ListVersions returns versions in creation order. A nil tenant lists the whole vault;
// a nil artifact lists every artifact.
func (r *Repo) ListVersions(ctx context.Context, tenantID, artifactID *uuid.UUID) ([]domain.ArtifactVersion, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	query := postgres.Builder().
		Select(versionColumns...).
		From(versionsTable).
		OrderBy("created_at ASC", "version_int ASC")
	if tenantID != nil {
		query = query.Where(sq.Eq{"tenant_id": *tenantID})
	}
	if artifactID != nil {
		query = query.Where(sq.Eq{"artifact_id": *artifactID})
	}

	var rows []versionRow
	if err := postgres.Select(ctx, q, &rows, query); err != nil {
		return nil, postgres.MapError(err, "artifact_version", "list")
	}
	out := make([]domain.ArtifactVersion, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}
