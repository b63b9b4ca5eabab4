// Package evidence implements evidence file and text index persistence using PostgreSQL.
package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

const (
	filesTable = "evidence_files"
	indexTable = "text_index"
)

var (
	fileColumns = []string{
		"id", "tenant_id", "inspection_id", "kind", "filename", "sha256", "size_bytes", "object_relpath", "created_at",
	}
	indexColumns = []string{
		"id", "tenant_id", "inspection_id", "artifact_version_id", "filename", "file_ext", "excerpt",
		"word_count", "char_count", "patterns_total", "categories", "risk_level", "created_at",
	}
)

// Repo provides evidence file and text index persistence backed by PostgreSQL.
type Repo struct {
	db postgres.DB
}

// New creates a new evidence repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db}
}

type fileRow struct {
	ID            uuid.UUID `db:"id"`
	TenantID      uuid.UUID `db:"tenant_id"`
	InspectionID  uuid.UUID `db:"inspection_id"`
	Kind          string    `db:"kind"`
	Filename      string    `db:"filename"`
	SHA256        string    `db:"sha256"`
	SizeBytes     int64     `db:"size_bytes"`
	ObjectRelPath string    `db:"object_relpath"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r fileRow) toDomain() domain.EvidenceFile {
	return domain.EvidenceFile{
		ID:            r.ID,
		TenantID:      r.TenantID,
		InspectionID:  r.InspectionID,
		Kind:          domain.EvidenceKind(r.Kind),
		Filename:      r.Filename,
		SHA256:        r.SHA256,
		SizeBytes:     r.SizeBytes,
		ObjectRelPath: r.ObjectRelPath,
		CreatedAt:     r.CreatedAt,
	}
}

type indexRow struct {
	ID                uuid.UUID  `db:"id"`
	TenantID          uuid.UUID  `db:"tenant_id"`
	InspectionID      uuid.UUID  `db:"inspection_id"`
	ArtifactVersionID *uuid.UUID `db:"artifact_version_id"`
	Filename          string     `db:"filename"`
	FileExt           string     `db:"file_ext"`
	Excerpt           string     `db:"excerpt"`
	WordCount         int        `db:"word_count"`
	CharCount         int        `db:"char_count"`
	PatternsTotal     int        `db:"patterns_total"`
	Categories        []byte     `db:"categories"`
	RiskLevel         string     `db:"risk_level"`
	CreatedAt         time.Time  `db:"created_at"`
}

func (r indexRow) toDomain() (domain.TextIndexEntry, error) {
	out := domain.TextIndexEntry{
		ID:                r.ID,
		TenantID:          r.TenantID,
		InspectionID:      r.InspectionID,
		ArtifactVersionID: r.ArtifactVersionID,
		Filename:          r.Filename,
		FileExt:           r.FileExt,
		Excerpt:           r.Excerpt,
		WordCount:         r.WordCount,
		CharCount:         r.CharCount,
		PatternsTotal:     r.PatternsTotal,
		RiskLevel:         domain.RiskLevel(r.RiskLevel),
		CreatedAt:         r.CreatedAt,
	}
	if len(r.Categories) > 0 {
		if err := json.Unmarshal(r.Categories, &out.Categories); err != nil {
			return domain.TextIndexEntry{}, fmt.Errorf("text_index %s unmarshal categories: %w", r.ID, err)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Evidence files
// ---------------------------------------------------------------------------

// Create inserts an evidence file row.
func (r *Repo) Create(ctx context.Context, f domain.EvidenceFile) (domain.EvidenceFile, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var out fileRow
	err := postgres.Get(ctx, q, &out, postgres.Builder().
		Insert(filesTable).
		Columns(fileColumns...).
		Values(f.ID, f.TenantID, f.InspectionID, f.Kind.String(), f.Filename, f.SHA256, f.SizeBytes, f.ObjectRelPath, f.CreatedAt).
		Suffix(postgres.Returning(fileColumns)))
	if err != nil {
		return domain.EvidenceFile{}, postgres.MapError(err, "evidence_file", f.ID)
	}
	return out.toDomain(), nil
}

// ListByInspection returns the evidence of one inspection ordered by kind then creation.
func (r *Repo) ListByInspection(ctx context.Context, tenantID, inspectionID uuid.UUID) ([]domain.EvidenceFile, error) {
	return r.listFiles(ctx, postgres.Builder().
		Select(fileColumns...).
		From(filesTable).
		Where(sq.Eq{"tenant_id": tenantID, "inspection_id": inspectionID}).
		OrderBy("created_at ASC", "kind ASC"))
}

// List returns every evidence file of a tenant, or of the whole vault for a nil tenant.
func (r *Repo) List(ctx context.Context, tenantID *uuid.UUID) ([]domain.EvidenceFile, error) {
	query := postgres.Builder().
		Select(fileColumns...).
		From(filesTable).
		OrderBy("created_at ASC", "id ASC")
	if tenantID != nil {
		query = query.Where(sq.Eq{"tenant_id": *tenantID})
	}
	return r.listFiles(ctx, query)
}

func (r *Repo) listFiles(ctx context.Context, query sq.SelectBuilder) ([]domain.EvidenceFile, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var rows []fileRow
	if err := postgres.Select(ctx, q, &rows, query); err != nil {
		return nil, postgres.MapError(err, "evidence_file", "list")
	}
	out := make([]domain.EvidenceFile, len(rows))
	for i, rw := range rows {
		out[i] = rw.toDomain()
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Text index
// ---------------------------------------------------------------------------

// CreateIndexEntry inserts a text index row.
func (r *Repo) CreateIndexEntry(ctx context.Context, e domain.TextIndexEntry) (domain.TextIndexEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	cats := e.Categories
	if cats == nil {
		cats = []domain.CategoryScore{}
	}
	categories, err := json.Marshal(cats)
	if err != nil {
		return domain.TextIndexEntry{}, fmt.Errorf("text_index marshal categories: %w", err)
	}

	var out indexRow
	err = postgres.Get(ctx, q, &out, postgres.Builder().
		Insert(indexTable).
		Columns(indexColumns...).
		Values(e.ID, e.TenantID, e.InspectionID, e.ArtifactVersionID, e.Filename, e.FileExt, e.Excerpt,
			e.WordCount, e.CharCount, e.PatternsTotal, categories, e.RiskLevel.String(), e.CreatedAt).
		Suffix(postgres.Returning(indexColumns)))
	if err != nil {
		return domain.TextIndexEntry{}, postgres.MapError(err, "text_index", e.ID)
	}
	return out.toDomain()
}

// SearchIndex returns entries of a tenant whose excerpt or filename contains
// query, case-insensitively, newest first.
func (r *Repo) SearchIndex(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]domain.TextIndexEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	pattern := "%" + escapeLike(query) + "%"
	var rows []indexRow
	err := postgres.Select(ctx, q, &rows, postgres.Builder().
		Select(indexColumns...).
		From(indexTable).
		Where(sq.Eq{"tenant_id": tenantID}).
		Where(sq.Or{sq.ILike{"excerpt": pattern}, sq.ILike{"filename": pattern}}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)))
	if err != nil {
		return nil, postgres.MapError(err, "text_index", tenantID)
	}
	out := make([]domain.TextIndexEntry, 0, len(rows))
	for _, rw := range rows {
		e, err := rw.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
