// Package inspection implements append-only inspection persistence using PostgreSQL.
package inspection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

const table = "inspections"

var columns = []string{
	"id", "tenant_id", "artifact_version_id", "run_type", "ruleset", "started_at", "finished_at",
	"cui_detected", "risk_level", "risk_score", "patterns", "categories", "summary", "created_by", "created_at",
}

// Repo provides inspection persistence backed by PostgreSQL.
type Repo struct {
	db postgres.DB
}

// New creates a new inspection repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db}
}

type row struct {
	ID                uuid.UUID  `db:"id"`
	TenantID          uuid.UUID  `db:"tenant_id"`
	ArtifactVersionID *uuid.UUID `db:"artifact_version_id"`
	RunType           string     `db:"run_type"`
	Ruleset           string     `db:"ruleset"`
	StartedAt         time.Time  `db:"started_at"`
	FinishedAt        time.Time  `db:"finished_at"`
	CUIDetected       bool       `db:"cui_detected"`
	RiskLevel         string     `db:"risk_level"`
	RiskScore         int        `db:"risk_score"`
	Patterns          []byte     `db:"patterns"`
	Categories        []byte     `db:"categories"`
	Summary           []byte     `db:"summary"`
	CreatedBy         *uuid.UUID `db:"created_by"`
	CreatedAt         time.Time  `db:"created_at"`
}

func (r row) toDomain() (domain.Inspection, error) {
	out := domain.Inspection{
		ID:                r.ID,
		TenantID:          r.TenantID,
		ArtifactVersionID: r.ArtifactVersionID,
		RunType:           domain.RunType(r.RunType),
		Ruleset:           r.Ruleset,
		StartedAt:         r.StartedAt,
		FinishedAt:        r.FinishedAt,
		CUIDetected:       r.CUIDetected,
		RiskLevel:         domain.RiskLevel(r.RiskLevel),
		RiskScore:         r.RiskScore,
		CreatedBy:         r.CreatedBy,
		CreatedAt:         r.CreatedAt,
	}
	if err := unmarshal(r.Patterns, &out.Patterns); err != nil {
		return domain.Inspection{}, fmt.Errorf("inspection %s unmarshal patterns: %w", r.ID, err)
	}
	if err := unmarshal(r.Categories, &out.Categories); err != nil {
		return domain.Inspection{}, fmt.Errorf("inspection %s unmarshal categories: %w", r.ID, err)
	}
	if err := unmarshal(r.Summary, &out.Summary); err != nil {
		return domain.Inspection{}, fmt.Errorf("inspection %s unmarshal summary: %w", r.ID, err)
	}
	if out.Patterns == nil {
		out.Patterns = map[string]int{}
	}
	return out, nil
}

func unmarshal(data []byte, dst any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// Create inserts an inspection. Rows are never updated afterwards.
func (r *Repo) Create(ctx context.Context, in domain.Inspection) (domain.Inspection, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	patterns, err := json.Marshal(nonNilPatterns(in.Patterns))
	if err != nil {
		return domain.Inspection{}, fmt.Errorf("inspection marshal patterns: %w", err)
	}
	categories, err := json.Marshal(nonNilCategories(in.Categories))
	if err != nil {
		return domain.Inspection{}, fmt.Errorf("inspection marshal categories: %w", err)
	}
	summary, err := json.Marshal(in.Summary)
	if err != nil {
		return domain.Inspection{}, fmt.Errorf("inspection marshal summary: %w", err)
	}

	var out row
	err = postgres.Get(ctx, q, &out, postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(in.ID, in.TenantID, in.ArtifactVersionID, in.RunType.String(), in.Ruleset, in.StartedAt, in.FinishedAt,
			in.CUIDetected, in.RiskLevel.String(), in.RiskScore, patterns, categories, summary, in.CreatedBy, in.CreatedAt).
		Suffix(postgres.Returning(columns)))
	if err != nil {
		return domain.Inspection{}, postgres.MapError(err, "inspection", in.ID)
	}
	return out.toDomain()
}

// GetByID returns one inspection within a tenant.
func (r *Repo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Inspection, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var out row
	err := postgres.Get(ctx, q, &out, postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"tenant_id": tenantID, "id": id}))
	if err != nil {
		return domain.Inspection{}, postgres.MapError(err, "inspection", id)
	}
	return out.toDomain()
}

// TenantOf returns the owning tenant of an inspection regardless of caller scope.
func (r *Repo) TenantOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var tenantID uuid.UUID
	if err := postgres.Get(ctx, q, &tenantID, postgres.Builder().
		Select("tenant_id").
		From(table).
		Where(sq.Eq{"id": id})); err != nil {
		return uuid.Nil, postgres.MapError(err, "inspection", id)
	}
	return tenantID, nil
}

// ListByIDs returns the inspections of a tenant among ids, oldest first.
// Unknown or foreign ids are silently absent from the result.
func (r *Repo) ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]domain.Inspection, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"tenant_id": tenantID, "id": ids}).
		OrderBy("started_at ASC", "id ASC"))
}

// ListRecent returns the newest inspections first. A nil tenant lists all tenants.
func (r *Repo) ListRecent(ctx context.Context, tenantID *uuid.UUID, limit int) ([]domain.Inspection, error) {
	query := postgres.Builder().
		Select(columns...).
		From(table).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))
	if tenantID != nil {
		query = query.Where(sq.Eq{"tenant_id": *tenantID})
	}
	return r.list(ctx, query)
}

func (r *Repo) list(ctx context.Context, query sq.SelectBuilder) ([]domain.Inspection, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var rows []row
	if err := postgres.Select(ctx, q, &rows, query); err != nil {
		return nil, postgres.MapError(err, "inspection", "list")
	}
	out := make([]domain.Inspection, 0, len(rows))
	for _, rw := range rows {
		in, err := rw.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func nonNilPatterns(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func nonNilCategories(c []domain.CategoryScore) []domain.CategoryScore {
	if c == nil {
		return []domain.CategoryScore{}
	}
	return c
}
