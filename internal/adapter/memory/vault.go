package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// ArtifactRepo stores artifacts and their versions.
type ArtifactRepo struct {
	c *Catalog
}

// LockOrCreate returns the artifact for (tenant, logical key), creating it when
// absent. Callers serialize through TxManager.RunInTx.
func (r *ArtifactRepo) LockOrCreate(ctx context.Context, a domain.Artifact) (domain.Artifact, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if !r.c.tenantExists(a.TenantID) {
		return domain.Artifact{}, notFound("tenant", a.TenantID)
	}
	for _, existing := range r.c.artifacts {
		if existing.TenantID == a.TenantID && existing.LogicalKey == a.LogicalKey {
			return existing, nil
		}
	}
	r.c.artifacts[a.ID] = a
	r.c.onRollback(ctx, func() { delete(r.c.artifacts, a.ID) })
	return a, nil
}

func (r *ArtifactRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (domain.Artifact, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	a, ok := r.c.artifacts[id]
	if !ok || a.TenantID != tenantID {
		return domain.Artifact{}, notFound("artifact", id)
	}
	return a, nil
}

func (r *ArtifactRepo) LatestVersion(_ context.Context, tenantID, artifactID uuid.UUID) (domain.ArtifactVersion, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	var (
		latest domain.ArtifactVersion
		found  bool
	)
	for _, v := range r.c.versions {
		if v.TenantID == tenantID && v.ArtifactID == artifactID && (!found || v.VersionInt > latest.VersionInt) {
			latest, found = v, true
		}
	}
	if !found {
		return domain.ArtifactVersion{}, notFound("artifact_version", artifactID)
	}
	return latest, nil
}

func (r *ArtifactRepo) CreateVersion(ctx context.Context, v domain.ArtifactVersion) (domain.ArtifactVersion, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if a, ok := r.c.artifacts[v.ArtifactID]; !ok || a.TenantID != v.TenantID {
		return domain.ArtifactVersion{}, notFound("artifact", v.ArtifactID)
	}
	if !r.c.userExists(v.UploadedBy) {
		return domain.ArtifactVersion{}, notFound("user", *v.UploadedBy)
	}
	if v.VersionInt < 1 {
		return domain.ArtifactVersion{}, domain.NewValidationError("version_int", "must be at least 1")
	}
	for _, existing := range r.c.versions {
		if existing.ID == v.ID ||
			(existing.TenantID == v.TenantID && existing.ArtifactID == v.ArtifactID && existing.VersionInt == v.VersionInt) {
			return domain.ArtifactVersion{}, errAlreadyExists("artifact_version", v.ID)
		}
	}
	r.c.versions = append(r.c.versions, v)
	r.c.onRollback(ctx, func() {
		r.c.versions = removeByID(r.c.versions, v.ID, func(x domain.ArtifactVersion) uuid.UUID { return x.ID })
	})
	return v, nil
}

func (r *ArtifactRepo) GetVersion(_ context.Context, tenantID, id uuid.UUID) (domain.ArtifactVersion, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	for _, v := range r.c.versions {
		if v.ID == id && v.TenantID == tenantID {
			return v, nil
		}
	}
	return domain.ArtifactVersion{}, notFound("artifact_version", id)
}

// ListVersions returns versions in insertion order, optionally filtered.
func (r *ArtifactRepo) ListVersions(_ context.Context, tenantID, artifactID *uuid.UUID) ([]domain.ArtifactVersion, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	var out []domain.ArtifactVersion
	for _, v := range r.c.versions {
		if tenantID != nil && v.TenantID != *tenantID {
			continue
		}
		if artifactID != nil && v.ArtifactID != *artifactID {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// InspectionRepo stores inspections.
type InspectionRepo struct {
	c *Catalog
}

func (r *InspectionRepo) Create(ctx context.Context, in domain.Inspection) (domain.Inspection, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if !r.c.tenantExists(in.TenantID) {
		return domain.Inspection{}, notFound("tenant", in.TenantID)
	}
	if in.ArtifactVersionID != nil && !slices.ContainsFunc(r.c.versions, func(v domain.ArtifactVersion) bool {
		return v.ID == *in.ArtifactVersionID
	}) {
		return domain.Inspection{}, notFound("artifact_version", *in.ArtifactVersionID)
	}
	if !r.c.userExists(in.CreatedBy) {
		return domain.Inspection{}, notFound("user", *in.CreatedBy)
	}
	if in.RiskScore < 0 || in.RiskScore > 100 {
		return domain.Inspection{}, domain.NewValidationError("risk_score", "must be within [0,100]")
	}
	if in.FinishedAt.Before(in.StartedAt) {
		return domain.Inspection{}, domain.NewValidationError("finished_at", "before started_at")
	}
	for _, existing := range r.c.inspections {
		if existing.ID == in.ID {
			return domain.Inspection{}, errAlreadyExists("inspection", in.ID)
		}
	}
	in = cloneInspection(in)
	r.c.inspections = append(r.c.inspections, in)
	r.c.onRollback(ctx, func() {
		r.c.inspections = removeByID(r.c.inspections, in.ID, func(x domain.Inspection) uuid.UUID { return x.ID })
	})
	return cloneInspection(in), nil
}

func (r *InspectionRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (domain.Inspection, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	for _, in := range r.c.inspections {
		if in.ID == id && in.TenantID == tenantID {
			return cloneInspection(in), nil
		}
	}
	return domain.Inspection{}, notFound("inspection", id)
}

func (r *InspectionRepo) TenantOf(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	for _, in := range r.c.inspections {
		if in.ID == id {
			return in.TenantID, nil
		}
	}
	return uuid.Nil, notFound("inspection", id)
}

// ListByIDs returns the tenant's inspections among ids, oldest first.
func (r *InspectionRepo) ListByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]domain.Inspection, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	var out []domain.Inspection
	for _, in := range r.c.inspections {
		if in.TenantID == tenantID && slices.Contains(ids, in.ID) {
			out = append(out, cloneInspection(in))
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Inspection) int { return a.StartedAt.Compare(b.StartedAt) })
	return out, nil
}

// ListRecent returns the newest inspections first. A nil tenant lists all tenants.
func (r *InspectionRepo) ListRecent(_ context.Context, tenantID *uuid.UUID, limit int) ([]domain.Inspection, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	var out []domain.Inspection
	for i := len(r.c.inspections) - 1; i >= 0 && len(out) < limit; i-- {
		in := r.c.inspections[i]
		if tenantID == nil || in.TenantID == *tenantID {
			out = append(out, cloneInspection(in))
		}
	}
	return out, nil
}

// EvidenceRepo stores evidence files and text index entries.
type EvidenceRepo struct {
	c *Catalog
}

func (r *EvidenceRepo) Create(ctx context.Context, f domain.EvidenceFile) (domain.EvidenceFile, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if err := r.checkInspection(f.TenantID, f.InspectionID); err != nil {
		return domain.EvidenceFile{}, err
	}
	r.c.evidence = append(r.c.evidence, f)
	r.c.onRollback(ctx, func() {
		r.c.evidence = removeByID(r.c.evidence, f.ID, func(x domain.EvidenceFile) uuid.UUID { return x.ID })
	})
	return f, nil
}

func (r *EvidenceRepo) checkInspection(tenantID, inspectionID uuid.UUID) error {
	if !r.c.tenantExists(tenantID) {
		return notFound("tenant", tenantID)
	}
	if !slices.ContainsFunc(r.c.inspections, func(in domain.Inspection) bool { return in.ID == inspectionID }) {
		return notFound("inspection", inspectionID)
	}
	return nil
}

func (r *EvidenceRepo) ListByInspection(_ context.Context, tenantID, inspectionID uuid.UUID) ([]domain.EvidenceFile, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	var out []domain.EvidenceFile
	for _, f := range r.c.evidence {
		if f.TenantID == tenantID && f.InspectionID == inspectionID {
			out = append(out, f)
		}
	}
	return out, nil
}

// List returns every evidence file of a tenant, or of the whole vault for a nil tenant.
func (r *EvidenceRepo) List(_ context.Context, tenantID *uuid.UUID) ([]domain.EvidenceFile, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	var out []domain.EvidenceFile
	for _, f := range r.c.evidence {
		if tenantID == nil || f.TenantID == *tenantID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *EvidenceRepo) CreateIndexEntry(ctx context.Context, e domain.TextIndexEntry) (domain.TextIndexEntry, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if err := r.checkInspection(e.TenantID, e.InspectionID); err != nil {
		return domain.TextIndexEntry{}, err
	}
	e.Categories = slices.Clone(e.Categories)
	r.c.index = append(r.c.index, e)
	r.c.onRollback(ctx, func() {
		r.c.index = removeByID(r.c.index, e.ID, func(x domain.TextIndexEntry) uuid.UUID { return x.ID })
	})
	return e, nil
}

// SearchIndex matches query case-insensitively against excerpt and filename, newest first.
func (r *EvidenceRepo) SearchIndex(_ context.Context, tenantID uuid.UUID, query string, limit int) ([]domain.TextIndexEntry, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	needle := strings.ToLower(query)
	var out []domain.TextIndexEntry
	for i := len(r.c.index) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.c.index[i]
		if e.TenantID != tenantID {
			continue
		}
		if strings.Contains(strings.ToLower(e.Excerpt), needle) || strings.Contains(strings.ToLower(e.Filename), needle) {
			out = append(out, e)
		}
	}
	return out, nil
}

// AuditRepo stores the audit trail.
type AuditRepo struct {
	c *Catalog
}

func (r *AuditRepo) Create(ctx context.Context, ev domain.AuditEvent) (domain.AuditEvent, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if ev.TenantID != nil && !r.c.tenantExists(*ev.TenantID) {
		return domain.AuditEvent{}, notFound("tenant", *ev.TenantID)
	}
	if !r.c.userExists(ev.ActorID) {
		return domain.AuditEvent{}, notFound("user", *ev.ActorID)
	}
	if ev.Detail == nil {
		ev.Detail = map[string]any{}
	}
	r.c.audit = append(r.c.audit, ev)
	r.c.onRollback(ctx, func() {
		r.c.audit = removeByID(r.c.audit, ev.ID, func(x domain.AuditEvent) uuid.UUID { return x.ID })
	})
	return ev, nil
}

func (r *AuditRepo) Log(ctx context.Context, ev domain.AuditEvent) error {
	_, err := r.Create(ctx, ev)
	return err
}

// List returns matching events newest first.
func (r *AuditRepo) List(_ context.Context, f domain.AuditFilter) ([]domain.AuditEvent, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	out := make([]domain.AuditEvent, 0, min(limit, len(r.c.audit)))
	for i := len(r.c.audit) - 1; i >= 0; i-- {
		ev := r.c.audit[i]
		if f.TenantID != nil && (ev.TenantID == nil || *ev.TenantID != *f.TenantID) {
			continue
		}
		if f.EventType != nil && ev.EventType != *f.EventType {
			continue
		}
		out = append(out, ev)
	}
	slices.SortStableFunc(out, func(a, b domain.AuditEvent) int { return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano()) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
