package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

type tenantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func toTenant(t domain.Tenant) tenantResponse {
	return tenantResponse{ID: t.ID, Name: t.Name, Active: t.Active, CreatedAt: t.CreatedAt}
}

type userResponse struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  *uuid.UUID `json:"tenant_id"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
}

func toUser(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		TenantID:  u.TenantID,
		Username:  u.Username,
		Role:      u.Role.String(),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

type versionResponse struct {
	ID               uuid.UUID `json:"id"`
	ArtifactID       uuid.UUID `json:"artifact_id"`
	VersionInt       int       `json:"version_int"`
	OriginalFilename string    `json:"original_filename"`
	SHA256           string    `json:"sha256"`
	SizeBytes        int64     `json:"size_bytes"`
	MIME             string    `json:"mime,omitempty"`
	ObjectRelPath    string    `json:"object_relpath"`
	CreatedAt        time.Time `json:"created_at"`
}

func toVersion(v *domain.ArtifactVersion) *versionResponse {
	if v == nil {
		return nil
	}
	return &versionResponse{
		ID:               v.ID,
		ArtifactID:       v.ArtifactID,
		VersionInt:       v.VersionInt,
		OriginalFilename: v.OriginalFilename,
		SHA256:           v.SHA256,
		SizeBytes:        v.SizeBytes,
		MIME:             v.MIME,
		ObjectRelPath:    v.ObjectRelPath,
		CreatedAt:        v.CreatedAt,
	}
}

type inspectionResponse struct {
	ID                uuid.UUID                `json:"id"`
	TenantID          uuid.UUID                `json:"tenant_id"`
	ArtifactVersionID *uuid.UUID               `json:"artifact_version_id"`
	RunType           string                   `json:"run_type"`
	Ruleset           string                   `json:"ruleset"`
	StartedAt         time.Time                `json:"started_at"`
	FinishedAt        time.Time                `json:"finished_at"`
	CUIDetected       bool                     `json:"cui_detected"`
	RiskLevel         string                   `json:"risk_level"`
	RiskScore         int                      `json:"risk_score"`
	Patterns          map[string]int           `json:"patterns"`
	Categories        []domain.CategoryScore   `json:"categories"`
	Summary           domain.InspectionSummary `json:"summary"`
	CreatedBy         *uuid.UUID               `json:"created_by"`
}

func toInspection(in domain.Inspection) inspectionResponse {
	return inspectionResponse{
		ID:                in.ID,
		TenantID:          in.TenantID,
		ArtifactVersionID: in.ArtifactVersionID,
		RunType:           in.RunType.String(),
		Ruleset:           in.Ruleset,
		StartedAt:         in.StartedAt,
		FinishedAt:        in.FinishedAt,
		CUIDetected:       in.CUIDetected,
		RiskLevel:         in.RiskLevel.String(),
		RiskScore:         in.RiskScore,
		Patterns:          in.Patterns,
		Categories:        in.Categories,
		Summary:           in.Summary,
		CreatedBy:         in.CreatedBy,
	}
}

type evidenceResponse struct {
	ID            uuid.UUID `json:"id"`
	InspectionID  uuid.UUID `json:"inspection_id"`
	Kind          string    `json:"kind"`
	Filename      string    `json:"filename"`
	SHA256        string    `json:"sha256"`
	SizeBytes     int64     `json:"size_bytes"`
	ObjectRelPath string    `json:"object_relpath"`
	CreatedAt     time.Time `json:"created_at"`
}

func toEvidence(e domain.EvidenceFile) evidenceResponse {
	return evidenceResponse{
		ID:            e.ID,
		InspectionID:  e.InspectionID,
		Kind:          e.Kind.String(),
		Filename:      e.Filename,
		SHA256:        e.SHA256,
		SizeBytes:     e.SizeBytes,
		ObjectRelPath: e.ObjectRelPath,
		CreatedAt:     e.CreatedAt,
	}
}

func toEvidenceList(files []domain.EvidenceFile) []evidenceResponse {
	out := make([]evidenceResponse, len(files))
	for i, f := range files {
		out[i] = toEvidence(f)
	}
	return out
}

type indexEntryResponse struct {
	InspectionID  uuid.UUID `json:"inspection_id"`
	Filename      string    `json:"filename"`
	FileExt       string    `json:"file_ext"`
	Excerpt       string    `json:"excerpt"`
	WordCount     int       `json:"word_count"`
	CharCount     int       `json:"char_count"`
	PatternsTotal int       `json:"patterns_total"`
	RiskLevel     string    `json:"risk_level"`
	CreatedAt     time.Time `json:"created_at"`
}

func toIndexEntry(e domain.TextIndexEntry) indexEntryResponse {
	return indexEntryResponse{
		InspectionID:  e.InspectionID,
		Filename:      e.Filename,
		FileExt:       e.FileExt,
		Excerpt:       e.Excerpt,
		WordCount:     e.WordCount,
		CharCount:     e.CharCount,
		PatternsTotal: e.PatternsTotal,
		RiskLevel:     e.RiskLevel.String(),
		CreatedAt:     e.CreatedAt,
	}
}

type auditEventResponse struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  *uuid.UUID     `json:"tenant_id"`
	ActorID   *uuid.UUID     `json:"actor_id"`
	EventType string         `json:"event_type"`
	Detail    map[string]any `json:"detail"`
	CreatedAt time.Time      `json:"created_at"`
}

func toAuditEvent(ev domain.AuditEvent) auditEventResponse {
	return auditEventResponse{
		ID:        ev.ID,
		TenantID:  ev.TenantID,
		ActorID:   ev.ActorID,
		EventType: ev.EventType.String(),
		Detail:    ev.Detail,
		CreatedAt: ev.CreatedAt,
	}
}

// scanResponse is one persisted document scan.
type scanResponse struct {
	Version        *versionResponse   `json:"version,omitempty"`
	VersionCreated bool               `json:"version_created"`
	Inspection     inspectionResponse `json:"inspection"`
	Findings       domain.Findings    `json:"findings"`
	Evidence       []evidenceResponse `json:"evidence"`
	Error          string             `json:"error,omitempty"`
}
