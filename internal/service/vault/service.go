// Package vault implements the evidence vault: versioned artifacts in a
// content-addressed store, inspections and their evidence, integrity checks
// and manifest exports. Every operation is tenant-scoped through the access gate.
package vault

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/adapter/objectstore"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/access"
)

const (
	defaultListLimit   = 50
	maxListLimit       = 500
	defaultExcerptSize = 1200
)

// artifactRepo defines the artifact repository interface needed by vault service.
type artifactRepo interface {
	LockOrCreate(ctx context.Context, a domain.Artifact) (domain.Artifact, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Artifact, error)
	LatestVersion(ctx context.Context, tenantID, artifactID uuid.UUID) (domain.ArtifactVersion, error)
	CreateVersion(ctx context.Context, v domain.ArtifactVersion) (domain.ArtifactVersion, error)
	GetVersion(ctx context.Context, tenantID, id uuid.UUID) (domain.ArtifactVersion, error)
	ListVersions(ctx context.Context, tenantID, artifactID *uuid.UUID) ([]domain.ArtifactVersion, error)
}

// inspectionRepo defines the inspection repository interface needed by vault service.
type inspectionRepo interface {
	Create(ctx context.Context, in domain.Inspection) (domain.Inspection, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Inspection, error)
	TenantOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]domain.Inspection, error)
	ListRecent(ctx context.Context, tenantID *uuid.UUID, limit int) ([]domain.Inspection, error)
}

// evidenceRepo defines the evidence and text index repository interface needed by vault service.
type evidenceRepo interface {
	Create(ctx context.Context, f domain.EvidenceFile) (domain.EvidenceFile, error)
	ListByInspection(ctx context.Context, tenantID, inspectionID uuid.UUID) ([]domain.EvidenceFile, error)
	List(ctx context.Context, tenantID *uuid.UUID) ([]domain.EvidenceFile, error)
	CreateIndexEntry(ctx context.Context, e domain.TextIndexEntry) (domain.TextIndexEntry, error)
	SearchIndex(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]domain.TextIndexEntry, error)
}

// auditRepo defines the audit repository interface needed by vault service.
type auditRepo interface {
	Log(ctx context.Context, ev domain.AuditEvent) error
	List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEvent, error)
}

// txManager defines the transaction manager interface needed by vault service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// gate defines the authorization interface needed by vault service.
type gate interface {
	Authorize(ctx context.Context, actor domain.Principal, action access.Action, requested *uuid.UUID) (*uuid.UUID, error)
	AuthorizeTenant(ctx context.Context, actor domain.Principal, action access.Action, requested *uuid.UUID) (uuid.UUID, error)
	Deny(ctx context.Context, actor domain.Principal, action access.Action, requested *uuid.UUID, reason string) error
}

// redactor masks pattern matches before text is indexed.
type redactor interface {
	Redact(text, rulesetName string) (string, error)
}

// vaultMetrics records store and verification outcomes.
type vaultMetrics interface {
	ObservePut(created bool, size int64)
	ObserveVersion(created bool)
	ObserveVerify(status string)
}

type noopMetrics struct{}

func (noopMetrics) ObservePut(bool, int64) {}
func (noopMetrics) ObserveVersion(bool)    {}
func (noopMetrics) ObserveVerify(string)   {}

// Options tunes the vault service.
type Options struct {
	// IndexExcerptChars bounds the redacted text kept per text index entry.
	IndexExcerptChars int
}

// Service implements the evidence vault operations.
type Service struct {
	log         *slog.Logger
	artifacts   artifactRepo
	inspections inspectionRepo
	evidence    evidenceRepo
	audit       auditRepo
	tx          txManager
	store       objectstore.Store
	gate        gate
	redactor    redactor
	metrics     vaultMetrics
	opts        Options
}

// NewService creates a new vault service instance. metrics may be nil.
func NewService(
	logger *slog.Logger,
	artifacts artifactRepo,
	inspections inspectionRepo,
	evidence evidenceRepo,
	audit auditRepo,
	tx txManager,
	store objectstore.Store,
	gate gate,
	redactor redactor,
	metrics vaultMetrics,
	opts Options,
) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if opts.IndexExcerptChars <= 0 {
		opts.IndexExcerptChars = defaultExcerptSize
	}
	return &Service{
		log:         logger.With("service", "vault"),
		artifacts:   artifacts,
		inspections: inspections,
		evidence:    evidence,
		audit:       audit,
		tx:          tx,
		store:       store,
		gate:        gate,
		redactor:    redactor,
		metrics:     metrics,
		opts:        opts,
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}
