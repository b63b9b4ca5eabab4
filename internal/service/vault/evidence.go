package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/adapter/objectstore"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/access"
)

// AttachInput holds one evidence byproduct.
type AttachInput struct {
	TenantID     *uuid.UUID
	InspectionID uuid.UUID
	Kind         domain.EvidenceKind
	Filename     string
	Data         []byte
}

// Validate validates the attach input.
func (i AttachInput) Validate() error {
	var errs []domain.FieldError
	if !i.Kind.IsValid() {
		errs = append(errs, domain.FieldError{Field: "kind", Message: "invalid evidence kind"})
	}
	if baseName(i.Filename) == "" || baseName(i.Filename) == "." {
		errs = append(errs, domain.FieldError{Field: "filename", Message: "required"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// AttachEvidence stores data and records it against an inspection of the
// resolved tenant. Attaching to another tenant's inspection is denied and audited.
func (s *Service) AttachEvidence(ctx context.Context, actor domain.Principal, input AttachInput) (domain.EvidenceFile, error) {
	tenantID, err := s.gate.AuthorizeTenant(ctx, actor, access.ActionEvidenceWrite, input.TenantID)
	if err != nil {
		return domain.EvidenceFile{}, err
	}
	if err := input.Validate(); err != nil {
		return domain.EvidenceFile{}, err
	}
	if err := s.ownInspection(ctx, actor, access.ActionEvidenceWrite, tenantID, input.InspectionID); err != nil {
		return domain.EvidenceFile{}, err
	}

	var (
		created domain.EvidenceFile
		put     objectstore.PutResult
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, put, err = s.attach(ctx, actor, tenantID, input)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrStorage) {
			s.log.ErrorContext(ctx, "store evidence", slog.String("error", err.Error()))
		}
		return domain.EvidenceFile{}, fmt.Errorf("vault.AttachEvidence: %w", err)
	}

	s.metrics.ObservePut(put.Created, put.Size)
	s.log.InfoContext(ctx, "evidence attached",
		slog.String("tenant_id", tenantID.String()),
		slog.String("inspection_id", input.InspectionID.String()),
		slog.String("kind", created.Kind.String()),
	)
	return created, nil
}

// attach writes the object, its row and the audit event. It must run inside a transaction.
func (s *Service) attach(ctx context.Context, actor domain.Principal, tenantID uuid.UUID, input AttachInput) (domain.EvidenceFile, objectstore.PutResult, error) {
	put, err := s.store.Put(ctx, input.Data)
	if err != nil {
		return domain.EvidenceFile{}, objectstore.PutResult{}, err
	}

	f, err := s.evidence.Create(ctx, domain.EvidenceFile{
		ID:            uuid.New(),
		TenantID:      tenantID,
		InspectionID:  input.InspectionID,
		Kind:          input.Kind,
		Filename:      baseName(input.Filename),
		SHA256:        put.Digest,
		SizeBytes:     put.Size,
		ObjectRelPath: put.RelPath,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return domain.EvidenceFile{}, objectstore.PutResult{}, fmt.Errorf("create evidence: %w", err)
	}

	err = s.audit.Log(ctx, domain.NewAuditEvent(actor, &tenantID, domain.AuditEvidenceAttach, map[string]any{
		"inspection_id": f.InspectionID.String(),
		"evidence_id":   f.ID.String(),
		"kind":          f.Kind.String(),
		"sha256":        f.SHA256,
	}))
	return f, put, err
}

// ownInspection checks that id belongs to tenantID. An inspection owned by
// another tenant is denied through the gate; an unknown one is not found.
func (s *Service) ownInspection(ctx context.Context, actor domain.Principal, action access.Action, tenantID, id uuid.UUID) error {
	_, err := s.inspections.GetByID(ctx, tenantID, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("vault: load inspection: %w", err)
	}

	owner, ownerErr := s.inspections.TenantOf(ctx, id)
	if ownerErr == nil && owner != tenantID {
		return s.gate.Deny(ctx, actor, action, &tenantID, "inspection belongs to another tenant")
	}
	return fmt.Errorf("vault: load inspection: %w", err)
}

// ListEvidence returns the evidence files of one inspection.
func (s *Service) ListEvidence(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID, inspectionID uuid.UUID) ([]domain.EvidenceFile, error) {
	scope, err := s.gate.AuthorizeTenant(ctx, actor, access.ActionDataRead, tenantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.inspections.GetByID(ctx, scope, inspectionID); err != nil {
		return nil, fmt.Errorf("vault.ListEvidence: %w", err)
	}
	files, err := s.evidence.ListByInspection(ctx, scope, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("vault.ListEvidence: %w", err)
	}
	return files, nil
}

// GetObject returns the stored bytes of one evidence file of the resolved tenant.
func (s *Service) GetObject(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID, inspectionID, evidenceID uuid.UUID) (domain.EvidenceFile, []byte, error) {
	files, err := s.ListEvidence(ctx, actor, tenantID, inspectionID)
	if err != nil {
		return domain.EvidenceFile{}, nil, err
	}
	i := slices.IndexFunc(files, func(f domain.EvidenceFile) bool { return f.ID == evidenceID })
	if i < 0 {
		return domain.EvidenceFile{}, nil, fmt.Errorf("evidence %s: %w", evidenceID, domain.ErrNotFound)
	}
	data, err := s.store.Get(ctx, files[i].ObjectRelPath)
	if err != nil {
		s.log.ErrorContext(ctx, "read evidence", slog.String("error", err.Error()))
		return domain.EvidenceFile{}, nil, fmt.Errorf("vault.GetObject: %w", err)
	}
	return files[i], data, nil
}

// IndexInput holds the text of one analyzed document. The text itself is
// never stored; only a bounded redacted excerpt is kept.
type IndexInput struct {
	TenantID          *uuid.UUID
	InspectionID      uuid.UUID
	ArtifactVersionID *uuid.UUID
	Filename          string
	Text              string
	Findings          domain.Findings
}

// SaveTextIndex stores a redacted excerpt of the analyzed text for search.
func (s *Service) SaveTextIndex(ctx context.Context, actor domain.Principal, input IndexInput) (domain.TextIndexEntry, error) {
	tenantID, err := s.gate.AuthorizeTenant(ctx, actor, access.ActionInspectionWrite, input.TenantID)
	if err != nil {
		return domain.TextIndexEntry{}, err
	}
	if err := s.ownInspection(ctx, actor, access.ActionInspectionWrite, tenantID, input.InspectionID); err != nil {
		return domain.TextIndexEntry{}, err
	}

	redacted, err := s.redactor.Redact(input.Text, input.Findings.Ruleset)
	if err != nil {
		return domain.TextIndexEntry{}, fmt.Errorf("vault.SaveTextIndex: %w", err)
	}

	level := input.Findings.RiskLevel
	if level == "" {
		level = domain.RiskLevelLow
	}
	entry := domain.TextIndexEntry{
		ID:                uuid.New(),
		TenantID:          tenantID,
		InspectionID:      input.InspectionID,
		ArtifactVersionID: input.ArtifactVersionID,
		Filename:          baseName(input.Filename),
		FileExt:           strings.TrimPrefix(strings.ToLower(path.Ext(baseName(input.Filename))), "."),
		Excerpt:           truncateRunes(redacted, s.opts.IndexExcerptChars),
		WordCount:         len(strings.Fields(input.Text)),
		CharCount:         utf8.RuneCountInString(input.Text),
		PatternsTotal:     input.Findings.Counts.PatternsTotal,
		Categories:        slices.Clone(input.Findings.Categories),
		RiskLevel:         level,
		CreatedAt:         time.Now().UTC(),
	}

	var created domain.TextIndexEntry
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.evidence.CreateIndexEntry(ctx, entry)
		if err != nil {
			return fmt.Errorf("create index entry: %w", err)
		}
		return s.audit.Log(ctx, domain.NewAuditEvent(actor, &tenantID, domain.AuditTextIndexSave, map[string]any{
			"inspection_id": created.InspectionID.String(),
			"chars":         utf8.RuneCountInString(created.Excerpt),
		}))
	})
	if err != nil {
		return domain.TextIndexEntry{}, fmt.Errorf("vault.SaveTextIndex: %w", err)
	}
	return created, nil
}

// SearchTextIndex finds index entries of the resolved tenant whose excerpt
// or filename contains query, ignoring case.
func (s *Service) SearchTextIndex(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID, query string, limit int) ([]domain.TextIndexEntry, error) {
	scope, err := s.gate.AuthorizeTenant(ctx, actor, access.ActionDataRead, tenantID)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("q", "required")
	}
	entries, err := s.evidence.SearchIndex(ctx, scope, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("vault.SearchTextIndex: %w", err)
	}
	return entries, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
