package vault

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/analysis"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/access"
)

// SaveInspectionInput describes one finished analysis run. Only derived
// fields of Findings are persisted. Summary overrides the summary derived
// from Findings when set.
type SaveInspectionInput struct {
	TenantID          *uuid.UUID
	ArtifactVersionID *uuid.UUID
	RunType           domain.RunType
	Filename          string
	Findings          domain.Findings
	Summary           *domain.InspectionSummary
	StartedAt         time.Time
	FinishedAt        time.Time
}

// Validate validates the save inspection input.
func (i SaveInspectionInput) Validate() error {
	var errs []domain.FieldError
	if !i.RunType.IsValid() {
		errs = append(errs, domain.FieldError{Field: "run_type", Message: "invalid run type"})
	}
	if !i.StartedAt.IsZero() && !i.FinishedAt.IsZero() && i.FinishedAt.Before(i.StartedAt) {
		errs = append(errs, domain.FieldError{Field: "finished_at", Message: "before started_at"})
	}
	if i.Findings.RiskScore < 0 || i.Findings.RiskScore > 100 {
		errs = append(errs, domain.FieldError{Field: "risk_score", Message: "must be within [0,100]"})
	}
	if i.Findings.RiskLevel != "" && !i.Findings.RiskLevel.IsValid() {
		errs = append(errs, domain.FieldError{Field: "risk_level", Message: "invalid risk level"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// SaveInspection persists an inspection inside the resolved tenant. A
// referenced artifact version must belong to that tenant.
func (s *Service) SaveInspection(ctx context.Context, actor domain.Principal, input SaveInspectionInput) (domain.Inspection, error) {
	tenantID, err := s.gate.AuthorizeTenant(ctx, actor, access.ActionInspectionWrite, input.TenantID)
	if err != nil {
		return domain.Inspection{}, err
	}
	if err := input.Validate(); err != nil {
		return domain.Inspection{}, err
	}

	var created domain.Inspection
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.saveInspection(ctx, actor, tenantID, input)
		return err
	})
	if err != nil {
		return domain.Inspection{}, fmt.Errorf("vault.SaveInspection: %w", err)
	}

	s.log.InfoContext(ctx, "inspection saved",
		slog.String("tenant_id", tenantID.String()),
		slog.String("inspection_id", created.ID.String()),
		slog.String("run_type", created.RunType.String()),
		slog.String("risk_level", created.RiskLevel.String()),
	)
	return created, nil
}

// saveInspection writes the row and its audit event. It must run inside a transaction.
func (s *Service) saveInspection(ctx context.Context, actor domain.Principal, tenantID uuid.UUID, input SaveInspectionInput) (domain.Inspection, error) {
	if input.ArtifactVersionID != nil {
		if _, err := s.artifacts.GetVersion(ctx, tenantID, *input.ArtifactVersionID); err != nil {
			return domain.Inspection{}, fmt.Errorf("artifact version: %w", err)
		}
	}

	now := time.Now().UTC()
	started, finished := input.StartedAt.UTC(), input.FinishedAt.UTC()
	if input.StartedAt.IsZero() {
		started = now
	}
	if input.FinishedAt.IsZero() {
		finished = now
		if finished.Before(started) {
			finished = started
		}
	}

	f := input.Findings
	summary := domain.SummaryFromFindings(input.Filename, f)
	if input.Summary != nil {
		summary = *input.Summary
	}
	level := f.RiskLevel
	if level == "" {
		level = domain.RiskLevelLow
	}
	ruleset := f.Ruleset
	if ruleset == "" {
		ruleset = "-"
	}

	in, err := s.inspections.Create(ctx, domain.Inspection{
		ID:                uuid.New(),
		TenantID:          tenantID,
		ArtifactVersionID: input.ArtifactVersionID,
		RunType:           input.RunType,
		Ruleset:           ruleset,
		StartedAt:         started,
		FinishedAt:        finished,
		CUIDetected:       f.CUIDetected,
		RiskLevel:         level,
		RiskScore:         f.RiskScore,
		Patterns:          maps.Clone(f.PatternsFound),
		Categories:        slices.Clone(f.Categories),
		Summary:           summary,
		CreatedBy:         actor.ActorID(),
		CreatedAt:         now,
	})
	if err != nil {
		return domain.Inspection{}, fmt.Errorf("create inspection: %w", err)
	}

	detail := map[string]any{
		"inspection_id": in.ID.String(),
		"run_type":      in.RunType.String(),
		"risk_level":    in.RiskLevel.String(),
		"cui_detected":  in.CUIDetected,
	}
	if in.ArtifactVersionID != nil {
		detail["artifact_version_id"] = in.ArtifactVersionID.String()
	}
	if err := s.audit.Log(ctx, domain.NewAuditEvent(actor, &tenantID, domain.AuditInspectionSave, detail)); err != nil {
		return domain.Inspection{}, err
	}
	return in, nil
}

// GetInspection returns one inspection of the resolved tenant.
func (s *Service) GetInspection(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID, id uuid.UUID) (domain.Inspection, error) {
	scope, err := s.gate.AuthorizeTenant(ctx, actor, access.ActionDataRead, tenantID)
	if err != nil {
		return domain.Inspection{}, err
	}
	in, err := s.inspections.GetByID(ctx, scope, id)
	if err != nil {
		return domain.Inspection{}, fmt.Errorf("vault.GetInspection: %w", err)
	}
	return in, nil
}

// ListRecentInspections returns the newest inspections first. Cross-tenant
// roles may pass a nil tenant to list every tenant.
func (s *Service) ListRecentInspections(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID, limit int) ([]domain.Inspection, error) {
	scope, err := s.gate.Authorize(ctx, actor, access.ActionDataRead, tenantID)
	if err != nil {
		return nil, err
	}
	list, err := s.inspections.ListRecent(ctx, scope, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("vault.ListRecentInspections: %w", err)
	}
	return list, nil
}

// CompareInspections diffs two inspections of the same tenant.
func (s *Service) CompareInspections(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID, a, b uuid.UUID) ([]analysis.Delta, error) {
	scope, err := s.gate.AuthorizeTenant(ctx, actor, access.ActionDataRead, tenantID)
	if err != nil {
		return nil, err
	}

	ia, err := s.inspections.GetByID(ctx, scope, a)
	if err != nil {
		return nil, fmt.Errorf("vault.CompareInspections a: %w", err)
	}
	ib, err := s.inspections.GetByID(ctx, scope, b)
	if err != nil {
		return nil, fmt.Errorf("vault.CompareInspections b: %w", err)
	}

	rows := analysis.Compare(ia, ib)
	if err := s.audit.Log(ctx, domain.NewAuditEvent(actor, &scope, domain.AuditCompareRuns, map[string]any{
		"a": a.String(),
		"b": b.String(),
	})); err != nil {
		return nil, fmt.Errorf("vault.CompareInspections audit: %w", err)
	}
	return rows, nil
}
