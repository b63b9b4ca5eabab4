package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/adapter/objectstore"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/access"
)

// Verified object sources.
const (
	SourceVersion  = "artifact_version"
	SourceEvidence = "evidence_file"
)

// VerifyRow is the integrity check of one catalogued object.
type VerifyRow struct {
	Source   string              `json:"source"`
	ID       uuid.UUID           `json:"id"`
	TenantID uuid.UUID           `json:"tenant_id"`
	Filename string              `json:"filename"`
	RelPath  string              `json:"object_relpath"`
	Expected string              `json:"expected_sha256"`
	Actual   string              `json:"actual_sha256"`
	Status   domain.VerifyStatus `json:"status"`
}

// VerifyReport lists every checked object with per-status totals.
type VerifyReport struct {
	Rows     []VerifyRow `json:"rows"`
	OK       int         `json:"ok"`
	Mismatch int         `json:"mismatch"`
	Missing  int         `json:"missing"`
}

// Err joins an IntegrityMismatch or StorageError for every failed row. It is
// nil for a clean vault.
func (r VerifyReport) Err() error {
	var errs []error
	for _, row := range r.Rows {
		switch row.Status {
		case domain.VerifyStatusMismatch:
			errs = append(errs, &domain.IntegrityMismatch{Path: row.RelPath, Expected: row.Expected, Actual: row.Actual})
		case domain.VerifyStatusMissing:
			errs = append(errs, &domain.StorageError{Op: "verify", Path: row.RelPath, Err: objectstore.ErrObjectMissing})
		}
	}
	return errors.Join(errs...)
}

func (r *VerifyReport) add(row VerifyRow) {
	switch row.Status {
	case domain.VerifyStatusOK:
		r.OK++
	case domain.VerifyStatusMismatch:
		r.Mismatch++
	case domain.VerifyStatusMissing:
		r.Missing++
	}
	r.Rows = append(r.Rows, row)
}

// VerifyVault re-hashes every artifact version and evidence file of the
// resolved tenant. Cross-tenant roles may pass a nil tenant to check the
// whole vault. It never mutates the store or the catalog.
func (s *Service) VerifyVault(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID) (VerifyReport, error) {
	scope, err := s.gate.Authorize(ctx, actor, access.ActionVaultVerify, tenantID)
	if err != nil {
		return VerifyReport{}, err
	}

	versions, err := s.artifacts.ListVersions(ctx, scope, nil)
	if err != nil {
		return VerifyReport{}, fmt.Errorf("vault.VerifyVault list versions: %w", err)
	}
	files, err := s.evidence.List(ctx, scope)
	if err != nil {
		return VerifyReport{}, fmt.Errorf("vault.VerifyVault list evidence: %w", err)
	}

	var report VerifyReport
	for _, v := range versions {
		row, err := s.verifyObject(ctx, VerifyRow{
			Source: SourceVersion, ID: v.ID, TenantID: v.TenantID,
			Filename: v.OriginalFilename, RelPath: v.ObjectRelPath, Expected: v.SHA256,
		})
		if err != nil {
			return VerifyReport{}, fmt.Errorf("vault.VerifyVault: %w", err)
		}
		report.add(row)
	}
	for _, f := range files {
		row, err := s.verifyObject(ctx, VerifyRow{
			Source: SourceEvidence, ID: f.ID, TenantID: f.TenantID,
			Filename: f.Filename, RelPath: f.ObjectRelPath, Expected: f.SHA256,
		})
		if err != nil {
			return VerifyReport{}, fmt.Errorf("vault.VerifyVault: %w", err)
		}
		report.add(row)
	}

	attrs := []any{
		slog.Int("ok", report.OK),
		slog.Int("mismatch", report.Mismatch),
		slog.Int("missing", report.Missing),
	}
	if report.Mismatch+report.Missing == 0 {
		s.log.InfoContext(ctx, "vault integrity check passed", attrs...)
		return report, nil
	}

	s.log.ErrorContext(ctx, "vault integrity check failed", attrs...)
	s.auditIntegrityFailure(ctx, actor, scope, report)
	return report, nil
}

// auditIntegrityFailure records one integrity_mismatch event for a failed
// run. It runs outside any transaction and survives cancellation of ctx.
func (s *Service) auditIntegrityFailure(ctx context.Context, actor domain.Principal, scope *uuid.UUID, report VerifyReport) {
	var mismatched, missing []string
	for _, row := range report.Rows {
		switch row.Status {
		case domain.VerifyStatusMismatch:
			mismatched = append(mismatched, row.RelPath)
		case domain.VerifyStatusMissing:
			missing = append(missing, row.RelPath)
		}
	}
	detail := map[string]any{
		"ok":             report.OK,
		"mismatch":       report.Mismatch,
		"missing":        report.Missing,
		"mismatch_paths": mismatched,
		"missing_paths":  missing,
	}
	if scope != nil {
		detail["tenant_id"] = scope.String()
	}

	ev := domain.NewAuditEvent(actor, scope, domain.AuditIntegrityMismatch, detail)
	if err := s.audit.Log(context.WithoutCancel(ctx), ev); err != nil {
		s.log.ErrorContext(ctx, "audit integrity mismatch", slog.String("error", err.Error()))
	}
}

func (s *Service) verifyObject(ctx context.Context, row VerifyRow) (VerifyRow, error) {
	if err := ctx.Err(); err != nil {
		return row, err
	}
	ok, actual, err := s.store.Verify(ctx, row.RelPath, row.Expected)
	switch {
	case errors.Is(err, objectstore.ErrObjectMissing):
		row.Status = domain.VerifyStatusMissing
	case err != nil:
		return row, err
	case ok:
		row.Status, row.Actual = domain.VerifyStatusOK, actual
	default:
		row.Status, row.Actual = domain.VerifyStatusMismatch, actual
	}
	s.metrics.ObserveVerify(row.Status.String())
	return row, nil
}
