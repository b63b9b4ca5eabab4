package inspect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/report"
	"github.com/genefryaustin-source/cui-inspector/internal/service/vault"
)

// manualLabel names ad-hoc text runs that have no source file.
const manualLabel = "manual_input.txt"

// ScanInput is one uploaded document.
type ScanInput struct {
	TenantID *uuid.UUID
	Filename string
	Data     []byte
	MIME     string
	Ruleset  string
}

// ScanResult is a persisted scan of one document. Err is set when the
// document could not be extracted; the run is then recorded with risk ERROR
// and no byproducts.
type ScanResult struct {
	Version        *domain.ArtifactVersion
	VersionCreated bool
	Inspection     domain.Inspection
	Findings       domain.Findings
	Evidence       []domain.EvidenceFile
	Err            error
}

// ScanDocument versions the upload, analyzes its text and records the run
// with its report byproducts and a redacted text index entry.
func (s *Service) ScanDocument(ctx context.Context, actor domain.Principal, input ScanInput) (ScanResult, error) {
	name, err := s.ruleset(input.Ruleset)
	if err != nil {
		return ScanResult{}, err
	}
	started := time.Now().UTC()

	up, err := s.vault.UpsertArtifactAndVersion(ctx, actor, vault.UpsertInput{
		TenantID: input.TenantID,
		Filename: input.Filename,
		Data:     input.Data,
		MIME:     input.MIME,
	})
	if err != nil {
		return ScanResult{}, err
	}

	text, extractErr := s.extractor.Extract(input.Filename, input.Data)
	var findings domain.Findings
	if extractErr != nil {
		s.log.WarnContext(ctx, "extraction failed",
			slog.String("filename", up.Version.OriginalFilename),
			slog.String("error", extractErr.Error()),
		)
		findings = domain.ErrorFindings(name, extractErr)
	} else if findings, err = s.analyzer.Analyze(text, name); err != nil {
		return ScanResult{}, err
	}

	res, err := s.persist(ctx, actor, up, domain.RunTypeSingle, text, findings, started)
	if err != nil {
		return ScanResult{}, fmt.Errorf("inspect.ScanDocument: %w", err)
	}
	res.Err = extractErr
	return res, nil
}

// TextInput is ad-hoc text submitted without a file.
type TextInput struct {
	TenantID *uuid.UUID
	Text     string
	Ruleset  string
	Label    string
}

// ScanText analyzes submitted text and records a manual run. No artifact
// version is created and only the redacted index excerpt of the text is kept.
func (s *Service) ScanText(ctx context.Context, actor domain.Principal, input TextInput) (ScanResult, error) {
	name, err := s.ruleset(input.Ruleset)
	if err != nil {
		return ScanResult{}, err
	}
	started := time.Now().UTC()

	findings, err := s.analyzer.Analyze(input.Text, name)
	if err != nil {
		return ScanResult{}, err
	}

	label := input.Label
	if label == "" {
		label = manualLabel
	}
	in, err := s.vault.SaveInspection(ctx, actor, vault.SaveInspectionInput{
		TenantID:   input.TenantID,
		RunType:    domain.RunTypeManual,
		Filename:   label,
		Findings:   findings,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	})
	if err != nil {
		return ScanResult{}, fmt.Errorf("inspect.ScanText: %w", err)
	}
	if _, err := s.vault.SaveTextIndex(ctx, actor, vault.IndexInput{
		TenantID:     &in.TenantID,
		InspectionID: in.ID,
		Filename:     label,
		Text:         input.Text,
		Findings:     findings,
	}); err != nil {
		return ScanResult{}, fmt.Errorf("inspect.ScanText: %w", err)
	}

	s.metrics.ObserveScan(name, findings.RiskLevel.String(), time.Since(started))
	return ScanResult{Inspection: in, Findings: findings}, nil
}

// persist records the inspection of one stored version, its byproducts and
// its text index entry. Failed documents get only the inspection.
func (s *Service) persist(
	ctx context.Context,
	actor domain.Principal,
	up vault.UpsertResult,
	runType domain.RunType,
	text string,
	findings domain.Findings,
	started time.Time,
) (ScanResult, error) {
	tenantID := up.Version.TenantID
	in, err := s.vault.SaveInspection(ctx, actor, vault.SaveInspectionInput{
		TenantID:          &tenantID,
		ArtifactVersionID: &up.Version.ID,
		RunType:           runType,
		Filename:          up.Version.OriginalFilename,
		Findings:          findings,
		StartedAt:         started,
		FinishedAt:        time.Now().UTC(),
	})
	if err != nil {
		return ScanResult{}, err
	}

	version := up.Version
	res := ScanResult{Version: &version, VersionCreated: up.Created, Inspection: in, Findings: findings}
	if findings.RiskLevel == domain.RiskLevelError {
		s.metrics.ObserveScan(findings.Ruleset, findings.RiskLevel.String(), time.Since(started))
		return res, nil
	}

	files, err := report.Build(report.Meta{
		Filename:   up.Version.OriginalFilename,
		SHA256:     up.Version.SHA256,
		UploadedAt: up.Version.CreatedAt,
	}, findings, time.Now())
	if err != nil {
		return ScanResult{}, err
	}
	for _, f := range files {
		ev, err := s.vault.AttachEvidence(ctx, actor, vault.AttachInput{
			TenantID:     &tenantID,
			InspectionID: in.ID,
			Kind:         f.Kind,
			Filename:     f.Name,
			Data:         f.Data,
		})
		if err != nil {
			return ScanResult{}, err
		}
		res.Evidence = append(res.Evidence, ev)
	}

	if _, err := s.vault.SaveTextIndex(ctx, actor, vault.IndexInput{
		TenantID:          &tenantID,
		InspectionID:      in.ID,
		ArtifactVersionID: &up.Version.ID,
		Filename:          up.Version.OriginalFilename,
		Text:              text,
		Findings:          findings,
	}); err != nil {
		return ScanResult{}, err
	}

	s.metrics.ObserveScan(findings.Ruleset, findings.RiskLevel.String(), time.Since(started))
	s.log.InfoContext(ctx, "document scanned",
		slog.String("tenant_id", tenantID.String()),
		slog.String("inspection_id", in.ID.String()),
		slog.String("risk_level", findings.RiskLevel.String()),
		slog.Int("evidence", len(res.Evidence)),
	)
	return res, nil
}
