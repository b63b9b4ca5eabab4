package inspect

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/analysis"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/vault"
)

// File is one member of a bulk upload.
type File struct {
	Name string
	Data []byte
	MIME string
}

// BulkInput is a batch of uploads scanned with one ruleset.
type BulkInput struct {
	TenantID *uuid.UUID
	Files    []File
	Ruleset  string
}

// BulkResult holds one result per input file, in input order, and the
// aggregate bulk run that groups them.
type BulkResult struct {
	Inspection domain.Inspection
	Documents  []ScanResult
	Failed     int
}

// BulkScan versions every file, analyzes them concurrently and records one
// inspection per document plus an aggregate bulk inspection. Documents that
// cannot be versioned or extracted become ERROR results without aborting
// their siblings. A rejected file gets no version and no inspection.
func (s *Service) BulkScan(ctx context.Context, actor domain.Principal, input BulkInput) (BulkResult, error) {
	name, err := s.ruleset(input.Ruleset)
	if err != nil {
		return BulkResult{}, err
	}
	if len(input.Files) == 0 {
		return BulkResult{}, domain.NewValidationError("files", "required")
	}
	started := time.Now().UTC()

	versions := make([]vault.UpsertResult, len(input.Files))
	upsertErrs := make([]error, len(input.Files))
	docs := make([]analysis.Document, len(input.Files))
	for i, f := range input.Files {
		up, err := s.vault.UpsertArtifactAndVersion(ctx, actor, vault.UpsertInput{
			TenantID: input.TenantID,
			Filename: f.Name,
			Data:     f.Data,
			MIME:     f.MIME,
		})
		if err != nil {
			// A denial or cancellation applies to every file alike.
			if errors.Is(err, domain.ErrPermission) || ctx.Err() != nil {
				return BulkResult{}, fmt.Errorf("inspect.BulkScan %s: %w", f.Name, err)
			}
			s.log.WarnContext(ctx, "bulk scan file rejected",
				slog.String("filename", f.Name),
				slog.String("error", err.Error()),
			)
			upsertErrs[i] = err
			docs[i] = analysis.Document{Name: f.Name, Err: err}
			continue
		}
		versions[i] = up

		text, err := s.extractor.Extract(f.Name, f.Data)
		docs[i] = analysis.Document{Name: up.Version.OriginalFilename, Text: text, Err: err}
	}

	results, err := s.analyzer.AnalyzeBatch(ctx, name, docs, s.opts.BulkWorkers)
	if err != nil {
		return BulkResult{}, err
	}

	out := BulkResult{Documents: make([]ScanResult, len(results))}
	ids := make([]uuid.UUID, 0, len(results))
	findings := make([]domain.Findings, 0, len(results))
	tenantID := input.TenantID
	for i, r := range results {
		findings = append(findings, r.Findings)
		if upsertErrs[i] != nil {
			out.Failed++
			out.Documents[i] = ScanResult{Findings: r.Findings, Err: upsertErrs[i]}
			continue
		}

		res, err := s.persist(ctx, actor, versions[i], domain.RunTypeBulk, docs[i].Text, r.Findings, started)
		if err != nil {
			return BulkResult{}, fmt.Errorf("inspect.BulkScan %s: %w", r.Name, err)
		}
		res.Err = r.Err
		if r.Err != nil {
			out.Failed++
		}
		out.Documents[i] = res
		ids = append(ids, res.Inspection.ID)
		tenantID = &versions[i].Version.TenantID
	}

	summary := domain.InspectionSummary{
		Filename:  fmt.Sprintf("bulk (%d files)", len(results)),
		Documents: len(results),
		Failed:    out.Failed,
		Included:  ids,
	}
	agg := Aggregate(name, findings)
	summary.Counts = agg.Counts
	out.Inspection, err = s.vault.SaveInspection(ctx, actor, vault.SaveInspectionInput{
		TenantID:   tenantID,
		RunType:    domain.RunTypeBulk,
		Findings:   agg,
		Summary:    &summary,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	})
	if err != nil {
		return BulkResult{}, fmt.Errorf("inspect.BulkScan aggregate: %w", err)
	}

	s.log.InfoContext(ctx, "bulk scan finished",
		slog.String("tenant_id", out.Inspection.TenantID.String()),
		slog.String("inspection_id", out.Inspection.ID.String()),
		slog.Int("documents", len(results)),
		slog.Int("failed", out.Failed),
	)
	return out, nil
}

// Aggregate folds per-document findings into the verdict of a bulk run: the
// highest score and level, detection if any document detected, summed
// pattern counts and the best confidence per category. Failed documents are
// skipped.
func Aggregate(rulesetName string, docs []domain.Findings) domain.Findings {
	agg := domain.Findings{
		Ruleset:       rulesetName,
		RiskLevel:     domain.RiskLevelLow,
		PatternsFound: map[string]int{},
	}
	best := map[string]float64{}
	var order []string
	for _, f := range docs {
		if f.RiskLevel == domain.RiskLevelError {
			continue
		}
		agg.RiskScore = max(agg.RiskScore, f.RiskScore)
		agg.CUIDetected = agg.CUIDetected || f.CUIDetected
		agg.MissingMarkings = agg.MissingMarkings || f.MissingMarkings
		for name, n := range f.PatternsFound {
			agg.PatternsFound[name] += n
		}
		for _, c := range f.Categories {
			if _, ok := best[c.Category]; !ok {
				order = append(order, c.Category)
			}
			best[c.Category] = max(best[c.Category], c.Confidence)
		}
		agg.Counts.Characters += f.Counts.Characters
		agg.Counts.Words += f.Counts.Words
		agg.Counts.PatternsTotal += f.Counts.PatternsTotal
	}
	agg.RiskLevel = domain.RiskLevelForScore(agg.RiskScore)
	for _, c := range order {
		agg.Categories = append(agg.Categories, domain.CategoryScore{Category: c, Confidence: best[c]})
	}
	slices.SortStableFunc(agg.Categories, func(a, b domain.CategoryScore) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return agg
}
