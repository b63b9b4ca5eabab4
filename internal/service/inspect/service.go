// Package inspect orchestrates scans: text extraction, analysis and
// persistence of the run with its evidence byproducts in the vault.
package inspect

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/genefryaustin-source/cui-inspector/internal/analysis"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/vault"
)

// analyzer defines the analysis engine interface needed by inspect service.
type analyzer interface {
	Analyze(text, rulesetName string) (domain.Findings, error)
	AnalyzeBatch(ctx context.Context, rulesetName string, docs []analysis.Document, workers int) ([]analysis.DocumentResult, error)
	Rulesets() []string
}

// extractor defines the text extraction interface needed by inspect service.
type extractor interface {
	Extract(filename string, data []byte) (string, error)
}

// vaultService defines the vault operations needed by inspect service.
type vaultService interface {
	UpsertArtifactAndVersion(ctx context.Context, actor domain.Principal, input vault.UpsertInput) (vault.UpsertResult, error)
	SaveInspection(ctx context.Context, actor domain.Principal, input vault.SaveInspectionInput) (domain.Inspection, error)
	AttachEvidence(ctx context.Context, actor domain.Principal, input vault.AttachInput) (domain.EvidenceFile, error)
	SaveTextIndex(ctx context.Context, actor domain.Principal, input vault.IndexInput) (domain.TextIndexEntry, error)
}

// scanMetrics records analyzed documents.
type scanMetrics interface {
	ObserveScan(ruleset, riskLevel string, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveScan(string, string, time.Duration) {}

// Options tunes the inspect service.
type Options struct {
	DefaultRuleset string
	BulkWorkers    int
}

// Service implements scan orchestration.
type Service struct {
	log       *slog.Logger
	analyzer  analyzer
	extractor extractor
	vault     vaultService
	metrics   scanMetrics
	opts      Options
}

// NewService creates a new inspect service instance. metrics may be nil.
func NewService(logger *slog.Logger, analyzer analyzer, extractor extractor, vault vaultService, metrics scanMetrics, opts Options) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if opts.BulkWorkers <= 0 {
		opts.BulkWorkers = 1
	}
	return &Service{
		log:       logger.With("service", "inspect"),
		analyzer:  analyzer,
		extractor: extractor,
		vault:     vault,
		metrics:   metrics,
		opts:      opts,
	}
}

// Analyze runs the engine without persisting anything.
func (s *Service) Analyze(text, rulesetName string) (domain.Findings, error) {
	name, err := s.ruleset(rulesetName)
	if err != nil {
		return domain.Findings{}, err
	}
	start := time.Now()
	f, err := s.analyzer.Analyze(text, name)
	if err != nil {
		return domain.Findings{}, err
	}
	s.metrics.ObserveScan(name, f.RiskLevel.String(), time.Since(start))
	return f, nil
}

// Rulesets lists the selectable ruleset names.
func (s *Service) Rulesets() []string {
	return s.analyzer.Rulesets()
}

// ruleset resolves an empty name to the default and rejects unknown names
// before anything is written.
func (s *Service) ruleset(name string) (string, error) {
	if name == "" {
		name = s.opts.DefaultRuleset
	}
	if !slices.Contains(s.analyzer.Rulesets(), name) {
		return "", &domain.ConfigurationError{Ruleset: name}
	}
	return name, nil
}
