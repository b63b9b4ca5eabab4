package analysis

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// Document is one input of a batch run. Err carries an upstream extraction failure.
type Document struct {
	Name string
	Text string
	Err  error
}

// DocumentResult pairs a document name with its findings. Failed documents
// carry RiskLevel ERROR and a non-nil Err.
type DocumentResult struct {
	Name     string
	Findings domain.Findings
	Err      error
}

// AnalyzeBatch analyzes docs with at most workers concurrent scans. Results keep
// input order. Only an unknown ruleset fails the whole batch; per-document
// failures become ERROR results.
func (e *Engine) AnalyzeBatch(ctx context.Context, rulesetName string, docs []Document, workers int) ([]DocumentResult, error) {
	rs, err := e.rulesets.Get(rulesetName)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}

	results := make([]DocumentResult, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, doc := range docs {
		g.Go(func() error {
			results[i] = DocumentResult{Name: doc.Name}
			switch {
			case doc.Err != nil:
				results[i].Err = doc.Err
			case gctx.Err() != nil:
				results[i].Err = gctx.Err()
			default:
				results[i].Findings = Evaluate(rs, doc.Text)
				return nil
			}
			results[i].Findings = domain.ErrorFindings(rs.Name, results[i].Err)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}
