package app

import (
	"fmt"
	"log/slog"

	"github.com/genefryaustin-source/cui-inspector/internal/adapter/objectstore"
	"github.com/genefryaustin-source/cui-inspector/internal/analysis"
	"github.com/genefryaustin-source/cui-inspector/internal/auth"
	"github.com/genefryaustin-source/cui-inspector/internal/config"
	"github.com/genefryaustin-source/cui-inspector/internal/extract"
	"github.com/genefryaustin-source/cui-inspector/internal/metrics"
	"github.com/genefryaustin-source/cui-inspector/internal/ruleset"
	"github.com/genefryaustin-source/cui-inspector/internal/service/access"
	"github.com/genefryaustin-source/cui-inspector/internal/service/identity"
	"github.com/genefryaustin-source/cui-inspector/internal/service/inspect"
	"github.com/genefryaustin-source/cui-inspector/internal/service/vault"
)

// Services is the wired service layer shared by the server and the CLI.
type Services struct {
	Engine   *analysis.Engine
	Gate     *access.Gate
	Identity *identity.Service
	Vault    *vault.Service
	Inspect  *inspect.Service
}

// NewServices wires every service over cat and store. m may be nil.
func NewServices(logger *slog.Logger, cfg *config.Config, cat *Catalog, store objectstore.Store, m *metrics.Metrics) (*Services, error) {
	extra, err := ruleset.LoadFile(cfg.Analysis.RulesetsPath)
	if err != nil {
		return nil, err
	}
	registry, err := ruleset.NewRegistry(extra...)
	if err != nil {
		return nil, err
	}
	if _, err := registry.Get(cfg.Analysis.DefaultRuleset); err != nil {
		return nil, fmt.Errorf("default ruleset: %w", err)
	}
	engine := analysis.NewEngine(registry)

	gate := access.NewGate(logger, cat.Tenants, cat.Audit, m)
	identitySvc := identity.NewService(logger, cat.Tenants, cat.Users, cat.Audit, cat.Tx, gate,
		auth.NewPasswordHasher(cfg.Auth.PasswordIterations),
		auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL),
	)
	vaultSvc := vault.NewService(logger, cat.Artifacts, cat.Inspections, cat.Evidence, cat.Audit, cat.Tx,
		store, gate, engine, m, vault.Options{IndexExcerptChars: cfg.Analysis.IndexExcerptChars})
	inspectSvc := inspect.NewService(logger, engine, extract.New(), vaultSvc, m, inspect.Options{
		DefaultRuleset: cfg.Analysis.DefaultRuleset,
		BulkWorkers:    cfg.Analysis.BulkWorkers,
	})

	return &Services{
		Engine:   engine,
		Gate:     gate,
		Identity: identitySvc,
		Vault:    vaultSvc,
		Inspect:  inspectSvc,
	}, nil
}
