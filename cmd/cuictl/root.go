package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/genefryaustin-source/cui-inspector/internal/adapter/objectstore"
	"github.com/genefryaustin-source/cui-inspector/internal/app"
	"github.com/genefryaustin-source/cui-inspector/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cuictl",
		Short:         "Operate a CUI inspector deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       app.BuildVersion(),
	}

	root.AddCommand(
		newMigrateCmd(),
		newBootstrapCmd(),
		newSetRoleCmd(),
		newAnalyzeCmd(),
		newVerifyCmd(),
		newExportCmd(),
	)
	return root
}

// runtime is the wired catalog, store and services a command works against.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *app.Catalog
	svc     *app.Services
}

func (r *runtime) Close() { r.catalog.Close() }

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cfg.Log)

	cat, err := app.OpenCatalog(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	store, err := objectstore.New(ctx, cfg.ObjectStore)
	if err != nil {
		cat.Close()
		return nil, fmt.Errorf("open object store: %w", err)
	}
	svc, err := app.NewServices(logger, cfg, cat, store, nil)
	if err != nil {
		cat.Close()
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger, catalog: cat, svc: svc}, nil
}
