package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/genefryaustin-source/cui-inspector/internal/adapter/objectstore"
	"github.com/genefryaustin-source/cui-inspector/internal/config"
	"github.com/genefryaustin-source/cui-inspector/internal/metrics"
	"github.com/genefryaustin-source/cui-inspector/internal/transport/middleware"
	"github.com/genefryaustin-source/cui-inspector/internal/transport/rest"
)

// probeDigest addresses an object that need not exist; probing it checks
// that the store answers.
var probeDigest = objectstore.Digest(nil)

// Run is the server entry point. It loads configuration, connects the
// catalog and object store, wires the services and serves HTTP until ctx is
// cancelled, then shuts down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("object_store", cfg.ObjectStore.Backend),
	)

	cat, err := OpenCatalog(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer cat.Close()
	if cat.Driver() == config.DriverMemory {
		logger.Warn("using in-memory catalog; metadata is lost on exit")
	}

	store, err := objectstore.New(ctx, cfg.ObjectStore)
	if err != nil {
		return fmt.Errorf("open object store: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	svc, err := NewServices(logger, cfg, cat, store, m)
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      NewHandler(logger, cfg, cat, store, svc, m, limiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// NewHandler builds the full HTTP handler: routes, authentication, request
// logging, metrics and panic recovery. m and limiter may be nil.
func NewHandler(
	logger *slog.Logger,
	cfg *config.Config,
	cat *Catalog,
	store objectstore.Store,
	svc *Services,
	m *metrics.Metrics,
	limiter *middleware.RateLimiter,
) http.Handler {
	maxUpload := cfg.Server.MaxUploadBytes

	opts := rest.RouterOptions{}
	if limiter != nil {
		opts.LoginLimit = limiter.Limit(cfg.Auth.LoginRatePerMinute)
	}
	if m != nil {
		opts.Metrics = m.Handler()
		opts.MetricsPath = cfg.Metrics.Path
	}

	mux := rest.NewRouter(rest.Handlers{
		Health: rest.NewHealthHandler(BuildVersion(),
			rest.Check{Name: "catalog", Pinger: cat},
			rest.Check{Name: "object_store", Pinger: rest.PingFunc(func(ctx context.Context) error {
				_, err := store.Exists(ctx, objectstore.RelPath(probeDigest))
				return err
			})},
		),
		Auth:  rest.NewAuthHandler(svc.Identity, logger),
		Admin: rest.NewAdminHandler(svc.Identity, logger),
		Scan:  rest.NewScanHandler(svc.Inspect, logger, maxUpload),
		Vault: rest.NewVaultHandler(svc.Vault, logger, maxUpload),
	}, opts)

	var routed http.Handler = mux
	if m != nil {
		routed = middleware.Metrics(m)(mux)
	}

	return middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Auth(svc.Identity),
		middleware.Logger(logger),
	)(routed)
}
