package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genefryaustin-source/cui-inspector/internal/adapter/objectstore"
	"github.com/genefryaustin-source/cui-inspector/internal/config"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/metrics"
	"github.com/genefryaustin-source/cui-inspector/internal/ruleset"
	"github.com/genefryaustin-source/cui-inspector/internal/transport/middleware"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{MaxUploadBytes: 1 << 20},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Auth: config.AuthConfig{
			JWTSecret:          strings.Repeat("s", 32),
			JWTIssuer:          "test",
			AccessTokenTTL:     time.Hour,
			PasswordIterations: 1000,
			LoginRatePerMinute: 2,
		},
		Analysis: config.AnalysisConfig{DefaultRuleset: ruleset.Basic, IndexExcerptChars: 1200, BulkWorkers: 2},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

type server struct {
	handler http.Handler
	svc     *Services
}

func newServer(t *testing.T, cfg *config.Config) *server {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	cat, err := OpenCatalog(ctx, cfg.Database, logger)
	require.NoError(t, err)
	t.Cleanup(cat.Close)
	store, err := objectstore.NewFS(t.TempDir())
	require.NoError(t, err)

	m := metrics.New()
	svc, err := NewServices(logger, cfg, cat, store, m)
	require.NoError(t, err)
	_, err = svc.Identity.BootstrapSuperadmin(ctx, "root", "root-password")
	require.NoError(t, err)

	limiter := middleware.NewRateLimiter(time.Minute)
	t.Cleanup(limiter.Stop)

	return &server{handler: NewHandler(logger, cfg, cat, store, svc, m, limiter), svc: svc}
}

func (s *server) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (s *server) login(password string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"root","password":"`+password+`"}`))
	req.RemoteAddr = "10.0.0.1:5555"
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestNewHandler_Probes(t *testing.T) {
	t.Parallel()
	s := newServer(t, testConfig())

	assert.Equal(t, http.StatusOK, s.get("/live").Code)
	assert.Equal(t, http.StatusOK, s.get("/ready").Code)

	rec := s.get("/health")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Components map[string]struct {
			Status string `json:"status"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Components["catalog"].Status)
	assert.Equal(t, "ok", body.Components["object_store"].Status)

	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestNewHandler_MetricsAndLoginLimit(t *testing.T) {
	t.Parallel()
	s := newServer(t, testConfig())

	require.Equal(t, http.StatusOK, s.login("root-password").Code)
	require.Equal(t, http.StatusUnauthorized, s.login("wrong").Code)
	assert.Equal(t, http.StatusTooManyRequests, s.login("root-password").Code)

	rec := s.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, "cui_inspector_")
	assert.Contains(t, out, `route="POST /api/v1/auth/login"`)
}

func TestNewHandler_MetricsDisabled(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Metrics.Enabled = false

	logger := slog.New(slog.DiscardHandler)
	cat, err := OpenCatalog(context.Background(), cfg.Database, logger)
	require.NoError(t, err)
	store, err := objectstore.NewFS(t.TempDir())
	require.NoError(t, err)
	svc, err := NewServices(logger, cfg, cat, store, nil)
	require.NoError(t, err)

	h := NewHandler(logger, cfg, cat, store, svc, nil, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOpenCatalog_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := OpenCatalog(context.Background(), config.DatabaseConfig{Driver: "sqlite"}, slog.New(slog.DiscardHandler))
	assert.ErrorContains(t, err, `unknown driver "sqlite"`)
}

func TestNewServices_UnknownDefaultRuleset(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Analysis.DefaultRuleset = "Strict"

	logger := slog.New(slog.DiscardHandler)
	cat, err := OpenCatalog(context.Background(), cfg.Database, logger)
	require.NoError(t, err)
	store, err := objectstore.NewFS(t.TempDir())
	require.NoError(t, err)

	_, err = NewServices(logger, cfg, cat, store, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
