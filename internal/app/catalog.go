package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/adapter/memory"
	"github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres"
	"github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres/artifact"
	"github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres/audit"
	"github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres/evidence"
	"github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres/inspection"
	"github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres/tenant"
	"github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres/user"
	"github.com/genefryaustin-source/cui-inspector/internal/config"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// TenantStore is the tenant table.
type TenantStore interface {
	Create(ctx context.Context, t domain.Tenant) (domain.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Tenant, error)
	List(ctx context.Context, id *uuid.UUID) ([]domain.Tenant, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// UserStore is the user table.
type UserStore interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context, tenantID *uuid.UUID) ([]domain.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	SetRole(ctx context.Context, id uuid.UUID, role domain.UserRole, tenantID *uuid.UUID) error
	CountByRole(ctx context.Context, role domain.UserRole) (int, error)
}

// ArtifactStore holds artifacts and their versions.
type ArtifactStore interface {
	LockOrCreate(ctx context.Context, a domain.Artifact) (domain.Artifact, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Artifact, error)
	LatestVersion(ctx context.Context, tenantID, artifactID uuid.UUID) (domain.ArtifactVersion, error)
	CreateVersion(ctx context.Context, v domain.ArtifactVersion) (domain.ArtifactVersion, error)
	GetVersion(ctx context.Context, tenantID, id uuid.UUID) (domain.ArtifactVersion, error)
	ListVersions(ctx context.Context, tenantID, artifactID *uuid.UUID) ([]domain.ArtifactVersion, error)
}

// InspectionStore is the inspection table.
type InspectionStore interface {
	Create(ctx context.Context, in domain.Inspection) (domain.Inspection, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Inspection, error)
	TenantOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]domain.Inspection, error)
	ListRecent(ctx context.Context, tenantID *uuid.UUID, limit int) ([]domain.Inspection, error)
}

// EvidenceStore holds evidence files and the text index.
type EvidenceStore interface {
	Create(ctx context.Context, f domain.EvidenceFile) (domain.EvidenceFile, error)
	ListByInspection(ctx context.Context, tenantID, inspectionID uuid.UUID) ([]domain.EvidenceFile, error)
	List(ctx context.Context, tenantID *uuid.UUID) ([]domain.EvidenceFile, error)
	CreateIndexEntry(ctx context.Context, e domain.TextIndexEntry) (domain.TextIndexEntry, error)
	SearchIndex(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]domain.TextIndexEntry, error)
}

// AuditStore is the append-only audit trail.
type AuditStore interface {
	Log(ctx context.Context, ev domain.AuditEvent) error
	List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEvent, error)
}

// TxRunner runs fn in one catalog transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var (
	_ TenantStore     = (*tenant.Repo)(nil)
	_ UserStore       = (*user.Repo)(nil)
	_ ArtifactStore   = (*artifact.Repo)(nil)
	_ InspectionStore = (*inspection.Repo)(nil)
	_ EvidenceStore   = (*evidence.Repo)(nil)
	_ AuditStore      = (*audit.Repo)(nil)
	_ TxRunner        = (*postgres.TxManager)(nil)

	_ TenantStore     = (*memory.TenantRepo)(nil)
	_ UserStore       = (*memory.UserRepo)(nil)
	_ ArtifactStore   = (*memory.ArtifactRepo)(nil)
	_ InspectionStore = (*memory.InspectionRepo)(nil)
	_ EvidenceStore   = (*memory.EvidenceRepo)(nil)
	_ AuditStore      = (*memory.AuditRepo)(nil)
	_ TxRunner        = (*memory.TxManager)(nil)
)

// Catalog is the relational metadata store selected by DatabaseConfig.Driver.
type Catalog struct {
	Tenants     TenantStore
	Users       UserStore
	Artifacts   ArtifactStore
	Inspections InspectionStore
	Evidence    EvidenceStore
	Audit       AuditStore
	Tx          TxRunner

	driver string
	ping   func(ctx context.Context) error
	close  func()
}

// OpenCatalog connects the configured catalog. With AutoMigrate set, pending
// PostgreSQL migrations are applied before returning.
func OpenCatalog(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Catalog, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		m := memory.New()
		return &Catalog{
			Tenants:     m.Tenants,
			Users:       m.Users,
			Artifacts:   m.Artifacts,
			Inspections: m.Inspections,
			Evidence:    m.Evidence,
			Audit:       m.Audit,
			Tx:          m.Tx,
			driver:      cfg.Driver,
			ping:        func(context.Context) error { return nil },
			close:       func() {},
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, logger); err != nil {
				pool.Close()
				return nil, fmt.Errorf("auto migrate: %w", err)
			}
		}
		return &Catalog{
			Tenants:     tenant.New(pool),
			Users:       user.New(pool),
			Artifacts:   artifact.New(pool),
			Inspections: inspection.New(pool),
			Evidence:    evidence.New(pool),
			Audit:       audit.New(pool),
			Tx:          postgres.NewTxManager(pool),
			driver:      cfg.Driver,
			ping:        pool.Ping,
			close:       pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("catalog: unknown driver %q", cfg.Driver)
	}
}

// Driver names the backing driver.
func (c *Catalog) Driver() string { return c.driver }

// Ping checks that the catalog is reachable.
func (c *Catalog) Ping(ctx context.Context) error { return c.ping(ctx) }

// Close releases the catalog connections.
func (c *Catalog) Close() { c.close() }
