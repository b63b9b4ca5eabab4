// Package audit implements the audit trail repository using PostgreSQL.
// It provides append-only operations for audit events.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/genefryaustin-source/cui-inspector/internal/adapter/postgres"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

const (
	table        = "audit_events"
	defaultLimit = 200
)

var columns = []string{"id", "tenant_id", "actor_id", "event_type", "detail", "created_at"}

// Repo provides audit persistence backed by PostgreSQL.
type Repo struct {
	db postgres.DB
}

// New creates a new audit repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db}
}

type row struct {
	ID        uuid.UUID  `db:"id"`
	TenantID  *uuid.UUID `db:"tenant_id"`
	ActorID   *uuid.UUID `db:"actor_id"`
	EventType string     `db:"event_type"`
	Detail    []byte     `db:"detail"`
	CreatedAt time.Time  `db:"created_at"`
}

func (r row) toDomain() (domain.AuditEvent, error) {
	ev := domain.AuditEvent{
		ID:        r.ID,
		TenantID:  r.TenantID,
		ActorID:   r.ActorID,
		EventType: domain.AuditEventType(r.EventType),
		CreatedAt: r.CreatedAt,
	}
	if len(r.Detail) > 0 {
		if err := json.Unmarshal(r.Detail, &ev.Detail); err != nil {
			return domain.AuditEvent{}, fmt.Errorf("audit_event %s unmarshal detail: %w", r.ID, err)
		}
	}
	if ev.Detail == nil {
		ev.Detail = map[string]any{}
	}
	return ev, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new audit event and returns the persisted row.
func (r *Repo) Create(ctx context.Context, ev domain.AuditEvent) (domain.AuditEvent, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	detail := ev.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return domain.AuditEvent{}, fmt.Errorf("audit_event marshal detail: %w", err)
	}

	var out row
	err = postgres.Get(ctx, q, &out, postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(ev.ID, ev.TenantID, ev.ActorID, ev.EventType.String(), detailJSON, ev.CreatedAt).
		Suffix(postgres.Returning(columns)))
	if err != nil {
		return domain.AuditEvent{}, postgres.MapError(err, "audit_event", ev.ID)
	}
	return out.toDomain()
}

// Log creates an audit event without returning it.
func (r *Repo) Log(ctx context.Context, ev domain.AuditEvent) error {
	_, err := r.Create(ctx, ev)
	return err
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// List returns audit events matching f, newest first.
func (r *Repo) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEvent, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	query := postgres.Builder().
		Select(columns...).
		From(table).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))
	if f.TenantID != nil {
		query = query.Where(sq.Eq{"tenant_id": *f.TenantID})
	}
	if f.EventType != nil {
		query = query.Where(sq.Eq{"event_type": f.EventType.String()})
	}

	var rows []row
	if err := postgres.Select(ctx, q, &rows, query); err != nil {
		return nil, postgres.MapError(err, "audit_event", "list")
	}
	out := make([]domain.AuditEvent, 0, len(rows))
	for _, rw := range rows {
		ev, err := rw.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}
