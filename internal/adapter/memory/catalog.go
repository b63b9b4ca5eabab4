// Package memory is an in-process catalog with the same repository surface as
// the PostgreSQL adapter. It backs tests and DATABASE_DRIVER=memory.
//
// RunInTx serializes transactions and rolls back every row a failed
// transaction wrote. Objects written to the object store inside a failed
// transaction are never referenced and remain as orphans, which is also true
// of the PostgreSQL deployment.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// Catalog owns every table and hands out repositories over them.
type Catalog struct {
	mu   sync.Mutex
	txMu sync.Mutex

	tenants     map[uuid.UUID]domain.Tenant
	users       map[uuid.UUID]domain.User
	artifacts   map[uuid.UUID]domain.Artifact
	versions    []domain.ArtifactVersion
	inspections []domain.Inspection
	evidence    []domain.EvidenceFile
	index       []domain.TextIndexEntry
	audit       []domain.AuditEvent

	Tenants     *TenantRepo
	Users       *UserRepo
	Artifacts   *ArtifactRepo
	Inspections *InspectionRepo
	Evidence    *EvidenceRepo
	Audit       *AuditRepo
	Tx          *TxManager
}

// New creates an empty catalog.
func New() *Catalog {
	c := &Catalog{
		tenants:   map[uuid.UUID]domain.Tenant{},
		users:     map[uuid.UUID]domain.User{},
		artifacts: map[uuid.UUID]domain.Artifact{},
	}
	c.Tenants = &TenantRepo{c: c}
	c.Users = &UserRepo{c: c}
	c.Artifacts = &ArtifactRepo{c: c}
	c.Inspections = &InspectionRepo{c: c}
	c.Evidence = &EvidenceRepo{c: c}
	c.Audit = &AuditRepo{c: c}
	c.Tx = &TxManager{c: c}
	return c
}

type txKey struct{}

// txState is the undo log of one transaction. Entries run under Catalog.mu.
type txState struct {
	undo []func()
}

// TxManager serializes transactions over the catalog.
type TxManager struct {
	c *Catalog
}

// RunInTx runs fn while holding the catalog transaction lock. Nested calls
// join the outer transaction. When fn fails, or panics, its writes are undone
// in reverse order.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}
	m.c.txMu.Lock()
	defer m.c.txMu.Unlock()

	st := &txState{}
	defer func() {
		if p := recover(); p != nil {
			m.c.rollback(st)
			panic(p)
		}
		if err != nil {
			m.c.rollback(st)
		}
	}()
	return fn(context.WithValue(ctx, txKey{}, st))
}

func (c *Catalog) rollback(st *txState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(st.undo) - 1; i >= 0; i-- {
		st.undo[i]()
	}
}

// onRollback registers undo for a write made inside a transaction. It is a
// no-op outside one. Callers hold c.mu.
func (c *Catalog) onRollback(ctx context.Context, undo func()) {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		st.undo = append(st.undo, undo)
	}
}

// removeByID drops the row with id from s. Rows appended concurrently outside
// the transaction are left in place.
func removeByID[T any](s []T, id uuid.UUID, idOf func(T) uuid.UUID) []T {
	return slices.DeleteFunc(s, func(x T) bool { return idOf(x) == id })
}

func (c *Catalog) tenantExists(id uuid.UUID) bool {
	_, ok := c.tenants[id]
	return ok
}

func (c *Catalog) userExists(id *uuid.UUID) bool {
	if id == nil {
		return true
	}
	_, ok := c.users[*id]
	return ok
}

func notFound(entity string, key any) error {
	return fmt.Errorf("%s %v: %w", entity, key, domain.ErrNotFound)
}

func cloneInspection(in domain.Inspection) domain.Inspection {
	in.Patterns = maps.Clone(in.Patterns)
	if in.Patterns == nil {
		in.Patterns = map[string]int{}
	}
	in.Categories = slices.Clone(in.Categories)
	in.Summary.Signals = slices.Clone(in.Summary.Signals)
	in.Summary.Included = slices.Clone(in.Summary.Included)
	return in
}

func errAlreadyExists(entity string, key any) error {
	return fmt.Errorf("%s %v: %w", entity, key, domain.ErrAlreadyExists)
}
