package ruleset

import (
	"fmt"
	"sync"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// Registry resolves rulesets by name. Built-in rulesets are always present.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]*Ruleset
	order []string
}

// NewRegistry returns a registry seeded with the built-in rulesets followed by extra.
func NewRegistry(extra ...*Ruleset) (*Registry, error) {
	r := &Registry{byKey: make(map[string]*Ruleset)}
	for _, rs := range builtins() {
		r.add(rs)
	}
	for _, rs := range extra {
		if err := r.Register(rs); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register compiles and adds a ruleset. Names must be unique.
func (r *Registry) Register(rs *Ruleset) error {
	if rs == nil {
		return &domain.ConfigurationError{Reason: "nil ruleset"}
	}
	if err := rs.Compile(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKey[rs.Name]; exists {
		return &domain.ConfigurationError{Ruleset: rs.Name, Reason: "already registered"}
	}
	r.byKey[rs.Name] = rs
	r.order = append(r.order, rs.Name)
	return nil
}

func (r *Registry) add(rs *Ruleset) {
	r.byKey[rs.Name] = rs
	r.order = append(r.order, rs.Name)
}

// Get returns the named ruleset or a ConfigurationError.
func (r *Registry) Get(name string) (*Ruleset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rs, ok := r.byKey[name]
	if !ok {
		return nil, fmt.Errorf("ruleset.Get: %w", &domain.ConfigurationError{Ruleset: name})
	}
	return rs, nil
}

// Names lists registered rulesets in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
