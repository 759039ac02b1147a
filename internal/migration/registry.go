package migration

import (
	"fmt"
	"sync"

	"github.com/papapumpkin/mapforge/internal/entity"
	"github.com/papapumpkin/mapforge/internal/mapfile"
)

// EntitySystemFunc migrates an entity system that is already loaded in
// memory.
type EntitySystemFunc func(sys entity.System, opts Options) (entity.System, error)

// ExistingCode is a migration compiled into the editor and referenced from
// manifests by Name. RawMap migrates maps read from disk; EntitySystem
// applies the same change to an open entity system.
type ExistingCode struct {
	Name         string
	RawMap       Factory
	EntitySystem EntitySystemFunc
}

// Registry holds the existing-code migrations known to the editor. It is
// built once at startup and passed to the Service; each name may be
// registered at most once.
type Registry struct {
	mu         sync.RWMutex
	migrations map[string]ExistingCode
}

// NewRegistry returns a registry holding migs.
func NewRegistry(migs ...ExistingCode) (*Registry, error) {
	r := &Registry{migrations: make(map[string]ExistingCode, len(migs))}
	for _, m := range migs {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds m to the registry. Registering a name twice fails with
// ErrDuplicateMigration.
func (r *Registry) Register(m ExistingCode) error {
	if m.Name == "" {
		return fmt.Errorf("migration: register: existing-code migration has no name")
	}
	if m.RawMap == nil || m.EntitySystem == nil {
		return fmt.Errorf("migration: register %q: both RawMap and EntitySystem are required", m.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.migrations[m.Name]; ok {
		return fmt.Errorf("migration: register %q: %w", m.Name, ErrDuplicateMigration)
	}
	r.migrations[m.Name] = m
	return nil
}

// Lookup returns the migration registered under name.
func (r *Registry) Lookup(name string) (ExistingCode, bool) {
	if r == nil {
		return ExistingCode{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.migrations[name]
	return m, ok
}

// Names returns the registered migration names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.migrations)
}

// RunOnRawMap applies the raw-map side of the named migration to a copy of
// m.
func (r *Registry) RunOnRawMap(name string, m *mapfile.Map, opts Options) (*mapfile.Map, error) {
	mig, ok := r.Lookup(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	fn := mig.RawMap(Tools{})
	if fn == nil {
		return nil, &LoadError{Name: name, Path: "existing-code", Err: fmt.Errorf("factory returned no migration function")}
	}
	return fn(m.Clone(), opts.Clone())
}

// RunOnEntitySystem applies the entity-system side of the named migration to
// a copy of sys.
func (r *Registry) RunOnEntitySystem(name string, sys entity.System, opts Options) (entity.System, error) {
	mig, ok := r.Lookup(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return mig.EntitySystem(sys.Clone(), opts.Clone())
}
