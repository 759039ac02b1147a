package migration

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/papapumpkin/mapforge/internal/mapfile"
)

// Options is the free-form JSON object stored with a migration descriptor and
// handed to the migration when it runs.
type Options map[string]any

// Clone returns a deep copy of the options.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	return Options(mapfile.CloneValue(map[string]any(o)).(map[string]any))
}

// Decode copies the options into the struct pointed to by out, matching keys
// through `mapstructure` tags or case-insensitive field names.
func (o Options) Decode(out any) error {
	if err := mapstructure.Decode(map[string]any(o), out); err != nil {
		return fmt.Errorf("migration: decode options: %w", err)
	}
	return nil
}

// MapFunc transforms a raw map. Implementations return a new map and must
// not mutate m.
type MapFunc func(m *mapfile.Map, opts Options) (*mapfile.Map, error)

// Factory builds a MapFunc from the tools. Every code and existing-code
// migration is expressed as a Factory.
type Factory func(t Tools) MapFunc

// AttributeFunc transforms one system's attribute. Returning a nil attribute
// removes the component from its entity.
type AttributeFunc func(attr mapfile.Attribute, opts Options) (mapfile.Attribute, error)

// EntityFunc transforms the flat view of one entity. Systems absent from the
// returned entity lose that entity's component.
type EntityFunc func(e mapfile.Entity, opts Options) (mapfile.Entity, error)

// Tools is passed to migration factories to build common kinds of map
// migrations. The zero value is ready to use.
type Tools struct{}

// AttributeMigration returns a map migration that rewrites every component of
// the named system with fn. Maps without the system pass through unchanged.
//
// Each attribute handed to fn is a private copy, so fn may modify it in place
// without affecting the input map.
func (Tools) AttributeMigration(system string, fn AttributeFunc) MapFunc {
	return func(m *mapfile.Map, opts Options) (*mapfile.Map, error) {
		out := m.Clone()
		old, ok := out.Systems[system]
		if !ok {
			return out, nil
		}
		migrated := mapfile.System{Components: make(map[string]mapfile.Attribute, len(old.Components))}
		for _, key := range sortedKeys(old.Components) {
			attr, err := fn(old.Components[key], opts)
			if err != nil {
				return nil, fmt.Errorf("system %q, entity %q: %w", system, key, err)
			}
			if attr != nil {
				migrated.Components[key] = attr
			}
		}
		out.Systems[system] = migrated
		return out, nil
	}
}

// EntityMigration returns a map migration that rewrites every entity listed
// in the map with fn and rebuilds all systems from the results. A system left
// without components is removed from the map.
func (t Tools) EntityMigration(fn EntityFunc) MapFunc {
	return func(m *mapfile.Map, opts Options) (*mapfile.Map, error) {
		systems := make(map[string]mapfile.System)
		for _, key := range m.Entities {
			e, err := fn(t.GetEntity(m, key), opts)
			if err != nil {
				return nil, fmt.Errorf("entity %q: %w", key, err)
			}
			for name, attr := range e {
				if attr == nil {
					continue
				}
				s, ok := systems[name]
				if !ok {
					s = mapfile.System{Components: make(map[string]mapfile.Attribute)}
					systems[name] = s
				}
				s.Components[key] = attr
			}
		}
		shell := *m
		shell.Systems = nil
		out := shell.Clone()
		out.Systems = systems
		return out, nil
	}
}

// GetEntity gathers the components every system holds for key into a flat
// entity. The result is a private copy and is never nil; unknown keys and
// maps without systems yield an empty entity.
func (Tools) GetEntity(m *mapfile.Map, key string) mapfile.Entity {
	e := mapfile.Entity{}
	if m == nil {
		return e
	}
	for name, s := range m.Systems {
		if attr, ok := s.Components[key]; ok && attr != nil {
			e[name] = attr.Clone()
		}
	}
	return e
}
