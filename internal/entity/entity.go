// Package entity holds the in-memory entity system and converts between it
// and the raw map format. It plays the role of the map parser: migrations
// run on raw maps, and the result is handed to Build.
package entity

import (
	"maps"
	"slices"

	"github.com/papapumpkin/mapforge/internal/mapfile"
)

// System maps entity keys to entities. Entities with no attributes are kept
// as empty, non-nil entries.
type System map[string]mapfile.Entity

// Clone returns a deep copy of the entity system.
func (s System) Clone() System {
	if s == nil {
		return nil
	}
	out := make(System, len(s))
	for k, e := range s {
		c := e.Clone()
		if c == nil {
			c = mapfile.Entity{}
		}
		out[k] = c
	}
	return out
}

// Keys returns the entity keys in sorted order.
func (s System) Keys() []string {
	return slices.Sorted(maps.Keys(s))
}

// Build constructs the entity system for a raw map. Every entity key the map
// references becomes an entity, even when no system carries a component for
// it. Attributes are deep-copied, so the result shares nothing with m.
func Build(m *mapfile.Map) System {
	sys := make(System)
	for _, key := range m.EntityKeys() {
		sys[key] = mapfile.Entity{}
	}
	for name, s := range m.Systems {
		for key, attr := range s.Components {
			if attr == nil {
				continue
			}
			sys[key][name] = attr.Clone()
		}
	}
	return sys
}

// Flatten is the inverse of Build. It copies the metadata of base (key,
// assets, version, dimension, grid size, extra keys) and rebuilds the
// entity list and systems from sys. base is not modified.
func Flatten(sys System, base *mapfile.Map) *mapfile.Map {
	out := base.Clone()
	if out == nil {
		out = &mapfile.Map{}
	}
	out.Entities = sys.Keys()
	out.Systems = make(map[string]mapfile.System)
	for key, e := range sys {
		for name, attr := range e {
			if attr == nil {
				continue
			}
			s, ok := out.Systems[name]
			if !ok {
				s = mapfile.System{Components: make(map[string]mapfile.Attribute)}
				out.Systems[name] = s
			}
			s.Components[key] = attr.Clone()
		}
	}
	return out
}
