package mapfile

import (
	"maps"
	"slices"
)

// CloneValue deep-copies a JSON value tree made of maps, slices and scalars.
// Scalars are returned as is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = CloneValue(val)
		}
		return out
	case Attribute:
		return t.Clone()
	case Entity:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = CloneValue(val)
		}
		return out
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}

// Clone returns a deep copy of the attribute. A nil attribute stays nil.
func (a Attribute) Clone() Attribute {
	if a == nil {
		return nil
	}
	out := make(Attribute, len(a))
	for k, v := range a {
		out[k] = CloneValue(v)
	}
	return out
}

// Clone returns a deep copy of the entity.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	out := make(Entity, len(e))
	for k, attr := range e {
		out[k] = attr.Clone()
	}
	return out
}

// Clone returns a deep copy of the system.
func (s System) Clone() System {
	if s.Components == nil {
		return System{}
	}
	out := System{Components: make(map[string]Attribute, len(s.Components))}
	for k, attr := range s.Components {
		out.Components[k] = attr.Clone()
	}
	return out
}

// Clone returns a deep copy of m. Mutating the copy never affects m.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := *m
	out.Entities = slices.Clone(m.Entities)
	out.Assets = slices.Clone(m.Assets)
	if m.Systems != nil {
		out.Systems = make(map[string]System, len(m.Systems))
		for name, sys := range m.Systems {
			out.Systems[name] = sys.Clone()
		}
	}
	if m.Dimension != nil {
		dim := *m.Dimension
		out.Dimension = &dim
	}
	if m.Extra != nil {
		out.Extra = make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = CloneValue(v)
		}
	}
	return &out
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
