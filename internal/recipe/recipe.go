// Package recipe turns code migration paths into migration factories, either
// from factories registered at startup or from declarative recipe files
// written in TOML or YAML.
package recipe

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/papapumpkin/mapforge/internal/mapfile"
	"github.com/papapumpkin/mapforge/internal/migration"
)

// Step kinds understood by recipes.
const (
	KindRenameField     = "rename_field"     // system, from, to
	KindSetField        = "set_field"        // system, field, value
	KindDeleteField     = "delete_field"     // system, field
	KindDeleteAttribute = "delete_attribute" // system
	KindMoveAttribute   = "move_attribute"   // from, to (system names)
	KindReplaceValue    = "replace_value"    // system, field, old, new
)

// ErrInvalidRecipe indicates a recipe that cannot be compiled.
var ErrInvalidRecipe = errors.New("invalid recipe")

// Recipe is a declarative map migration: a list of steps applied in order.
type Recipe struct {
	Description string `toml:"description" yaml:"description"`
	Steps       []Step `toml:"steps" yaml:"steps"`
}

// Step is one transformation of a recipe. Which fields are read depends on
// Kind.
type Step struct {
	Kind   string `toml:"kind" yaml:"kind"`
	System string `toml:"system" yaml:"system"`
	Field  string `toml:"field" yaml:"field"`
	From   string `toml:"from" yaml:"from"`
	To     string `toml:"to" yaml:"to"`
	Value  any    `toml:"value" yaml:"value"`
	Old    any    `toml:"old" yaml:"old"`
	New    any    `toml:"new" yaml:"new"`
}

// Compile validates r and returns the migration factory that applies its
// steps.
func Compile(r Recipe) (migration.Factory, error) {
	if len(r.Steps) == 0 {
		return nil, fmt.Errorf("recipe: %w: no steps", ErrInvalidRecipe)
	}
	for i, s := range r.Steps {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("recipe: step %d (%s): %w", i+1, s.Kind, err)
		}
	}
	steps := make([]Step, len(r.Steps))
	for i, s := range r.Steps {
		s.Value = normalize(s.Value)
		s.Old = normalize(s.Old)
		s.New = normalize(s.New)
		steps[i] = s
	}
	return func(t migration.Tools) migration.MapFunc {
		fns := make([]migration.MapFunc, len(steps))
		for i, s := range steps {
			fns[i] = s.mapFunc(t)
		}
		return func(m *mapfile.Map, opts migration.Options) (*mapfile.Map, error) {
			for i, fn := range fns {
				next, err := fn(m, opts)
				if err != nil {
					return nil, fmt.Errorf("step %d (%s): %w", i+1, steps[i].Kind, err)
				}
				m = next
			}
			return m, nil
		}
	}, nil
}

func (s Step) validate() error {
	missing := func(names ...string) error {
		return fmt.Errorf("%w: %v required", ErrInvalidRecipe, names)
	}
	switch s.Kind {
	case KindRenameField:
		if s.System == "" || s.From == "" || s.To == "" {
			return missing("system", "from", "to")
		}
	case KindSetField:
		if s.System == "" || s.Field == "" {
			return missing("system", "field")
		}
	case KindDeleteField:
		if s.System == "" || s.Field == "" {
			return missing("system", "field")
		}
	case KindDeleteAttribute:
		if s.System == "" {
			return missing("system")
		}
	case KindMoveAttribute:
		if s.From == "" || s.To == "" {
			return missing("from", "to")
		}
	case KindReplaceValue:
		if s.System == "" || s.Field == "" {
			return missing("system", "field")
		}
	default:
		return fmt.Errorf("%w: unknown step kind %q", ErrInvalidRecipe, s.Kind)
	}
	return nil
}

func (s Step) mapFunc(t migration.Tools) migration.MapFunc {
	switch s.Kind {
	case KindMoveAttribute:
		return t.EntityMigration(func(e mapfile.Entity, _ migration.Options) (mapfile.Entity, error) {
			if attr, ok := e[s.From]; ok {
				delete(e, s.From)
				e[s.To] = attr
			}
			return e, nil
		})
	case KindDeleteAttribute:
		return t.AttributeMigration(s.System, func(mapfile.Attribute, migration.Options) (mapfile.Attribute, error) {
			return nil, nil
		})
	}
	return t.AttributeMigration(s.System, func(attr mapfile.Attribute, _ migration.Options) (mapfile.Attribute, error) {
		switch s.Kind {
		case KindRenameField:
			if v, ok := attr[s.From]; ok {
				delete(attr, s.From)
				attr[s.To] = v
			}
		case KindSetField:
			attr[s.Field] = mapfile.CloneValue(s.Value)
		case KindDeleteField:
			delete(attr, s.Field)
		case KindReplaceValue:
			if v, ok := attr[s.Field]; ok && reflect.DeepEqual(v, s.Old) {
				attr[s.Field] = mapfile.CloneValue(s.New)
			}
		}
		return attr, nil
	})
}

// normalize converts decoded recipe values to the shapes the JSON map codec
// produces: every number becomes a float64 and every object a
// map[string]any.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
