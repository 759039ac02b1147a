package migration

import (
	"github.com/papapumpkin/mapforge/internal/mapfile"
	"github.com/papapumpkin/mapforge/internal/version"
)

// EditorMigration is a map migration that ships with an editor release.
// Opening a project last saved by an older editor appends the missing editor
// migrations to the project's manifest.
type EditorMigration struct {
	EditorVersion version.Version
	Factory       Factory
}

// Drawable type tags written by the engine.
const (
	containerDrawable = "ild::ContainerDrawable"
	animatedDrawable  = "ild::AnimatedDrawable"
)

// DefaultEditorMigrations returns the editor migrations for every release up
// to version.Editor, oldest first.
func DefaultEditorMigrations() []EditorMigration {
	return []EditorMigration{
		{EditorVersion: version.Version{Major: 0, Minor: 2}, Factory: drawableAnchors},
		{EditorVersion: version.Version{Major: 0, Minor: 3}, Factory: centerPositions},
		{EditorVersion: version.Version{Major: 0, Minor: 4}, Factory: collisionAnchors},
	}
}

// drawableAnchors replaces drawable position offsets with anchor points.
func drawableAnchors(t Tools) MapFunc {
	return t.AttributeMigration("drawable", func(attr mapfile.Attribute, _ Options) (mapfile.Attribute, error) {
		if top, ok := attr["topDrawable"].(map[string]any); ok {
			attr["topDrawable"] = anchorDrawable(top)
		}
		return attr, nil
	})
}

func anchorDrawable(d map[string]any) map[string]any {
	delete(d, "positionOffset")
	anchor := map[string]any{"x": 0.5, "y": 0.5}
	switch d["__cpp_type"] {
	case containerDrawable:
		d["drawables"] = anchorChildren(d["drawables"])
		anchor = map[string]any{"x": 0.0, "y": 0.0}
	case animatedDrawable:
		d["frames"] = anchorChildren(d["frames"])
		anchor = map[string]any{"x": 0.0, "y": 0.0}
	}
	d["anchor"] = anchor
	return d
}

func anchorChildren(v any) any {
	children, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(children))
	for i, c := range children {
		if child, ok := c.(map[string]any); ok {
			out[i] = anchorDrawable(child)
			continue
		}
		out[i] = c
	}
	return out
}

// centerPositions moves the origin from the map corner to the map centre.
func centerPositions(t Tools) MapFunc {
	return func(m *mapfile.Map, opts Options) (*mapfile.Map, error) {
		if m.Dimension == nil {
			return m.Clone(), nil
		}
		dx, dy := m.Dimension.X/2, m.Dimension.Y/2
		shift := t.EntityMigration(func(e mapfile.Entity, _ Options) (mapfile.Entity, error) {
			pos, ok := e["position"]["position"].(map[string]any)
			if !ok {
				return e, nil
			}
			if x, ok := pos["x"].(float64); ok {
				pos["x"] = x + dx
			}
			if y, ok := pos["y"].(float64); ok {
				pos["y"] = y + dy
			}
			return e, nil
		})
		return shift(m, opts)
	}
}

// collisionAnchors gives every collision attribute a centred anchor.
func collisionAnchors(t Tools) MapFunc {
	return t.AttributeMigration("collision", func(attr mapfile.Attribute, _ Options) (mapfile.Attribute, error) {
		attr["anchor"] = map[string]any{"x": 0.5, "y": 0.5}
		return attr, nil
	})
}
