package session

import (
	"maps"

	"github.com/papapumpkin/mapforge/internal/entity"
	"github.com/papapumpkin/mapforge/internal/history"
	"github.com/papapumpkin/mapforge/internal/mapfile"
)

// Entity system actions understood by the session reducer.
const (
	ActionReplaceSystem   = "replace-system"
	ActionSetAttribute    = "set-attribute"
	ActionRemoveAttribute = "remove-attribute"
	ActionAddEntity       = "add-entity"
	ActionRemoveEntity    = "remove-entity"
)

// AttributeChange is the payload of set-attribute and remove-attribute.
type AttributeChange struct {
	Entity    string
	System    string
	Attribute mapfile.Attribute
}

// EntityChange is the payload of add-entity.
type EntityChange struct {
	Key    string
	Entity mapfile.Entity
}

// reduce applies a to sys without modifying it. Entities untouched by the
// action are shared between the old and new system.
func reduce(sys entity.System, a history.Action) entity.System {
	switch a.Name {
	case ActionReplaceSystem:
		next, _ := a.Payload.(entity.System)
		return next.Clone()
	case ActionSetAttribute:
		c, ok := a.Payload.(AttributeChange)
		if !ok {
			return sys
		}
		out := maps.Clone(sys)
		if out == nil {
			out = entity.System{}
		}
		e := out[c.Entity].Clone()
		if e == nil {
			e = mapfile.Entity{}
		}
		e[c.System] = c.Attribute.Clone()
		out[c.Entity] = e
		return out
	case ActionRemoveAttribute:
		c, ok := a.Payload.(AttributeChange)
		if !ok {
			return sys
		}
		if _, exists := sys[c.Entity][c.System]; !exists {
			return sys
		}
		out := maps.Clone(sys)
		e := out[c.Entity].Clone()
		delete(e, c.System)
		out[c.Entity] = e
		return out
	case ActionAddEntity:
		c, ok := a.Payload.(EntityChange)
		if !ok {
			return sys
		}
		out := maps.Clone(sys)
		if out == nil {
			out = entity.System{}
		}
		e := c.Entity.Clone()
		if e == nil {
			e = mapfile.Entity{}
		}
		out[c.Key] = e
		return out
	case ActionRemoveEntity:
		key, _ := a.Payload.(string)
		if _, exists := sys[key]; !exists {
			return sys
		}
		out := maps.Clone(sys)
		delete(out, key)
		return out
	default:
		return sys
	}
}

// mergeAttributeEdits merges consecutive edits of the same attribute so a
// run of small edits undoes as one step.
func mergeAttributeEdits(a, prev history.Action) bool {
	if a.Name != ActionSetAttribute || prev.Name != ActionSetAttribute {
		return false
	}
	c, ok1 := a.Payload.(AttributeChange)
	p, ok2 := prev.Payload.(AttributeChange)
	return ok1 && ok2 && c.Entity == p.Entity && c.System == p.System
}
