package session

import (
	"github.com/papapumpkin/mapforge/internal/entity"
	"github.com/papapumpkin/mapforge/internal/history"
	"github.com/papapumpkin/mapforge/internal/mapfile"
)

// Entities returns a copy of the open entity system.
func (s *Session) Entities() entity.System {
	return s.history.State().Clone()
}

// SetAttribute sets one system's attribute on an entity. Consecutive edits
// with the same non-empty mergeKey, or of the same attribute when no key is
// given, undo as a single step.
func (s *Session) SetAttribute(entityKey, system string, attr mapfile.Attribute, mergeKey string) {
	s.history.Dispatch(history.Action{
		Name:     ActionSetAttribute,
		MergeKey: mergeKey,
		Payload:  AttributeChange{Entity: entityKey, System: system, Attribute: attr.Clone()},
	})
}

// RemoveAttribute removes one system's attribute from an entity.
func (s *Session) RemoveAttribute(entityKey, system string) {
	s.history.Dispatch(history.Action{
		Name:    ActionRemoveAttribute,
		Payload: AttributeChange{Entity: entityKey, System: system},
	})
}

// AddEntity adds (or replaces) the entity under key.
func (s *Session) AddEntity(key string, e mapfile.Entity) {
	s.history.Dispatch(history.Action{
		Name:    ActionAddEntity,
		Payload: EntityChange{Key: key, Entity: e.Clone()},
	})
}

// RemoveEntity removes the entity under key.
func (s *Session) RemoveEntity(key string) {
	s.history.Dispatch(history.Action{Name: ActionRemoveEntity, Payload: key})
}

// Undo reverts the last edit.
func (s *Session) Undo() { s.history.Undo() }

// Redo reapplies the last undone edit.
func (s *Session) Redo() { s.history.Redo() }

// CanUndo reports whether there is an edit to undo.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether there is an edit to redo.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }
