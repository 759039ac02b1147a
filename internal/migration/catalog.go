package migration

import (
	"maps"
	"slices"

	"github.com/papapumpkin/mapforge/internal/version"
)

// Descriptor types select how a migration is resolved.
const (
	TypeCode         = "code"          // loaded from Path (or Name) through the Loader
	TypeExistingCode = "existing-code" // looked up by Name in the Registry
	TypeEditor       = "editor"        // built-in editor migration keyed by editor version
)

// Descriptor is one entry of a project's migration manifest. UpdateTo is the
// version a map has after the migration ran.
type Descriptor struct {
	UpdateTo version.Version `json:"updateTo"`
	Name     string          `json:"name,omitempty"`
	Path     string          `json:"path,omitempty"`
	Type     string          `json:"type,omitempty"`
	Options  Options         `json:"options,omitempty"`
}

// Label returns the most descriptive identifier of the migration for error
// messages: its name, its path, or its target version.
func (d Descriptor) Label() string {
	switch {
	case d.Name != "":
		return d.Name
	case d.Path != "":
		return d.Path
	default:
		return "updateTo " + d.UpdateTo.String()
	}
}

// ToRun selects the migrations that take a map from current to target and
// returns them in the order they must run.
//
// A migration is selected when current < UpdateTo <= target. The selection
// is sorted by UpdateTo; migrations sharing an UpdateTo keep their manifest
// order and all of them run. all is left untouched.
func ToRun(current, target version.Version, all []Descriptor) []Descriptor {
	selected := make([]Descriptor, 0, len(all))
	for _, d := range all {
		alreadyRun := version.Compare(d.UpdateTo, current) <= 0
		overflow := version.Compare(target, d.UpdateTo) < 0
		if alreadyRun || overflow {
			continue
		}
		selected = append(selected, d)
	}
	slices.SortStableFunc(selected, func(a, b Descriptor) int {
		return version.Compare(a.UpdateTo, b.UpdateTo)
	})
	return selected
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
