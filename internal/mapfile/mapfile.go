// Package mapfile defines the on-disk JSON representation of a map: the
// list of entity keys plus, per system, the attribute each entity carries.
package mapfile

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Attribute is the schema-free JSON object a system stores for one entity.
type Attribute map[string]any

// Entity is the flat view of one entity across every system, keyed by system
// name.
type Entity map[string]Attribute

// System holds the components of one system keyed by entity key.
type System struct {
	Components map[string]Attribute `json:"components"`
}

// Asset references an asset the map needs loaded.
type Asset struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

// Vector is a 2D value used for map dimensions.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Map is a raw map as serialized on disk. Top-level keys the editor does not
// know about are kept in Extra so they survive a load/save cycle.
type Map struct {
	Key       string            `json:"key"`
	Entities  []string          `json:"entities"`
	Assets    []Asset           `json:"assets"`
	Systems   map[string]System `json:"systems"`
	Version   string            `json:"version"`
	Dimension *Vector           `json:"dimension,omitempty"`
	GridSize  float64           `json:"gridSize"`
	Extra     map[string]any    `json:"-"`
}

// Default dimensions and grid size for a newly created map.
const (
	DefaultWidth    = 1200
	DefaultHeight   = 800
	DefaultGridSize = 16
)

// New returns an empty map at the given version.
func New(key, version string) *Map {
	return &Map{
		Key:       key,
		Entities:  []string{},
		Assets:    []Asset{},
		Systems:   map[string]System{},
		Version:   version,
		Dimension: &Vector{X: DefaultWidth, Y: DefaultHeight},
		GridSize:  DefaultGridSize,
	}
}

// knownKeys are the top-level keys decoded into Map fields.
var knownKeys = map[string]bool{
	"key": true, "entities": true, "assets": true, "systems": true,
	"version": true, "dimension": true, "gridSize": true,
}

// mapFields aliases Map without its methods so the JSON codec can be reused.
type mapFields Map

// UnmarshalJSON decodes the known fields and stashes the remaining keys in
// Extra.
func (m *Map) UnmarshalJSON(data []byte) error {
	var fields mapFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if knownKeys[k] {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("mapfile: decode %q: %w", k, err)
		}
		if fields.Extra == nil {
			fields.Extra = make(map[string]any)
		}
		fields.Extra[k] = val
	}
	*m = Map(fields)
	return nil
}

// MarshalJSON encodes the known fields followed by the Extra keys.
func (m Map) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(mapFields(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return known, nil
	}
	extra, err := json.Marshal(m.Extra)
	if err != nil {
		return nil, err
	}
	// Splice the two objects: {known...,extra...}.
	var buf bytes.Buffer
	buf.Write(known[:len(known)-1])
	buf.WriteByte(',')
	buf.Write(extra[1:])
	return buf.Bytes(), nil
}

// Decode parses a raw map from JSON.
func Decode(data []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("mapfile: decode map: %w", err)
	}
	return &m, nil
}

// Encode serializes m as JSON, indented with four spaces when indent is set.
func Encode(m *Map, indent bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(m, "", "    ")
	} else {
		data, err = json.Marshal(m)
	}
	if err != nil {
		return nil, fmt.Errorf("mapfile: encode map %q: %w", m.Key, err)
	}
	return data, nil
}

// EntityKeys returns every entity key of the map: the Entities list followed
// by keys that only appear in a system's components, in first-seen order.
// Systems are visited in sorted order so the result is deterministic.
func (m *Map) EntityKeys() []string {
	seen := make(map[string]bool, len(m.Entities))
	keys := make([]string, 0, len(m.Entities))
	for _, k := range m.Entities {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, name := range m.SystemNames() {
		for _, k := range sortedKeys(m.Systems[name].Components) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// SystemNames returns the map's system names in sorted order.
func (m *Map) SystemNames() []string {
	return sortedKeys(m.Systems)
}
