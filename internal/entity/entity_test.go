package entity

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/mapforge/internal/mapfile"
)

func sampleMap() *mapfile.Map {
	m := mapfile.New("level", "1.0")
	m.Entities = []string{"a", "b", "empty"}
	m.Systems = map[string]mapfile.System{
		"position": {Components: map[string]mapfile.Attribute{
			"a": {"position": map[string]any{"x": 1.0, "y": 2.0}},
			"b": {"position": map[string]any{"x": 3.0, "y": 4.0}},
		}},
		"collision": {Components: map[string]mapfile.Attribute{
			"a":        {"collisionType": "wall"},
			"orphaned": {"collisionType": "none"},
		}},
	}
	return m
}

func TestBuild(t *testing.T) {
	t.Parallel()

	sys := Build(sampleMap())

	want := System{
		"a": {
			"position":  {"position": map[string]any{"x": 1.0, "y": 2.0}},
			"collision": {"collisionType": "wall"},
		},
		"b":        {"position": {"position": map[string]any{"x": 3.0, "y": 4.0}}},
		"empty":    {},
		"orphaned": {"collision": {"collisionType": "none"}},
	}
	if diff := cmp.Diff(want, sys); diff != "" {
		t.Errorf("Build mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_DoesNotShareAttributes(t *testing.T) {
	t.Parallel()

	m := sampleMap()
	sys := Build(m)
	sys["a"]["collision"]["collisionType"] = "changed"

	if got := m.Systems["collision"].Components["a"]["collisionType"]; got != "wall" {
		t.Errorf("raw map mutated through entity system: %v", got)
	}
}

func TestFlatten_RoundTrip(t *testing.T) {
	t.Parallel()

	m := sampleMap()
	sys := Build(m)
	flat := Flatten(sys, m)

	if diff := cmp.Diff([]string{"a", "b", "empty", "orphaned"}, flat.Entities); diff != "" {
		t.Errorf("Entities mismatch (-want +got):\n%s", diff)
	}
	if flat.Key != m.Key || flat.Version != m.Version || flat.GridSize != m.GridSize {
		t.Errorf("metadata not carried over: %+v", flat)
	}
	if diff := cmp.Diff(sys, Build(flat)); diff != "" {
		t.Errorf("Build(Flatten(sys)) mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_EmptySystemOmitted(t *testing.T) {
	t.Parallel()

	sys := System{"lonely": {}}
	flat := Flatten(sys, mapfile.New("k", "1.0"))
	if len(flat.Systems) != 0 {
		t.Errorf("Systems = %v, want none", flat.Systems)
	}
	if diff := cmp.Diff([]string{"lonely"}, flat.Entities); diff != "" {
		t.Errorf("Entities mismatch (-want +got):\n%s", diff)
	}
}

func TestClone(t *testing.T) {
	t.Parallel()

	sys := Build(sampleMap())
	c := sys.Clone()
	c["a"]["position"]["position"].(map[string]any)["x"] = 100.0
	delete(c, "b")

	if got := sys["a"]["position"]["position"].(map[string]any)["x"]; got != 1.0 {
		t.Errorf("original mutated: %v", got)
	}
	if _, ok := sys["b"]; !ok {
		t.Error("original lost entity b")
	}
}
