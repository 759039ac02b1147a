package recipe

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/mapforge/internal/migration"
)

// ErrUnknownPath is returned by a loader that has nothing for a path, letting
// a Chain try the next loader.
var ErrUnknownPath = errors.New("no migration for path")

// Table resolves code migrations registered at startup. A registered factory
// is found by its cleaned path or by its file name without extension, so
// "migrations/renameDoors.js" also answers "/home/game/project/renameDoors".
type Table struct {
	mu     sync.RWMutex
	byPath map[string]migration.Factory
	byStem map[string][]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		byPath: make(map[string]migration.Factory),
		byStem: make(map[string][]string),
	}
}

// Register adds f under path. Registering a path twice is an error.
func (t *Table) Register(path string, f migration.Factory) error {
	if path == "" || f == nil {
		return fmt.Errorf("recipe: register: path and factory are required")
	}
	clean := filepath.Clean(path)
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byPath[clean]; ok {
		return fmt.Errorf("recipe: register %q: already registered", path)
	}
	t.byPath[clean] = f
	s := stem(clean)
	t.byStem[s] = append(t.byStem[s], clean)
	return nil
}

// Load implements migration.Loader.
func (t *Table) Load(path string) (migration.Factory, error) {
	clean := filepath.Clean(path)
	t.mu.RLock()
	defer t.mu.RUnlock()
	if f, ok := t.byPath[clean]; ok {
		return f, nil
	}
	switch candidates := t.byStem[stem(clean)]; len(candidates) {
	case 0:
		return nil, fmt.Errorf("recipe: %s: %w", path, ErrUnknownPath)
	case 1:
		return t.byPath[candidates[0]], nil
	default:
		return nil, fmt.Errorf("recipe: %s is ambiguous between %s", path, strings.Join(candidates, ", "))
	}
}

// Len returns the number of registered factories.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byPath)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// recipeExts are probed, in order, for paths without a recipe extension.
var recipeExts = []string{".toml", ".yaml", ".yml"}

// Files loads recipe files from a filesystem.
type Files struct {
	fs afero.Fs
}

// NewFiles returns a loader reading recipes from fs.
func NewFiles(fs afero.Fs) *Files {
	return &Files{fs: fs}
}

// Load implements migration.Loader. A path with a recipe extension is read
// as is; any other path has its extension replaced by each recipe extension
// in turn.
func (f *Files) Load(path string) (migration.Factory, error) {
	for _, candidate := range candidates(path) {
		data, err := afero.ReadFile(f.fs, candidate)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("recipe: read %s: %w", candidate, err)
		}
		r, err := Decode(filepath.Ext(candidate), data)
		if err != nil {
			return nil, fmt.Errorf("recipe: %s: %w", candidate, err)
		}
		return Compile(r)
	}
	return nil, fmt.Errorf("recipe: %s: %w", path, ErrUnknownPath)
}

func candidates(path string) []string {
	ext := filepath.Ext(path)
	for _, e := range recipeExts {
		if ext == e {
			return []string{path}
		}
	}
	base := strings.TrimSuffix(path, ext)
	out := make([]string, 0, len(recipeExts))
	for _, e := range recipeExts {
		out = append(out, base+e)
	}
	return out
}

// Decode parses a recipe in the format named by ext (".toml", ".yaml" or
// ".yml"). Unknown keys are rejected.
func Decode(ext string, data []byte) (Recipe, error) {
	var r Recipe
	switch ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&r); err != nil {
			return Recipe{}, fmt.Errorf("decode toml: %w", err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&r); err != nil {
			return Recipe{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return Recipe{}, fmt.Errorf("%w: unsupported recipe format %q", ErrInvalidRecipe, ext)
	}
	return r, nil
}

// Chain asks each loader in turn and returns the first factory found.
// Loaders report a path they do not know with ErrUnknownPath; any other error
// stops the search.
type Chain []migration.Loader

// Load implements migration.Loader.
func (c Chain) Load(path string) (migration.Factory, error) {
	for _, l := range c {
		f, err := l.Load(path)
		if errors.Is(err, ErrUnknownPath) {
			continue
		}
		return f, err
	}
	return nil, fmt.Errorf("recipe: %s: %w", path, ErrUnknownPath)
}
