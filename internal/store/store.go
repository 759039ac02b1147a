// Package store reads and writes project documents on an afero filesystem.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// FS stores JSON documents on an afero filesystem. Use afero.NewOsFs for
// the real disk and afero.NewMemMapFs in tests.
type FS struct {
	fs afero.Fs
}

// New returns a store backed by fsys.
func New(fsys afero.Fs) *FS {
	return &FS{fs: fsys}
}

// NewOS returns a store on the operating system's filesystem.
func NewOS() *FS {
	return New(afero.NewOsFs())
}

// Fs returns the underlying filesystem.
func (s *FS) Fs() afero.Fs { return s.fs }

// ReadJSON returns the contents of path. A missing file yields ok == false
// and no error.
func (s *FS) ReadJSON(path string) ([]byte, bool, error) {
	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: read %s: %w", path, err)
	}
	return data, true, nil
}

// WriteJSON writes data to path, creating missing parent directories. The
// file is written to a temporary sibling first and renamed into place.
func (s *FS) WriteJSON(path string, data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: create directory for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("store: replace %s: %w", path, err)
	}
	return nil
}

// Glob returns the paths of all files under root with the given extension,
// relative to root, without the extension and using forward slashes. The
// result is sorted. A missing root yields no paths.
func (s *FS) Glob(root, ext string) ([]string, error) {
	exists, err := afero.DirExists(s.fs, root)
	if err != nil {
		return nil, fmt.Errorf("store: stat %s: %w", root, err)
	}
	if !exists {
		return nil, nil
	}
	var keys []string
	err = afero.Walk(s.fs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ext {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(strings.TrimSuffix(rel, ext)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: glob %s/**/*%s: %w", root, ext, err)
	}
	slices.Sort(keys)
	return keys, nil
}
