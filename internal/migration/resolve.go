package migration

import (
	"errors"
	"path/filepath"

	"github.com/papapumpkin/mapforge/internal/version"
)

// resolve turns a descriptor into the function that migrates a map.
func (s *Service) resolve(d Descriptor, root string) (MapFunc, error) {
	switch d.Type {
	case TypeExistingCode:
		return s.existingCode(d.Name)
	case TypeEditor:
		return s.editor(d.Name)
	case TypeCode:
		path := d.Path
		if path == "" {
			path = d.Name
		}
		return s.code(d, root, path)
	case "":
		if d.Name != "" {
			if _, ok := s.registry.Lookup(d.Name); ok {
				return s.existingCode(d.Name)
			}
			if fn, err := s.editor(d.Name); err == nil {
				return fn, nil
			}
		}
		if d.Path != "" {
			return s.code(d, root, d.Path)
		}
		return nil, &NotFoundError{Name: d.Label()}
	default:
		return nil, &NotFoundError{Name: d.Label(), Type: d.Type}
	}
}

func (s *Service) existingCode(name string) (MapFunc, error) {
	mig, ok := s.registry.Lookup(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	fn := mig.RawMap(Tools{})
	if fn == nil {
		return nil, &LoadError{Name: name, Path: TypeExistingCode, Err: errors.New("factory returned no migration function")}
	}
	return fn, nil
}

func (s *Service) editor(name string) (MapFunc, error) {
	v, err := version.Parse(name)
	if err == nil {
		for _, m := range s.editorMigrations {
			if m.EditorVersion == v {
				return m.Factory(Tools{}), nil
			}
		}
	}
	return nil, &NotFoundError{Name: name, Type: TypeEditor}
}

func (s *Service) code(d Descriptor, root, path string) (MapFunc, error) {
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(root, path)
	}
	factory, err := s.load(resolved)
	if err != nil {
		return nil, &LoadError{Name: d.Label(), Path: resolved, Err: err}
	}
	fn := factory(Tools{})
	if fn == nil {
		return nil, &LoadError{Name: d.Label(), Path: resolved, Err: errors.New("factory returned no migration function")}
	}
	return fn, nil
}

// load returns the factory for path, consulting the loader at most once per
// path.
func (s *Service) load(path string) (Factory, error) {
	if s.loader == nil {
		return nil, errors.New("no code migration loader configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.loaded[path]; ok {
		return f, nil
	}
	f, err := s.loader.Load(path)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errors.New("module does not export a migration factory")
	}
	s.loaded[path] = f
	return f, nil
}
