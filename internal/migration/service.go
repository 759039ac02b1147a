package migration

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/mapforge/internal/entity"
	"github.com/papapumpkin/mapforge/internal/mapfile"
	"github.com/papapumpkin/mapforge/internal/version"
)

// JSONStore reads and writes the JSON documents of a project.
type JSONStore interface {
	// ReadJSON returns the contents of path. A missing file is reported with
	// ok == false and a nil error.
	ReadJSON(path string) (data []byte, ok bool, err error)
	// WriteJSON replaces the contents of path, creating parent directories.
	WriteJSON(path string, data []byte) error
}

// Loader resolves a code migration path to its factory.
type Loader interface {
	Load(path string) (Factory, error)
}

// Observer is notified after each migration MigrateMap runs. err is nil when
// the migration succeeded.
type Observer func(d Descriptor, err error)

// Service opens project manifests and migrates maps to the project version.
// A Service is safe for concurrent use, but migrations of one map always run
// sequentially.
type Service struct {
	store            JSONStore
	registry         *Registry
	loader           Loader
	logger           zerolog.Logger
	observer         Observer
	editorVersion    string
	editorMigrations []EditorMigration

	mu     sync.Mutex
	loaded map[string]Factory
}

// Option configures a Service.
type Option func(*Service)

// WithLoader sets the loader used to resolve code migrations. Without one,
// every code migration fails to load.
func WithLoader(l Loader) Option {
	return func(s *Service) { s.loader = l }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithObserver registers a callback invoked after each migration runs.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithEditorVersion overrides the running editor version.
func WithEditorVersion(v string) Option {
	return func(s *Service) { s.editorVersion = v }
}

// WithEditorMigrations replaces the built-in editor migrations.
func WithEditorMigrations(migs []EditorMigration) Option {
	return func(s *Service) { s.editorMigrations = migs }
}

// NewService returns a Service reading manifests from store and resolving
// existing-code migrations through reg.
func NewService(store JSONStore, reg *Registry, opts ...Option) *Service {
	s := &Service{
		store:            store,
		registry:         reg,
		logger:           zerolog.Nop(),
		editorVersion:    version.Editor,
		editorMigrations: DefaultEditorMigrations(),
		loaded:           make(map[string]Factory),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EditorVersion returns the version of the running editor.
func (s *Service) EditorVersion() string { return s.editorVersion }

// ReadVersionFile reads the manifest under home. ok is false when the project
// has no manifest yet.
func (s *Service) ReadVersionFile(home string) (vf VersionFile, ok bool, err error) {
	path := VersionFilePath(home)
	data, ok, err := s.store.ReadJSON(path)
	if err != nil {
		return VersionFile{}, false, fmt.Errorf("migration: read %s: %w", path, err)
	}
	if !ok {
		return VersionFile{}, false, nil
	}
	vf, err = DecodeVersionFile(data)
	if err != nil {
		return VersionFile{}, false, fmt.Errorf("migration: read %s: %w", path, err)
	}
	return vf, true, nil
}

// SaveProject writes vf as the manifest under home.
func (s *Service) SaveProject(home string, vf VersionFile) error {
	data, err := EncodeVersionFile(vf)
	if err != nil {
		return err
	}
	path := VersionFilePath(home)
	if err := s.store.WriteJSON(path, data); err != nil {
		return fmt.Errorf("migration: save %s: %w", path, err)
	}
	return nil
}

// OpenProject loads the manifest under home, creating a default one when the
// project has none. A manifest last written by an older editor receives the
// editor migrations released since, each bumping the project's major
// version, and is saved back. A manifest written by a newer editor is
// rejected with a *VersionTooNewError.
func (s *Service) OpenProject(home string) (VersionFile, error) {
	vf, ok, err := s.ReadVersionFile(home)
	if err != nil {
		return VersionFile{}, err
	}
	if !ok {
		vf = DefaultVersionFile(s.editorVersion)
		s.logger.Info().Str("home", home).Msg("creating default version file")
		if err := s.SaveProject(home, vf); err != nil {
			return VersionFile{}, err
		}
		return vf, nil
	}

	running, err := version.Parse(s.editorVersion)
	if err != nil {
		return VersionFile{}, fmt.Errorf("migration: open project: editor version: %w", err)
	}
	var since *version.Version
	if vf.EditorVersion != "" {
		v, err := version.Parse(vf.EditorVersion)
		if err != nil {
			return VersionFile{}, fmt.Errorf("migration: open project: %w", err)
		}
		if v.Compare(running) > 0 {
			return VersionFile{}, &VersionTooNewError{Subject: "editor", Actual: vf.EditorVersion, Supported: s.editorVersion}
		}
		since = &v
	}

	missing := s.editorMigrationsSince(since, running)
	if len(missing) == 0 && vf.EditorVersion == s.editorVersion {
		return vf, nil
	}

	updated := vf.Clone()
	for _, m := range missing {
		updated.ProjectVersion = updated.ProjectVersion.NextMajor()
		updated.MapMigrations = append(updated.MapMigrations, Descriptor{
			UpdateTo: updated.ProjectVersion,
			Name:     m.EditorVersion.String(),
			Type:     TypeEditor,
		})
		s.logger.Info().
			Str("editor_version", m.EditorVersion.String()).
			Str("update_to", updated.ProjectVersion.String()).
			Msg("appending editor migration")
	}
	updated.EditorVersion = s.editorVersion
	if err := s.SaveProject(home, updated); err != nil {
		return VersionFile{}, err
	}
	return updated, nil
}

// editorMigrationsSince returns the editor migrations newer than since (all
// of them when since is nil) and not newer than running, oldest first.
func (s *Service) editorMigrationsSince(since *version.Version, running version.Version) []EditorMigration {
	var out []EditorMigration
	for _, m := range s.editorMigrations {
		if since != nil && m.EditorVersion.Compare(*since) <= 0 {
			continue
		}
		if m.EditorVersion.Compare(running) > 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// UpdateVersionFileWithExistingCodeMigration returns a copy of vf with its
// project major version bumped and the named existing-code migration
// appended at the new version. vf is left untouched.
func (s *Service) UpdateVersionFileWithExistingCodeMigration(vf VersionFile, name string, opts Options) VersionFile {
	out := vf.Clone()
	out.ProjectVersion = vf.ProjectVersion.NextMajor()
	out.MapMigrations = append(out.MapMigrations, Descriptor{
		UpdateTo: out.ProjectVersion,
		Name:     name,
		Type:     TypeExistingCode,
		Options:  opts.Clone(),
	})
	return out
}

// Plan returns the migrations MigrateMap would run for m, in order.
func (s *Service) Plan(m *mapfile.Map, vf VersionFile) ([]Descriptor, error) {
	current, err := s.checkMapVersion(m, vf)
	if err != nil {
		return nil, err
	}
	return ToRun(current, vf.ProjectVersion, vf.MapMigrations), nil
}

func (s *Service) checkMapVersion(m *mapfile.Map, vf VersionFile) (version.Version, error) {
	current, err := version.Parse(m.Version)
	if err != nil {
		return version.Version{}, fmt.Errorf("migration: map %q: %w", m.Key, err)
	}
	if current.Compare(vf.ProjectVersion) > 0 {
		return version.Version{}, &VersionTooNewError{Subject: "map", Actual: m.Version, Supported: vf.ProjectVersion.String()}
	}
	return current, nil
}

// MigrateMap brings m up to the project version of vf by running every
// pending migration in order. Code migration paths are resolved against
// migrationRoot. m is never modified; the first failing migration aborts the
// run and nothing is returned.
func (s *Service) MigrateMap(m *mapfile.Map, vf VersionFile, migrationRoot string) (*mapfile.Map, error) {
	pending, err := s.Plan(m, vf)
	if err != nil {
		return nil, err
	}
	out := m.Clone()
	for _, d := range pending {
		fn, err := s.resolve(d, migrationRoot)
		if err != nil {
			s.notify(d, err)
			return nil, err
		}
		next, err := runSafely(d, fn, out)
		s.notify(d, err)
		if err != nil {
			s.logger.Error().Err(err).Str("map", m.Key).Str("migration", d.Label()).Msg("migration failed")
			return nil, err
		}
		s.logger.Debug().Str("map", m.Key).Str("migration", d.Label()).
			Str("update_to", d.UpdateTo.String()).Msg("migration applied")
		out = next
	}
	out.Version = vf.ProjectVersion.String()
	return out, nil
}

func (s *Service) notify(d Descriptor, err error) {
	if s.observer != nil {
		s.observer(d, err)
	}
}

// runSafely runs fn on a copy of m, converting failures and panics into an
// *ExecutionError.
func runSafely(d Descriptor, fn MapFunc, m *mapfile.Map) (out *mapfile.Map, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &ExecutionError{Name: d.Label(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	out, err = fn(m.Clone(), d.Options.Clone())
	if err != nil {
		return nil, &ExecutionError{Name: d.Label(), Err: err}
	}
	if out == nil {
		return nil, &ExecutionError{Name: d.Label(), Err: errors.New("migration returned no map")}
	}
	return out, nil
}

// MigrateEntitySystem applies the entity-system side of the named
// existing-code migration to a copy of sys.
func (s *Service) MigrateEntitySystem(sys entity.System, name string, opts Options) (entity.System, error) {
	mig, ok := s.registry.Lookup(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	out, err := mig.EntitySystem(sys.Clone(), opts.Clone())
	if err != nil {
		return nil, &ExecutionError{Name: name, Err: err}
	}
	return out, nil
}
