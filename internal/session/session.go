// Package session runs a headless editor session: it opens a project,
// migrates and loads maps into an undoable entity system, and writes them
// back. It enforces the load ordering the editor relies on: a map is
// migrated completely before it is installed, and undo history is cleared
// only after the new entity system is in place.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/mapforge/internal/entity"
	"github.com/papapumpkin/mapforge/internal/history"
	"github.com/papapumpkin/mapforge/internal/ledger"
	"github.com/papapumpkin/mapforge/internal/mapfile"
	"github.com/papapumpkin/mapforge/internal/migration"
	"github.com/papapumpkin/mapforge/internal/telemetry"
)

// MapExt is the file extension of map files.
const MapExt = ".map"

// Store is the project storage a session reads maps and manifests from.
type Store interface {
	migration.JSONStore
	// Glob lists the files under root with extension ext, as slash-separated
	// paths relative to root without the extension.
	Glob(root, ext string) ([]string, error)
}

// Recorder persists the outcome of each map load.
type Recorder interface {
	Record(ctx context.Context, r ledger.Run) (ledger.Run, error)
}

// MapsDir returns the directory holding the maps of the project at home.
func MapsDir(home string) string {
	return filepath.Join(home, "maps")
}

// MapPath returns the file of the map with the given key.
func MapPath(home, key string) string {
	return filepath.Join(MapsDir(home), filepath.FromSlash(key)+MapExt)
}

// Result describes one map load.
type Result struct {
	Key     string
	From    string
	To      string
	Applied []string // labels of the migrations that ran, in order
	Created bool     // the map file did not exist
}

// UpToDate reports whether no migration had to run.
func (r Result) UpToDate() bool { return len(r.Applied) == 0 }

// Session is a headless editor session over one project. It is safe for
// concurrent use; operations are serialized.
type Session struct {
	svc      *migration.Service
	store    Store
	recorder Recorder
	events   *telemetry.Emitter
	logger   zerolog.Logger
	indent   bool

	mu      sync.Mutex
	home    string
	vf      migration.VersionFile
	opened  bool
	current *mapfile.Map
	history *history.Store[entity.System]
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder records every map load with r.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithEmitter sends telemetry events to e.
func WithEmitter(e *telemetry.Emitter) Option {
	return func(s *Session) { s.events = e }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithIndent controls whether saved maps are indented.
func WithIndent(indent bool) Option {
	return func(s *Session) { s.indent = indent }
}

// New returns a session using svc to migrate and store for project files.
func New(svc *migration.Service, store Store, opts ...Option) *Session {
	s := &Session{
		svc:     svc,
		store:   store,
		logger:  zerolog.Nop(),
		indent:  true,
		history: history.New(entity.System{}, reduce, mergeAttributeEdits),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Home returns the home of the open project, or "" when none is open.
func (s *Session) Home() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.home
}

// VersionFile returns the manifest of the open project.
func (s *Session) VersionFile() (migration.VersionFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return migration.VersionFile{}, ErrNoProject
	}
	return s.vf.Clone(), nil
}

// OpenProject opens the project at home, creating or extending its manifest
// as needed. Any map open from a previous project is closed.
func (s *Session) OpenProject(ctx context.Context, home string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vf, err := s.svc.OpenProject(home)
	if err != nil {
		return fmt.Errorf("session: open project %s: %w", home, err)
	}
	s.home = home
	s.vf = vf
	s.opened = true
	s.current = nil
	s.install(entity.System{})

	s.emit(telemetry.Event{Kind: telemetry.KindProjectOpened, Project: home, Data: map[string]any{
		"projectVersion": vf.ProjectVersion.String(),
		"editorVersion":  vf.EditorVersion,
		"migrations":     len(vf.MapMigrations),
	}})
	s.logger.Info().Str("home", home).Str("project_version", vf.ProjectVersion.String()).Msg("project opened")
	return nil
}

// OpenMap reads, migrates and installs the map with the given key. A map
// file that does not exist yet opens as an empty map. On failure the
// previously open map and its history are left untouched.
func (s *Session) OpenMap(ctx context.Context, key string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openMap(ctx, key, s.vf)
}

// openMap migrates the map with the given key under vf and installs it. vf
// becomes the session's manifest only once the map is installed.
func (s *Session) openMap(ctx context.Context, key string, vf migration.VersionFile) (Result, error) {
	if !s.opened {
		return Result{}, ErrNoProject
	}
	raw, created, err := s.readMap(key, vf)
	if err != nil {
		return Result{}, err
	}
	res := Result{Key: key, From: raw.Version, To: vf.ProjectVersion.String(), Created: created}

	pending, err := s.svc.Plan(raw, vf)
	if err != nil {
		s.recordFailure(ctx, res, err)
		return res, fmt.Errorf("session: open map %q: %w", key, err)
	}
	for _, d := range pending {
		res.Applied = append(res.Applied, d.Label())
	}

	migrated, err := s.svc.MigrateMap(raw, vf, migration.MigrationRoot(s.home))
	if err != nil {
		s.recordFailure(ctx, res, err)
		return res, fmt.Errorf("session: open map %q: %w", key, err)
	}

	s.vf = vf
	s.current = migrated
	s.install(entity.Build(migrated))

	for _, d := range pending {
		s.emit(telemetry.Event{Kind: telemetry.KindMigrationApplied, Project: s.home, MapKey: key, Data: map[string]any{
			"migration": d.Label(),
			"type":      d.Type,
			"updateTo":  d.UpdateTo.String(),
		}})
	}
	s.emit(telemetry.Event{Kind: telemetry.KindMapMigrated, Project: s.home, MapKey: key, Data: map[string]any{
		"from":    res.From,
		"to":      res.To,
		"applied": len(res.Applied),
	}})
	s.record(ctx, res, nil)
	s.logger.Debug().Str("map", key).Str("from", res.From).Str("to", res.To).
		Int("applied", len(res.Applied)).Msg("map opened")
	return res, nil
}

// readMap returns the raw map stored under key, or a new empty map at the
// project version of vf when the file does not exist.
func (s *Session) readMap(key string, vf migration.VersionFile) (*mapfile.Map, bool, error) {
	path := MapPath(s.home, key)
	data, ok, err := s.store.ReadJSON(path)
	if err != nil {
		return nil, false, fmt.Errorf("session: read map %q: %w", key, err)
	}
	if !ok {
		return mapfile.New(key, vf.ProjectVersion.String()), true, nil
	}
	m, err := mapfile.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("session: read map %q: %w", key, err)
	}
	if m.Key == "" {
		m.Key = key
	}
	return m, false, nil
}

// install replaces the entity system and then clears the undo history, so
// no undo step can restore a system from before the replacement.
func (s *Session) install(sys entity.System) {
	s.history.Dispatch(history.Action{Name: ActionReplaceSystem, Payload: sys})
	s.history.Dispatch(history.Action{Name: history.ActionClearHistory})
	if s.opened {
		s.emit(telemetry.Event{Kind: telemetry.KindHistoryCleared, Project: s.home})
	}
}

// SaveMap writes the open map at the project version, together with the
// project manifest.
func (s *Session) SaveMap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveMap()
}

func (s *Session) saveMap() error {
	if !s.opened {
		return ErrNoProject
	}
	if s.current == nil {
		return ErrNoMap
	}
	m := entity.Flatten(s.history.State(), s.current)
	m.Version = s.vf.ProjectVersion.String()
	data, err := mapfile.Encode(m, s.indent)
	if err != nil {
		return fmt.Errorf("session: save map: %w", err)
	}
	if err := s.svc.SaveProject(s.home, s.vf); err != nil {
		return fmt.Errorf("session: save map %q: %w", m.Key, err)
	}
	if err := s.store.WriteJSON(MapPath(s.home, s.current.Key), data); err != nil {
		return fmt.Errorf("session: save map %q: %w", m.Key, err)
	}
	s.logger.Debug().Str("map", m.Key).Msg("map saved")
	return nil
}

// MapKey returns the key of the open map, or "" when none is open.
func (s *Session) MapKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Key
}

func (s *Session) emit(evt telemetry.Event) {
	if err := s.events.Emit(evt); err != nil {
		s.logger.Warn().Err(err).Str("kind", evt.Kind).Msg("telemetry emit failed")
	}
}

func (s *Session) recordFailure(ctx context.Context, res Result, err error) {
	s.emit(telemetry.Event{Kind: telemetry.KindMigrationFailed, Project: s.home, MapKey: res.Key, Data: map[string]any{
		"error": err.Error(),
	}})
	s.record(ctx, res, err)
}

func (s *Session) record(ctx context.Context, res Result, runErr error) {
	if s.recorder == nil {
		return
	}
	run := ledger.Run{
		Project:    s.home,
		MapKey:     res.Key,
		From:       res.From,
		To:         res.To,
		Migrations: res.Applied,
		Status:     ledger.StatusApplied,
	}
	switch {
	case runErr != nil:
		run.Status = ledger.StatusFailed
		run.Error = runErr.Error()
	case res.UpToDate():
		run.Status = ledger.StatusUpToDate
	}
	if _, err := s.recorder.Record(ctx, run); err != nil {
		s.logger.Warn().Err(err).Str("map", res.Key).Msg("recording run failed")
	}
}
