package session

import (
	"context"
	"fmt"

	"github.com/papapumpkin/mapforge/internal/entity"
	"github.com/papapumpkin/mapforge/internal/migration"
	"github.com/papapumpkin/mapforge/internal/telemetry"
)

// RunExistingCodeMigration adds the named existing-code migration to the
// project manifest and applies it to the open entity system without
// reloading the map. The manifest is saved; the map is not.
func (s *Session) RunExistingCodeMigration(ctx context.Context, name string, opts migration.Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return ErrNoProject
	}
	updated := s.svc.UpdateVersionFileWithExistingCodeMigration(s.vf, name, opts)

	var sys entity.System
	if s.current != nil {
		sys = s.history.State()
	}
	migrated, err := s.svc.MigrateEntitySystem(sys, name, opts)
	if err != nil {
		return fmt.Errorf("session: run %s: %w", name, err)
	}
	if err := s.svc.SaveProject(s.home, updated); err != nil {
		return fmt.Errorf("session: run %s: %w", name, err)
	}

	s.vf = updated
	if s.current != nil {
		s.current.Version = updated.ProjectVersion.String()
		s.install(migrated)
	}
	s.emit(telemetry.Event{Kind: telemetry.KindManifestUpdated, Project: s.home, Data: map[string]any{
		"migration":      name,
		"projectVersion": updated.ProjectVersion.String(),
	}})
	return nil
}

// ApplyManifest brings the session up to date with vf, a newer version of
// the project manifest read from disk. Existing-code migrations added since
// the session's manifest are applied to the open entity system in memory.
// Any other kind of new migration cannot run in memory and yields
// ErrReloadRequired with the session unchanged.
func (s *Session) ApplyManifest(ctx context.Context, vf migration.VersionFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return ErrNoProject
	}
	if vf.ProjectVersion.Compare(s.vf.ProjectVersion) < 0 {
		return fmt.Errorf("session: manifest version %s is older than the open project's %s: %w",
			vf.ProjectVersion, s.vf.ProjectVersion, ErrReloadRequired)
	}
	added := migration.ToRun(s.vf.ProjectVersion, vf.ProjectVersion, vf.MapMigrations)
	for _, d := range added {
		if d.Type != migration.TypeExistingCode {
			return fmt.Errorf("session: migration %s: %w", d.Label(), ErrReloadRequired)
		}
	}

	if s.current != nil {
		sys := s.history.State()
		for _, d := range added {
			next, err := s.svc.MigrateEntitySystem(sys, d.Name, d.Options)
			if err != nil {
				return fmt.Errorf("session: apply manifest: %w", err)
			}
			sys = next
		}
		s.current.Version = vf.ProjectVersion.String()
		if len(added) > 0 {
			s.install(sys)
		}
	}
	s.vf = vf.Clone()

	if len(added) > 0 {
		s.emit(telemetry.Event{Kind: telemetry.KindManifestUpdated, Project: s.home, Data: map[string]any{
			"applied":        len(added),
			"projectVersion": vf.ProjectVersion.String(),
		}})
	}
	return nil
}

// Reload reopens the project and, when a map was open, reopens that map
// from disk. If the map fails to load, the session keeps its previous
// manifest and map.
func (s *Session) Reload(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return Result{}, ErrNoProject
	}
	key := ""
	if s.current != nil {
		key = s.current.Key
	}
	vf, err := s.svc.OpenProject(s.home)
	if err != nil {
		return Result{}, fmt.Errorf("session: reload: %w", err)
	}
	if key == "" {
		s.vf = vf
		return Result{}, nil
	}
	return s.openMap(ctx, key, vf)
}
