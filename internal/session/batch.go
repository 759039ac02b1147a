package session

import (
	"context"
	"errors"
	"fmt"
)

// Maps lists the keys of every map in the open project, sorted.
func (s *Session) Maps() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return nil, ErrNoProject
	}
	keys, err := s.store.Glob(MapsDir(s.home), MapExt)
	if err != nil {
		return nil, fmt.Errorf("session: list maps: %w", err)
	}
	return keys, nil
}

// PlanMap reports what opening the map with the given key would do, without
// running any migration or changing the session.
func (s *Session) PlanMap(key string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return Result{}, ErrNoProject
	}
	raw, created, err := s.readMap(key, s.vf)
	if err != nil {
		return Result{}, err
	}
	res := Result{Key: key, From: raw.Version, To: s.vf.ProjectVersion.String(), Created: created}
	pending, err := s.svc.Plan(raw, s.vf)
	if err != nil {
		return res, fmt.Errorf("session: plan map %q: %w", key, err)
	}
	for _, d := range pending {
		res.Applied = append(res.Applied, d.Label())
	}
	return res, nil
}

// MigrateMaps opens and saves each of the given maps in turn, leaving the
// last successfully migrated map open. progress, when not nil, is called
// after each map. A failing map does not stop the others; the failures are
// returned joined.
func (s *Session) MigrateMaps(ctx context.Context, keys []string, progress func(Result, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		res, err := s.openMap(ctx, key, s.vf)
		if err == nil {
			err = s.saveMap()
		}
		if progress != nil {
			progress(res, err)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MigrateAllMaps migrates and saves every map of the open project.
func (s *Session) MigrateAllMaps(ctx context.Context, progress func(Result, error)) error {
	keys, err := s.Maps()
	if err != nil {
		return err
	}
	return s.MigrateMaps(ctx, keys, progress)
}
