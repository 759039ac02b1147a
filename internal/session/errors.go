package session

import "errors"

// ErrNoProject is returned by operations that need an open project.
var ErrNoProject = errors.New("session: no project open")

// ErrNoMap is returned by operations that need an open map.
var ErrNoMap = errors.New("session: no map open")

// ErrReloadRequired is returned by ApplyManifest when the manifest gained
// migrations that can only run on maps read from disk. Call Reload.
var ErrReloadRequired = errors.New("session: manifest change requires reloading the map")
