package migration

import (
	"errors"
	"fmt"
)

// Sentinel errors for migration lookup, loading and execution. None of them
// is retried; every one aborts the operation that produced it.
var (
	// ErrNotFound indicates a named migration is not registered, or a
	// descriptor's type matches no dispatch case.
	ErrNotFound = errors.New("migration not found")
	// ErrVersionTooNew indicates a map or project requires a newer version
	// than the one available.
	ErrVersionTooNew = errors.New("version too new")
	// ErrLoad indicates a code migration could not be loaded or has the
	// wrong shape.
	ErrLoad = errors.New("migration failed to load")
	// ErrExecution indicates a migration failed while transforming a map.
	ErrExecution = errors.New("migration failed")
	// ErrDuplicateMigration indicates an existing-code migration name was
	// registered twice.
	ErrDuplicateMigration = errors.New("duplicate existing-code migration")
)

// NotFoundError names the migration that could not be resolved.
type NotFoundError struct {
	Name string
	Type string
}

// Error returns a message naming the migration and, when known, its type.
func (e *NotFoundError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("migration %q (type %q) is not recognized by the editor", e.Name, e.Type)
	}
	return fmt.Sprintf("existing code migration %q has not been registered", e.Name)
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// VersionTooNewError reports that Subject ("map" or "editor") at version
// Actual cannot be handled by something that supports at most Supported.
type VersionTooNewError struct {
	Subject   string
	Actual    string
	Supported string
}

// Error returns a message telling the user what needs updating.
func (e *VersionTooNewError) Error() string {
	if e.Subject == "editor" {
		return fmt.Sprintf("update the editor: the project expects editor version %s, the current version is %s", e.Actual, e.Supported)
	}
	return fmt.Sprintf("%s version %s is greater than the project's expected version %s", e.Subject, e.Actual, e.Supported)
}

// Unwrap returns ErrVersionTooNew.
func (e *VersionTooNewError) Unwrap() error { return ErrVersionTooNew }

// LoadError reports a code migration that could not be loaded from Path.
type LoadError struct {
	Name string
	Path string
	Err  error
}

// Error includes the migration, the resolved path and the underlying cause.
func (e *LoadError) Error() string {
	return fmt.Sprintf("unable to load migration %q from %q: %v", e.Name, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// Is reports ErrLoad as a match in addition to the wrapped cause.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// ExecutionError wraps the failure of one migration while it ran. Set a
// breakpoint in Service.MigrateMap to inspect the offending input.
type ExecutionError struct {
	Name string
	Err  error
}

// Error names the failing migration and the underlying cause.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("migration %q threw an exception: %v", e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error { return e.Err }

// Is reports ErrExecution as a match in addition to the wrapped cause.
func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }
