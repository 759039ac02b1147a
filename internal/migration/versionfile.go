package migration

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/papapumpkin/mapforge/internal/version"
)

// DefaultProjectVersion is the project version of a freshly created
// manifest.
const DefaultProjectVersion = "1.0"

// VersionFile is the project's migration manifest, stored as
// project/version.json under the project home.
type VersionFile struct {
	ProjectVersion version.Version `json:"projectVersion"`
	EditorVersion  string          `json:"editorVersion"`
	MapMigrations  []Descriptor    `json:"mapMigrations"`
}

// DefaultVersionFile returns the manifest written for a project that has
// none yet.
func DefaultVersionFile(editor string) VersionFile {
	return VersionFile{
		ProjectVersion: version.MustParse(DefaultProjectVersion),
		EditorVersion:  editor,
		MapMigrations:  []Descriptor{},
	}
}

// Clone returns a copy of vf whose descriptor list and options are not shared
// with vf.
func (vf VersionFile) Clone() VersionFile {
	out := vf
	out.MapMigrations = make([]Descriptor, len(vf.MapMigrations))
	for i, d := range vf.MapMigrations {
		d.Options = d.Options.Clone()
		out.MapMigrations[i] = d
	}
	return out
}

// MigrationRoot returns the directory code migration paths are resolved
// against.
func MigrationRoot(home string) string {
	return filepath.Join(home, "project")
}

// VersionFilePath returns the location of the manifest under home.
func VersionFilePath(home string) string {
	return filepath.Join(MigrationRoot(home), "version.json")
}

// versionPresence mirrors the version fields of a manifest as pointers so
// absent or null versions can be told apart from "0.0".
type versionPresence struct {
	ProjectVersion *version.Version `json:"projectVersion"`
	MapMigrations  []struct {
		UpdateTo *version.Version `json:"updateTo"`
	} `json:"mapMigrations"`
}

// DecodeVersionFile parses a manifest. A missing projectVersion, or a
// migration without updateTo, is a *version.FormatError.
func DecodeVersionFile(data []byte) (VersionFile, error) {
	var vf VersionFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return VersionFile{}, fmt.Errorf("migration: decode version file: %w", err)
	}
	var present versionPresence
	if err := json.Unmarshal(data, &present); err != nil {
		return VersionFile{}, fmt.Errorf("migration: decode version file: %w", err)
	}
	if present.ProjectVersion == nil {
		return VersionFile{}, fmt.Errorf("migration: decode version file: %w",
			&version.FormatError{Reason: "projectVersion is missing"})
	}
	for i, m := range present.MapMigrations {
		if m.UpdateTo == nil {
			return VersionFile{}, fmt.Errorf("migration: decode version file: mapMigrations[%d]: %w",
				i, &version.FormatError{Reason: "updateTo is missing"})
		}
	}
	if vf.MapMigrations == nil {
		vf.MapMigrations = []Descriptor{}
	}
	return vf, nil
}

// EncodeVersionFile serializes a manifest with four-space indentation.
func EncodeVersionFile(vf VersionFile) ([]byte, error) {
	if vf.MapMigrations == nil {
		vf.MapMigrations = []Descriptor{}
	}
	data, err := json.MarshalIndent(vf, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("migration: encode version file: %w", err)
	}
	return data, nil
}
