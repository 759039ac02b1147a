// Package version parses and compares the two-part "MAJOR.MINOR" versions
// used by map files, project manifests and the editor itself.
package version

import (
	"errors"
	"strconv"
	"strings"
)

// Editor is the version of the running editor. Project manifests that
// require a newer editor cannot be opened.
const Editor = "0.4"

// ErrFormat is the sentinel wrapped by every FormatError.
var ErrFormat = errors.New("malformed version")

// FormatError reports a version string that does not have the form
// "MAJOR.MINOR" with digit-only components.
type FormatError struct {
	Input  string
	Reason string
}

// Error returns the offending input together with the reason it was rejected.
func (e *FormatError) Error() string {
	return "version " + strconv.Quote(e.Input) + ": " + e.Reason
}

// Unwrap returns ErrFormat so callers can test with errors.Is.
func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// Version is a parsed "MAJOR.MINOR" version.
type Version struct {
	Major int
	Minor int
}

// Parse converts s into a Version. The input must contain exactly one '.'
// separating two non-empty runs of ASCII digits.
func Parse(s string) (Version, error) {
	if s == "" {
		return Version{}, &FormatError{Input: s, Reason: "version cannot be blank"}
	}
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Version{}, &FormatError{Input: s, Reason: "format must be {MAJOR_NUMBER}.{MINOR_NUMBER}"}
	}
	major, err := component(s, parts[0])
	if err != nil {
		return Version{}, err
	}
	minor, err := component(s, parts[1])
	if err != nil {
		return Version{}, err
	}
	return Version{Major: major, Minor: minor}, nil
}

// MustParse is like Parse but panics on malformed input. It is meant for
// version literals in code and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func component(input, part string) (int, error) {
	if part == "" {
		return 0, &FormatError{Input: input, Reason: "each version portion must be non-empty"}
	}
	for i := 0; i < len(part); i++ {
		if part[i] < '0' || part[i] > '9' {
			return 0, &FormatError{Input: input, Reason: "each version portion must be an integer with only digit characters"}
		}
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, &FormatError{Input: input, Reason: "version portion out of range"}
	}
	return n, nil
}

// String renders the version as "MAJOR.MINOR".
func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

// Compare orders v against o by major then minor. It returns -1 when v sorts
// before o, 0 when they are equal and 1 otherwise.
func (v Version) Compare(o Version) int {
	return Compare(v, o)
}

// NextMajor returns the version with the major component incremented. The
// minor component is carried over unchanged.
func (v Version) NextMajor() Version {
	return Version{Major: v.Major + 1, Minor: v.Minor}
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Malformed input yields
// a *FormatError.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Compare is a comparator over versions suitable for slices.SortStableFunc.
func Compare(a, b Version) int {
	switch {
	case a.Major < b.Major:
		return -1
	case a.Major > b.Major:
		return 1
	case a.Minor < b.Minor:
		return -1
	case a.Minor > b.Minor:
		return 1
	default:
		return 0
	}
}

// CompareStrings parses both inputs and compares them with Compare.
func CompareStrings(a, b string) (int, error) {
	left, err := Parse(a)
	if err != nil {
		return 0, err
	}
	right, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return Compare(left, right), nil
}
