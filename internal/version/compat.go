package version

// Compatibility classifies how an actual version relates to the version a
// consumer expects.
type Compatibility int

// Compatibility outcomes. MajorIncompatible wins over MinorIncompatible.
const (
	Compatible Compatibility = iota
	MinorIncompatible
	MajorIncompatible
	NoVersionGiven
)

// String returns a short lowercase name for the outcome.
func (c Compatibility) String() string {
	switch c {
	case Compatible:
		return "compatible"
	case MinorIncompatible:
		return "minor-incompatible"
	case MajorIncompatible:
		return "major-incompatible"
	case NoVersionGiven:
		return "no-version"
	}
	return "unknown"
}

// Check reports whether actual can be consumed by something that expects
// expected. Majors must match and the actual minor may not exceed the
// expected minor. Both inputs must parse.
func Check(actual, expected string) (Compatibility, error) {
	a, err := Parse(actual)
	if err != nil {
		return 0, err
	}
	e, err := Parse(expected)
	if err != nil {
		return 0, err
	}
	if a.Major != e.Major {
		return MajorIncompatible, nil
	}
	if a.Minor > e.Minor {
		return MinorIncompatible, nil
	}
	return Compatible, nil
}

// CheckOptional is Check for a version that may be absent. A nil actual
// yields NoVersionGiven without inspecting expected.
func CheckOptional(actual *string, expected string) (Compatibility, error) {
	if actual == nil {
		return NoVersionGiven, nil
	}
	return Check(*actual, expected)
}

// Reason returns a one-line explanation of c suitable for an error dialog.
func Reason(c Compatibility, expected string) string {
	switch c {
	case Compatible:
		return "Versions are compatible"
	case MajorIncompatible:
		return "Incompatible map version! Major version mismatch"
	case MinorIncompatible:
		return "Incompatible map version! Map version is greater than the project's version"
	case NoVersionGiven:
		return "Incompatible map version! Editor expects " + expected + " but map has no version"
	}
	return ""
}
