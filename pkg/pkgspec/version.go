package pkgspec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/repoforge/repoforge/pkg/errors"
)

// Version is a dotted package version of the form major.minor.patch with an
// optional fourth build component (e.g. "1.2.0" or "1.2.0.3").
//
// Versions are totally ordered: components compare numerically left to right,
// and a version without a build component sorts below the same version with
// any build component ("1.2.3" < "1.2.3.0").
//
// The zero value is "0.0.0". Versions are immutable value types.
type Version struct {
	Major, Minor, Patch int

	build    int
	hasBuild bool
}

// NewVersion constructs a three-component version.
func NewVersion(major, minor, patch int) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// WithBuild returns a copy of v carrying the given build component.
func (v Version) WithBuild(build int) Version {
	v.build = build
	v.hasBuild = true
	return v
}

// Build returns the build component and whether one is present.
func (v Version) Build() (int, bool) {
	return v.build, v.hasBuild
}

// ParseVersion parses a dotted version string.
// Returns an INVALID_VERSION error for anything that is not three or four
// dot-separated non-negative integers.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 3 || len(parts) > 4 {
		return Version{}, errors.New(errors.ErrCodeInvalidVersion, "version %q must have 3 or 4 components", s)
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || (len(p) > 1 && p[0] == '0') {
			return Version{}, errors.New(errors.ErrCodeInvalidVersion, "version %q has invalid component %q", s, p)
		}
		nums[i] = n
	}

	v := Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}
	if len(nums) == 4 {
		v = v.WithBuild(nums[3])
	}
	return v, nil
}

// MustParseVersion parses a version and panics on error.
// Intended for constants and tests.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0, or +1 when v is ordered before, equal to, or after o.
func (v Version) Compare(o Version) int {
	if c := cmpInt(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmpInt(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := cmpInt(v.Patch, o.Patch); c != 0 {
		return c
	}
	// Absence of a build component sorts before any build component.
	switch {
	case v.hasBuild && o.hasBuild:
		return cmpInt(v.build, o.build)
	case v.hasBuild:
		return 1
	case o.hasBuild:
		return -1
	default:
		return 0
	}
}

// Less reports whether v is ordered strictly before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// String returns the dotted version string, round-tripping the optional
// build component.
func (v Version) String() string {
	if v.hasBuild {
		return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Patch, v.build)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MarshalText implements encoding.TextMarshaler for TOML/JSON serialization.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML/JSON parsing.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
