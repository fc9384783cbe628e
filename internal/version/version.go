// Package version parses release tags and version constraints.
//
// Tags are matched against a prefix anchored at position 0 and the remainder
// must be a complete semantic version (major.minor.patch[-pre][+build]).
// Partial or lenient parses are rejected, so a prefix such as "v" never turns
// an unrelated tag like "very-cool-package" into a release.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a strict semantic version. The zero value is not a valid
// version; use IsZero to detect it.
type Version struct {
	sv *semver.Version
}

// Parse parses a version string such as the one baked into the running
// binary at build time or an exact pin. A single leading "v" is tolerated;
// release tags go through ParseTag instead.
func Parse(s string) (Version, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "v")

	sv, err := semver.StrictNewVersion(raw)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %w", ErrInvalidVersion, s, err)
	}

	return Version{sv: sv}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return v
}

// ParseTag returns the version encoded in tag when tag starts with prefix
// byte-for-byte and the rest is a strict semantic version. Anything else is
// not a release tag and reports false.
func ParseTag(tag, prefix string) (Version, bool) {
	if !strings.HasPrefix(tag, prefix) {
		return Version{}, false
	}

	sv, err := semver.StrictNewVersion(tag[len(prefix):])
	if err != nil {
		return Version{}, false
	}

	return Version{sv: sv}, true
}

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool {
	return v.sv == nil
}

// String returns the canonical form without any prefix.
func (v Version) String() string {
	if v.sv == nil {
		return "0.0.0"
	}

	return v.sv.String()
}

// Prerelease returns the pre-release identifiers, if any.
func (v Version) Prerelease() string {
	if v.sv == nil {
		return ""
	}

	return v.sv.Prerelease()
}

// Metadata returns the build metadata, if any.
func (v Version) Metadata() string {
	if v.sv == nil {
		return ""
	}

	return v.sv.Metadata()
}

// Compare orders a and b by semantic version precedence: -1, 0 or 1.
// Pre-releases sort before their release and build metadata is ignored.
// The zero Version sorts before everything else.
func Compare(a, b Version) int {
	switch {
	case a.sv == nil && b.sv == nil:
		return 0
	case a.sv == nil:
		return -1
	case b.sv == nil:
		return 1
	}

	return a.sv.Compare(b.sv)
}

// Compare is the method form of Compare.
func (v Version) Compare(o Version) int {
	return Compare(v, o)
}

// Equal reports whether v and o have equal precedence.
func (v Version) Equal(o Version) bool {
	return Compare(v, o) == 0
}

// LessThan reports whether v sorts before o.
func (v Version) LessThan(o Version) bool {
	return Compare(v, o) < 0
}

// GreaterThan reports whether v sorts after o.
func (v Version) GreaterThan(o Version) bool {
	return Compare(v, o) > 0
}
