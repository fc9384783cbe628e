package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Kind identifies the shape of a Constraint.
type Kind int

const (
	// KindLatest selects the highest available version.
	KindLatest Kind = iota
	// KindExact pins a single version.
	KindExact
	// KindRequirement accepts any version matching a range expression.
	KindRequirement
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindRequirement:
		return "requirement"
	default:
		return "latest"
	}
}

// Constraint is the configured target: latest, an exact version, or a
// requirement expression such as "^1.2" or ">=1.0.0, <2.0.0".
// Constraints are immutable once parsed.
type Constraint struct {
	req   *semver.Constraints
	exact Version
	raw   string
	kind  Kind
}

// Latest returns the constraint that matches the newest candidate.
func Latest() Constraint {
	return Constraint{kind: KindLatest, raw: "latest"}
}

// Exact returns a constraint pinned to v.
func Exact(v Version) Constraint {
	return Constraint{kind: KindExact, exact: v, raw: v.String()}
}

// Requirement parses a range expression.
func Requirement(expr string) (Constraint, error) {
	expr = strings.TrimSpace(expr)

	req, err := semver.NewConstraint(expr)
	if err != nil {
		return Constraint{}, fmt.Errorf("%w: %q: %w", ErrInvalidConstraint, expr, err)
	}

	return Constraint{kind: KindRequirement, req: req, raw: expr}, nil
}

// ParseConstraint interprets a configured version string.
//
//   - "" or "latest" (any case) yields Latest
//   - a complete semantic version, with or without a leading "v", yields Exact
//   - anything else is parsed as a requirement expression
func ParseConstraint(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "latest") {
		return Latest(), nil
	}

	if v, err := Parse(s); err == nil {
		return Exact(v), nil
	}

	return Requirement(s)
}

// Kind reports the constraint shape.
func (c Constraint) Kind() Kind {
	return c.kind
}

// Pinned returns the exact version for KindExact constraints.
func (c Constraint) Pinned() (Version, bool) {
	return c.exact, c.kind == KindExact
}

func (c Constraint) String() string {
	if c.raw == "" {
		return "latest"
	}

	return c.raw
}

// Satisfies reports whether v is acceptable under c. Latest accepts every
// version; picking the maximum is left to the caller.
func Satisfies(v Version, c Constraint) bool {
	if v.IsZero() {
		return false
	}

	switch c.kind {
	case KindExact:
		return Compare(v, c.exact) == 0
	case KindRequirement:
		return c.req.Check(v.sv)
	default:
		return true
	}
}
