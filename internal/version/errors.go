package version

import "errors"

var (
	// ErrInvalidVersion is returned when a string is not a complete semantic version.
	ErrInvalidVersion = errors.New("version: invalid semantic version")

	// ErrInvalidConstraint is returned when a version constraint cannot be parsed.
	ErrInvalidConstraint = errors.New("version: invalid constraint")
)
