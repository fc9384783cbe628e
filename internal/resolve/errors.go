package resolve

import "errors"

var (
	// ErrNoMatchingRelease is returned when no candidate satisfies the constraint.
	ErrNoMatchingRelease = errors.New("no release satisfies the version constraint")
	// ErrNoMatchingAsset is returned when a satisfying release exists but
	// none of them publishes an asset for the platform.
	ErrNoMatchingAsset = errors.New("no release asset matches the platform")
)
