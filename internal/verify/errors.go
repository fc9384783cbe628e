package verify

import "errors"

var (
	// ErrDigestMismatch is returned when content does not hash to the expected digest.
	ErrDigestMismatch = errors.New("digest mismatch")
	// ErrDigestUnavailable is returned when the release publishes no digest for the asset.
	ErrDigestUnavailable = errors.New("digest unavailable")
	// ErrInvalidDigest is returned for malformed hex digests.
	ErrInvalidDigest = errors.New("invalid digest")
	// ErrSignatureUnavailable is returned when trusted keys are configured
	// but the checksum manifest is not signed.
	ErrSignatureUnavailable = errors.New("checksum signature unavailable")
	// ErrSignatureInvalid is returned when the manifest signature does not verify.
	ErrSignatureInvalid = errors.New("checksum signature invalid")
)
