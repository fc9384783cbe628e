// Package verify checks downloaded assets against published digests.
package verify

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
)

// Algorithm names a digest hash function.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

// New returns a fresh hash for the algorithm.
func (a Algorithm) New() hash.Hash {
	if a == SHA512 {
		return sha512.New()
	}
	return sha256.New()
}

// Digest is an expected or computed content hash.
type Digest struct {
	Algorithm Algorithm
	Sum       []byte
}

// IsZero reports whether d carries no hash.
func (d Digest) IsZero() bool {
	return len(d.Sum) == 0
}

func (d Digest) String() string {
	if d.IsZero() {
		return "none"
	}
	return string(d.Algorithm) + ":" + hex.EncodeToString(d.Sum)
}

// ParseDigest decodes a hex digest, inferring the algorithm from its
// length. An "sha256:" or "sha512:" prefix is accepted.
func ParseDigest(s string) (Digest, error) {
	s = strings.TrimSpace(s)
	if alg, rest, ok := strings.Cut(s, ":"); ok {
		s = rest
		if alg != string(SHA256) && alg != string(SHA512) {
			return Digest{}, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidDigest, alg)
		}
	}

	sum, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("%w: %w", ErrInvalidDigest, err)
	}

	switch len(sum) {
	case sha256.Size:
		return Digest{Algorithm: SHA256, Sum: sum}, nil
	case sha512.Size:
		return Digest{Algorithm: SHA512, Sum: sum}, nil
	default:
		return Digest{}, fmt.Errorf("%w: %d bytes", ErrInvalidDigest, len(sum))
	}
}

// Verify hashes all of r and compares the result with expected in
// constant time.
func Verify(r io.Reader, expected Digest) error {
	h := expected.Algorithm.New()
	if _, err := io.Copy(h, r); err != nil {
		return fmt.Errorf("hash content: %w", err)
	}
	return Check(Digest{Algorithm: expected.Algorithm, Sum: h.Sum(nil)}, expected)
}

// Check compares a computed digest with the expected one.
func Check(actual, expected Digest) error {
	if expected.IsZero() {
		return ErrDigestUnavailable
	}
	if actual.Algorithm != expected.Algorithm ||
		subtle.ConstantTimeCompare(actual.Sum, expected.Sum) != 1 {
		return fmt.Errorf("%w: expected %s, got %s", ErrDigestMismatch, expected, actual)
	}
	return nil
}

// HashingWriter hashes everything written through it.
type HashingWriter struct {
	w   io.Writer
	h   hash.Hash
	alg Algorithm
}

// NewHashingWriter returns a writer that forwards to w while hashing with alg.
func NewHashingWriter(w io.Writer, alg Algorithm) *HashingWriter {
	return &HashingWriter{w: w, h: alg.New(), alg: alg}
}

func (hw *HashingWriter) Write(p []byte) (int, error) {
	n, err := hw.w.Write(p)
	hw.h.Write(p[:n])
	return n, err
}

// Digest returns the digest of the bytes written so far.
func (hw *HashingWriter) Digest() Digest {
	return Digest{Algorithm: hw.alg, Sum: hw.h.Sum(nil)}
}
