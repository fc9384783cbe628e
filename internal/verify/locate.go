package verify

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/valksor/go-selfup/internal/log"
	"github.com/valksor/go-selfup/internal/source"
)

// maxManifestBytes caps how much of a checksum or signature file is read.
const maxManifestBytes = 1 << 20

// DefaultManifests are the checksum manifest names looked for when none
// are configured. Any sibling ending in "checksums.txt" also counts.
var DefaultManifests = []string{"checksums.txt", "SHA256SUMS", "SHA512SUMS"}

// Fetcher opens release assets. source.Source satisfies it.
type Fetcher interface {
	FetchAsset(ctx context.Context, asset source.AssetRef) (io.ReadCloser, error)
}

// Locator finds the published digest of an asset among its release siblings.
type Locator struct {
	Fetcher   Fetcher
	Manifests []string
	// TrustedKeys, when non-empty, makes a signed manifest mandatory.
	TrustedKeys []ssh.PublicKey
}

// Locate returns the expected digest for asset. Without trusted keys a
// per-asset sidecar (<asset>.sha256, <asset>.sha512) is preferred over a
// manifest. With trusted keys only a manifest with a valid <manifest>.sig
// is accepted.
func (l *Locator) Locate(ctx context.Context, asset source.AssetRef, siblings []source.AssetRef) (Digest, error) {
	if len(l.TrustedKeys) == 0 {
		for _, ext := range []string{".sha256", ".sha512"} {
			sidecar, ok := find(siblings, asset.Name+ext)
			if !ok {
				continue
			}
			content, err := l.read(ctx, sidecar)
			if err != nil {
				return Digest{}, err
			}
			d, err := parseSidecar(content)
			if err != nil {
				return Digest{}, fmt.Errorf("%s: %w", sidecar.Name, err)
			}
			log.Debug("digest from sidecar", "asset", asset.Name, "sidecar", sidecar.Name)
			return d, nil
		}
	}

	manifest, ok := l.findManifest(siblings)
	if !ok {
		return Digest{}, fmt.Errorf("%w: %s", ErrDigestUnavailable, asset.Name)
	}

	content, err := l.read(ctx, manifest)
	if err != nil {
		return Digest{}, err
	}

	if len(l.TrustedKeys) > 0 {
		sigAsset, ok := find(siblings, manifest.Name+".sig")
		if !ok {
			return Digest{}, fmt.Errorf("%w: %s.sig", ErrSignatureUnavailable, manifest.Name)
		}
		sig, err := l.read(ctx, sigAsset)
		if err != nil {
			return Digest{}, err
		}
		if err := VerifySignature([]byte(content), []byte(sig), l.TrustedKeys); err != nil {
			return Digest{}, fmt.Errorf("%s: %w", manifest.Name, err)
		}
		log.Debug("checksum manifest signature verified", "manifest", manifest.Name)
	}

	d, ok := Lookup(ParseChecksums(content), asset.Name)
	if !ok {
		return Digest{}, fmt.Errorf("%w: %s not listed in %s", ErrDigestUnavailable, asset.Name, manifest.Name)
	}
	log.Debug("digest from manifest", "asset", asset.Name, "manifest", manifest.Name)
	return d, nil
}

func (l *Locator) findManifest(siblings []source.AssetRef) (source.AssetRef, bool) {
	names := l.Manifests
	if len(names) == 0 {
		names = DefaultManifests
	}
	for _, name := range names {
		if a, ok := find(siblings, name); ok {
			return a, true
		}
	}
	for _, a := range siblings {
		if strings.HasSuffix(strings.ToLower(a.Name), "checksums.txt") {
			return a, true
		}
	}
	return source.AssetRef{}, false
}

func (l *Locator) read(ctx context.Context, asset source.AssetRef) (string, error) {
	rc, err := l.Fetcher.FetchAsset(ctx, asset)
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxManifestBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", source.ErrAssetUnavailable, asset.Name, err)
	}
	return string(data), nil
}

func find(assets []source.AssetRef, name string) (source.AssetRef, bool) {
	for _, a := range assets {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return source.AssetRef{}, false
}
