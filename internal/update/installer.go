package update

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valksor/go-selfup/internal/archive"
	"github.com/valksor/go-selfup/internal/log"
	"github.com/valksor/go-selfup/internal/swap"
	"github.com/valksor/go-selfup/internal/verify"
)

// checkDigest compares the download against the published digest.
// A missing digest is accepted only when allowUnverified is set; signature
// failures are never waived.
func checkDigest(plan *InstallPlan, expected verify.Digest, locateErr error, allowUnverified bool) error {
	if locateErr != nil {
		if allowUnverified && errors.Is(locateErr, verify.ErrDigestUnavailable) {
			log.Warn("installing without a published digest", "asset", plan.AssetName, log.Err(locateErr))
			return nil
		}
		return locateErr
	}

	if err := verify.Check(plan.actual(expected.Algorithm), expected); err != nil {
		return fmt.Errorf("%s: %w", plan.AssetName, err)
	}
	plan.Digest = expected
	log.Debug("digest verified", "asset", plan.AssetName, "digest", expected.String())
	return nil
}

// install extracts the executable from the downloaded asset and swaps it
// into place.
func install(ctx context.Context, swapper *swap.Swapper, plan *InstallPlan, binary string) error {
	rc, err := archive.Extract(plan.TempPath, plan.AssetName, binary)
	if err != nil {
		return fail(PhaseExtract, err)
	}
	defer func() { _ = rc.Close() }()

	if err := swapper.Install(ctx, rc, plan.TargetPath); err != nil {
		return fail(PhaseInstall, err)
	}
	return nil
}

// Writable reports whether a binary in dir can be replaced by this process,
// by creating and removing a temporary file there.
func Writable(dir string) error {
	f, err := os.CreateTemp(dir, ".selfup-write-test-")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotWritable, dir, err)
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return nil
}

// ExecutablePath returns the running binary with symlinks resolved.
func ExecutablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return exe, nil
	}
	return resolved, nil
}
