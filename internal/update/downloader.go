package update

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/valksor/go-selfup/internal/log"
	"github.com/valksor/go-selfup/internal/source"
	"github.com/valksor/go-selfup/internal/swap"
	"github.com/valksor/go-selfup/internal/verify"
)

// Progress observes the bytes of a download as they arrive.
type Progress interface {
	io.Writer
	Done()
}

// download streams asset into a temporary file next to target, hashing it
// with every supported algorithm while writing. The caller owns the plan.
func download(ctx context.Context, src source.Source, asset source.AssetRef, target string, progress Progress) (_ *InstallPlan, err error) {
	rc, err := src.FetchAsset(ctx, asset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var body io.Reader = rc
	if progress != nil {
		body = io.TeeReader(rc, progress)
	}

	f, err := os.CreateTemp(filepath.Dir(target), swap.TempPrefix(target)+"download-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	plan := &InstallPlan{TempPath: f.Name(), TargetPath: target, AssetName: asset.Name}
	defer func() {
		if err != nil {
			_ = f.Close()
			plan.Discard()
		}
	}()

	sum512 := verify.NewHashingWriter(f, verify.SHA512)
	sum256 := verify.NewHashingWriter(sum512, verify.SHA256)

	n, err := io.Copy(sum256, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", source.ErrAssetUnavailable, asset.Name, err)
	}
	if asset.Size > 0 && n != asset.Size {
		return nil, fmt.Errorf("%w: %s: got %d bytes, want %d", source.ErrAssetUnavailable, asset.Name, n, asset.Size)
	}
	if err = f.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if progress != nil {
		progress.Done()
	}

	plan.sha256 = sum256.Digest()
	plan.sha512 = sum512.Digest()

	log.Debug("downloaded asset", "asset", asset.Name, "bytes", n, "path", plan.TempPath)
	return plan, nil
}
