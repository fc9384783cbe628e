package swap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/minio/selfupdate"
)

// Strategy moves a fully staged binary onto the target path.
type Strategy interface {
	Name() string
	Commit(staged, target string) error
}

// DetectStrategy picks the strategy for the running platform. Windows
// cannot rename over a running executable, everything else can.
func DetectStrategy() Strategy {
	if runtime.GOOS == "windows" {
		return StagedReplace{}
	}
	return InPlaceReplace{}
}

// OldPath is where StagedReplace keeps the previous binary until the new
// one has started.
func OldPath(target string) string {
	return target + ".old"
}

// InPlaceReplace renames the staged file over the target in one step.
type InPlaceReplace struct{}

func (InPlaceReplace) Name() string { return "in-place" }

func (InPlaceReplace) Commit(staged, target string) error {
	return os.Rename(staged, target)
}

// StagedReplace moves the target aside to OldPath, then moves the staged
// file in. The old binary is restored if the second step fails.
type StagedReplace struct{}

func (StagedReplace) Name() string { return "staged" }

func (StagedReplace) Commit(staged, target string) error {
	if staged != StagedPath(target) {
		if err := os.Rename(staged, StagedPath(target)); err != nil {
			return err
		}
	}

	// Nothing to move aside on a first install.
	if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
		return os.Rename(StagedPath(target), target)
	}

	err := selfupdate.CommitBinary(selfupdate.Options{
		TargetPath:  target,
		OldSavePath: OldPath(target),
	})
	if err == nil {
		return nil
	}
	if rerr := selfupdate.RollbackError(err); rerr != nil {
		return errors.Join(err, fmt.Errorf("restore %s: %w", OldPath(target), rerr))
	}
	return err
}
