// Package swap replaces an executable on disk so that the target path
// always holds either the complete old binary or the complete new one.
package swap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/selfupdate"

	"github.com/valksor/go-selfup/internal/log"
)

// State is a step of an install.
type State int

const (
	Pending State = iota
	Staged
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Staged:
		return "staged"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}

// crashAt is a test seam. When it reports true for a point the install
// stops there without any cleanup, as if the process had died.
var crashAt = func(point string) bool { return false }

// TempPrefix is the name prefix of every temporary file created next to
// target, used by Recover to find leftovers.
func TempPrefix(target string) string {
	return "." + filepath.Base(target) + ".selfup-"
}

// Swapper installs binaries with a fixed strategy.
type Swapper struct {
	strategy Strategy
	state    State
}

// New returns a swapper using strategy, or DetectStrategy() when nil.
func New(strategy Strategy) *Swapper {
	if strategy == nil {
		strategy = DetectStrategy()
	}
	return &Swapper{strategy: strategy}
}

// Strategy returns the commit strategy in use.
func (s *Swapper) Strategy() Strategy {
	return s.strategy
}

// State returns the state the last Install reached.
func (s *Swapper) State() State {
	return s.state
}

func (s *Swapper) transition(to State, target string) {
	from := s.state
	s.state = to

	attrs := []any{log.State(from.String(), to.String()), "target", target, "strategy", s.strategy.Name()}
	switch to {
	case RolledBack:
		log.Warn("swap transition", attrs...)
	case Committed:
		log.Info("swap transition", attrs...)
	default:
		log.Debug("swap transition", attrs...)
	}
}

// Install writes newBinary next to target, copies the target's permission
// bits (0o755 when target does not exist yet), syncs it and commits it
// with the strategy. ctx is only consulted before staging starts; a
// commit is never interrupted or retried.
func (s *Swapper) Install(ctx context.Context, newBinary io.Reader, target string) error {
	s.state = Pending
	if err := ctx.Err(); err != nil {
		return err
	}

	staged, err := stage(newBinary, target)
	if err != nil {
		return fmt.Errorf("%w: stage: %w", ErrInstallFailed, err)
	}
	s.transition(Staged, target)

	if crashAt("staged") {
		return errSimulatedCrash
	}

	if err := s.strategy.Commit(staged, target); err != nil {
		_ = os.Remove(staged)
		s.transition(RolledBack, target)
		return fmt.Errorf("%w: %s commit: %w", ErrInstallFailed, s.strategy.Name(), err)
	}

	s.transition(Committed, target)
	return nil
}

// StagedPath is where a binary is staged before it is committed onto target.
func StagedPath(target string) string {
	return filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".new")
}

func stage(r io.Reader, target string) (_ string, err error) {
	mode := fs.FileMode(0o755)
	info, err := os.Stat(target)
	switch {
	case err == nil:
		mode = info.Mode().Perm()
	case !errors.Is(err, fs.ErrNotExist):
		return "", err
	}

	staged := StagedPath(target)
	defer func() {
		if err != nil {
			_ = os.Remove(staged)
		}
	}()

	opts := selfupdate.Options{TargetPath: target, TargetMode: mode}
	if err = selfupdate.PrepareAndCheckBinary(r, opts); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}

	// The staged file was created through the umask.
	if err = os.Chmod(staged, mode); err != nil {
		return "", fmt.Errorf("chmod: %w", err)
	}
	if err = syncFile(staged); err != nil {
		return "", fmt.Errorf("sync: %w", err)
	}
	return staged, nil
}

func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ConfirmStartup is called by a freshly installed binary once it runs.
// It deletes the .old sibling kept by StagedReplace.
func ConfirmStartup(target string) error {
	err := os.Remove(OldPath(target))
	if err == nil {
		log.Debug("removed previous binary", "path", OldPath(target))
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Recover repairs the target after an interrupted install: the .old
// binary is restored if the target is missing, and leftover staged and
// temporary files are removed. Callers hold the target's update lock.
func Recover(target string) error {
	var errs []error

	if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
		if _, oldErr := os.Stat(OldPath(target)); oldErr == nil {
			if err := os.Rename(OldPath(target), target); err != nil {
				errs = append(errs, fmt.Errorf("restore previous binary: %w", err))
			} else {
				log.Warn("restored previous binary after interrupted update", "target", target)
			}
		}
	}

	if err := os.Remove(StagedPath(target)); err == nil {
		log.Debug("removed stale staged binary", "path", StagedPath(target))
	} else if !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, err)
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	prefix := TempPrefix(target)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		p := filepath.Join(filepath.Dir(target), e.Name())
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		log.Debug("removed stale update file", "path", p)
	}

	return errors.Join(errs...)
}
