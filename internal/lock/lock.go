// Package lock guards a target binary against concurrent updates with an
// advisory lock file next to it.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLocked is returned when another process holds the lock past the timeout.
var ErrLocked = errors.New("another update is in progress")

const (
	pollInterval    = 50 * time.Millisecond
	maxPollInterval = 500 * time.Millisecond
)

// FileLock is an exclusive cross-process lock on a file.
type FileLock struct {
	file *os.File
	path string
}

// New creates a lock on path. Nothing is opened until the lock is taken.
func New(path string) *FileLock {
	return &FileLock{path: path}
}

// For returns the lock guarding target (target + ".lock").
func For(target string) *FileLock {
	return New(target + ".lock")
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// TryLock attempts to acquire the lock without blocking.
// It returns false if the lock is held elsewhere.
func (l *FileLock) TryLock() (bool, error) {
	if l.file != nil {
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return false, fmt.Errorf("open lock file: %w", err)
	}

	acquired, err := tryLockFile(f)
	if err != nil || !acquired {
		_ = f.Close()
		return false, err
	}

	l.file = f
	return true, nil
}

// Acquire polls for the lock until it is taken, timeout elapses (ErrLocked),
// or ctx is done. A zero timeout tries once.
func (l *FileLock) Acquire(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	interval := pollInterval

	for {
		acquired, err := l.TryLock()
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}

		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %s held for more than %v", ErrLocked, l.path, timeout)
		}

		timer := time.NewTimer(min(interval, time.Until(deadline)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		interval = min(interval*2, maxPollInterval)
	}
}

// Unlock releases the lock. The lock file is left in place.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	l.file = nil

	if unlockErr != nil {
		return fmt.Errorf("release lock: %w", unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close lock file: %w", closeErr)
	}
	return nil
}
