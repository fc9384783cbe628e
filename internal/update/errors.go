package update

import (
	"errors"
	"fmt"
)

// Phase names a step of an update run.
type Phase string

const (
	PhaseConfig   Phase = "config"
	PhaseList     Phase = "list"
	PhaseResolve  Phase = "resolve"
	PhaseLock     Phase = "lock"
	PhaseDownload Phase = "download"
	PhaseVerify   Phase = "verify"
	PhaseExtract  Phase = "extract"
	PhaseInstall  Phase = "install"
)

// ErrNotWritable is returned when the directory holding the target cannot be written.
var ErrNotWritable = errors.New("update: target directory is not writable")

// PhaseError reports which step of an update failed.
// errors.Is and errors.As reach the underlying cause.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// PhaseOf returns the phase recorded in err, if any.
func PhaseOf(err error) (Phase, bool) {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Phase, true
	}
	return "", false
}

func fail(phase Phase, err error) error {
	if err == nil {
		return nil
	}
	return &PhaseError{Phase: phase, Err: err}
}
