package swap

import "errors"

// ErrInstallFailed is returned when the new binary could not be put in
// place. The original binary is intact whenever it is returned.
var ErrInstallFailed = errors.New("install failed")

// errSimulatedCrash stops an install at a crash point without cleanup.
var errSimulatedCrash = errors.New("simulated crash")
