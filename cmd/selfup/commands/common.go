package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/valksor/go-selfup/internal/config"
	"github.com/valksor/go-selfup/internal/display"
	"github.com/valksor/go-selfup/internal/lock"
	"github.com/valksor/go-selfup/internal/resolve"
	"github.com/valksor/go-selfup/internal/update"
	"github.com/valksor/go-selfup/internal/verify"
)

// confirmAction asks a yes/no question on out and reads the answer from in.
func confirmAction(in io.Reader, out io.Writer, prompt string, skipConfirm bool) (bool, error) {
	if skipConfirm {
		return true, nil
	}

	fmt.Fprintf(out, "%s [y/N]: ", prompt)

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read response: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// DescribeError renders a command error for the terminal, naming the
// update phase that failed and suggesting a fix where one is known.
func DescribeError(err error) string {
	cause := err
	phase, hasPhase := update.PhaseOf(err)
	var pe *update.PhaseError
	if errors.As(err, &pe) {
		cause = pe.Err
	}

	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		return display.ConfigNotFoundError(cause.Error())
	case errors.Is(err, resolve.ErrNoMatchingRelease), errors.Is(err, resolve.ErrNoMatchingAsset):
		return display.ErrorMsg("Nothing to install: %v", cause) + "\n"
	case errors.Is(err, verify.ErrDigestUnavailable):
		return display.UnverifiedError(cause.Error())
	case errors.Is(err, lock.ErrLocked):
		return display.LockedError(cause.Error())
	case hasPhase:
		return display.ErrorMsg("%s failed: %v", display.FormatPhase(string(phase)), cause) + "\n"
	default:
		return display.ErrorMsg("%v", err) + "\n"
	}
}
