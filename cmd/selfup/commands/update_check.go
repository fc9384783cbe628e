package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/valksor/go-selfup/internal/config"
	"github.com/valksor/go-selfup/internal/display"
	"github.com/valksor/go-selfup/internal/log"
)

const (
	// backgroundTimeout bounds the background release check.
	backgroundTimeout = 5 * time.Second
	// backgroundGrace is how long a finished command waits for the check.
	backgroundGrace = 2 * time.Second
)

// checkForUpdatesInBackground checks for a newer release and prints a
// notice to w. Errors are only logged; the check must never disturb the
// command that triggered it.
func checkForUpdatesInBackground(ctx context.Context, w io.Writer) {
	timeoutCtx, cancel := context.WithTimeout(ctx, backgroundTimeout)
	defer cancel()

	current, ok := currentVersion()
	if !ok {
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Debug("background check skipped", log.Err(err))
		return
	}

	s, err := config.LoadSettings()
	if err != nil || !s.CheckDue(cfg.Update.CheckInterval.Std(), time.Now()) {
		return
	}

	status, err := newUpdater().Check(timeoutCtx, cfg, current)
	latest := ""
	if err == nil {
		latest = status.Release.Version.String()
	} else {
		log.Debug("background check failed", log.Err(err))
	}

	// Record the attempt even on failure so we don't check again too soon.
	s.MarkChecked(time.Now(), latest)
	if err := s.Save(); err != nil {
		log.Debug("save settings", log.Err(err))
	}

	if err == nil && status.UpdateAvailable {
		fmt.Fprintf(w, "\n%s %s is available (you have %s)\n",
			display.Info("→"), display.Bold(latest), display.Muted(current.String()))
		fmt.Fprintf(w, "%s Run 'selfup update' to install\n\n", display.Muted("→"))
	}
}

// shouldCheckForUpdates returns false for dev builds. The configured
// interval is applied by the check itself once the config is loaded.
func shouldCheckForUpdates(settings *config.Settings) bool {
	if settings == nil {
		return false
	}
	_, ok := currentVersion()
	return ok
}
