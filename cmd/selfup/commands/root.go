package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valksor/go-selfup/internal/config"
	"github.com/valksor/go-selfup/internal/display"
	"github.com/valksor/go-selfup/internal/log"
	"github.com/valksor/go-selfup/internal/progress"
	"github.com/valksor/go-selfup/internal/source"
	"github.com/valksor/go-selfup/internal/swap"
	"github.com/valksor/go-selfup/internal/update"
	"github.com/valksor/go-selfup/internal/version"
)

var (
	settings *config.Settings

	// Global flags.
	cfgPath  string
	verbose  bool
	noColor  bool
	jsonLogs bool

	// backgroundDone is closed when the background release check finishes.
	backgroundDone chan struct{}
)

// newUpdater builds the updater used by every command. Tests replace it.
var newUpdater = func() *update.Updater {
	return update.New(update.Options{Progress: downloadProgress(os.Stderr)})
}

// downloadProgress draws a live byte counter for each download on w.
func downloadProgress(w io.Writer) func(source.AssetRef) update.Progress {
	return func(asset source.AssetRef) update.Progress {
		return progress.NewStatusLine(w, "Downloading "+asset.Name, asset.Size)
	}
}

var rootCmd = &cobra.Command{
	Use:   "selfup",
	Short: "Resolve and install releases of a binary",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Long: `selfup keeps a binary up to date with the releases published on GitHub
or GitLab.

It lists the repository's releases, picks the newest one allowed by the
configured version constraint that has a build for this platform, checks it
against the published checksums and swaps it into place.

Quick Start:
  selfup releases        List releases and their platform assets
  selfup update --check  Show what would be installed
  selfup update          Install it

Configuration is read from selfup.toml (or selfup.yaml) in the working
directory, next to the executable, from $SELFUP_CONFIG or from --config.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnvFromCwd(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to load %s/%s: %v\n", config.Dir, config.EnvFileName, err)
		}

		log.Configure(log.Options{
			Output:  cmd.ErrOrStderr(),
			Level:   log.LevelWarn,
			JSON:    jsonLogs,
			Verbose: verbose,
		})

		display.InitColors(noColor)

		// A binary that starts after a staged swap drops its .old copy.
		if exe, err := update.ExecutablePath(); err == nil {
			if err := swap.ConfirmStartup(exe); err != nil {
				log.Warn("remove previous binary", log.Err(err))
			}
		}

		var err error
		settings, err = config.LoadSettings()
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}

		log.Debug("initialized", "verbose", verbose, "version", Version)

		if cmd.Name() != updateCmd.Name() && shouldCheckForUpdates(settings) {
			backgroundDone = make(chan struct{})
			go func() {
				defer close(backgroundDone)
				checkForUpdatesInBackground(cmd.Context(), cmd.ErrOrStderr())
			}()
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if backgroundDone == nil {
			return
		}
		select {
		case <-backgroundDone:
		case <-time.After(backgroundGrace):
		}
	},
}

// Execute runs the root command with signal handling.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to selfup.toml or selfup.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "update",
		Title: "Update Commands:",
	}, &cobra.Group{
		ID:    "info",
		Title: "Information Commands:",
	})
}

// loadConfig finds and loads the configuration for this run.
func loadConfig() (*config.Config, error) {
	path, err := config.Find(cfgPath)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// currentVersion parses the build version. Dev builds report false.
func currentVersion() (version.Version, bool) {
	v, err := version.Parse(Version)
	if err != nil {
		return version.Version{}, false
	}
	return v, true
}

// GetSettings returns the loaded settings.
func GetSettings() *config.Settings {
	return settings
}
