package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valksor/go-selfup/internal/display"
	"github.com/valksor/go-selfup/internal/update"
	"github.com/valksor/go-selfup/internal/version"
)

var (
	updateVersion         string
	updateCheckOnly       bool
	updateYes             bool
	updateAllowUnverified bool
)

var updateCmd = &cobra.Command{
	Use:     "update",
	Short:   "Install the newest release allowed by the configuration",
	GroupID: "update",
	Long: `Install the newest release allowed by the configured version constraint.

The update process:
1. Lists the repository's releases
2. Picks the highest version satisfying the constraint with a build for
   this platform
3. Downloads it next to the installed binary
4. Verifies it against the published checksums (and signature, when
   trusted keys are configured)
5. Swaps it into place, keeping the old binary until the swap commits

--version takes "latest", an exact version ("1.4.2", which may downgrade)
or a requirement ("^1.4", "~1.4.0", ">=1.2, <2").`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVar(&updateVersion, "version", "",
		"Override the configured version constraint")
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false,
		"Check for updates without installing")
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false,
		"Skip confirmation prompt")
	updateCmd.Flags().BoolVar(&updateAllowUnverified, "allow-unverified", false,
		"Install even when the release publishes no checksum")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if updateVersion != "" {
		if err := cfg.OverrideVersion(updateVersion); err != nil {
			return err
		}
	}
	if updateAllowUnverified {
		cfg.Verify.AllowUnverified = true
	}

	current, ok := currentVersion()
	if !ok {
		if updateVersion == "" {
			fmt.Fprintf(out, "%s Dev build detected (%s)\n", display.Warning("⚠"), Version)
			fmt.Fprintln(out, "Update checks are not available for dev builds.")
			fmt.Fprintln(out, "Pass --version to install a specific release.")
			return nil
		}
		current = version.Version{}
	}

	u := newUpdater()
	repo := cfg.RepoRef()
	fmt.Fprintf(out, "%s Checking %s for releases...\n", display.Info("→"), repo)

	status, err := u.Check(cmd.Context(), cfg, current)
	if err != nil {
		return err
	}

	rel := status.Release
	if !status.UpdateAvailable {
		fmt.Fprintln(out, display.SuccessMsg("Already up to date"))
		fmt.Fprintf(out, "  Current:   %s\n", display.Muted(current.String()))
		fmt.Fprintf(out, "  Resolved:  %s\n", display.Muted(rel.Version.String()))
		return nil
	}

	fmt.Fprintf(out, "\n%s %s\n", display.Success("✓"), display.Bold("Update available"))
	fmt.Fprintf(out, "  Current:   %s\n", display.Muted(versionOrDev(current)))
	fmt.Fprintf(out, "  Release:   %s (%s)\n", display.Success(rel.Version.String()), rel.Tag)
	if rel.Asset.Size > 0 {
		fmt.Fprintf(out, "  Download:  %s (%s)\n", display.Muted(rel.Asset.Name), display.Bytes(rel.Asset.Size))
	} else {
		fmt.Fprintf(out, "  Download:  %s\n", display.Muted(rel.Asset.Name))
	}
	for _, a := range rel.Anomalies {
		fmt.Fprintln(out, display.WarningMsg("%s", a))
	}

	if updateCheckOnly {
		return nil
	}

	confirmed, err := confirmAction(cmd.InOrStdin(), out,
		fmt.Sprintf("Download and install %s?", rel.Version), updateYes)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Fprintln(out, display.Muted("Update cancelled"))
		return nil
	}

	target, err := u.Target()
	if err != nil {
		return err
	}
	if err := update.Writable(filepath.Dir(target)); err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), display.NotWritableError(filepath.Dir(target)))
		return err
	}

	outcome, err := u.CheckAndUpdate(cmd.Context(), cfg, current)
	if err != nil {
		return err
	}

	if outcome.Kind == update.AlreadyUpToDate {
		fmt.Fprintln(out, display.SuccessMsg("Already up to date"))
		return nil
	}

	if outcome.Digest.IsZero() {
		fmt.Fprintln(out, display.WarningMsg("Installed without checksum verification"))
	} else {
		fmt.Fprintf(out, "  Verified:  %s\n", display.Muted(outcome.Digest.String()))
	}
	fmt.Fprintf(out, "\n%s Updated %s to %s\n", display.Success("✓"), outcome.Target, display.Bold(outcome.To.String()))
	fmt.Fprintf(out, "%s Restart to use the new version\n", display.Muted("→"))

	return nil
}

func versionOrDev(v version.Version) string {
	if v.IsZero() {
		return Version
	}
	return v.String()
}
