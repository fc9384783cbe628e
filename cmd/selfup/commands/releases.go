package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valksor/go-selfup/internal/config"
	"github.com/valksor/go-selfup/internal/display"
	"github.com/valksor/go-selfup/internal/resolve"
	"github.com/valksor/go-selfup/internal/update"
)

var releasesAll bool

var releasesCmd = &cobra.Command{
	Use:     "releases",
	Aliases: []string{"list-releases"},
	Short:   "List releases of the configured repository",
	GroupID: "update",
	Long: `List the releases whose tag is the configured prefix followed by a
semantic version, newest first, with their name, publication date and the
asset this platform would install.

Releases without a build for this platform are hidden unless --all is given.`,
	RunE: runReleases,
}

func init() {
	rootCmd.AddCommand(releasesCmd)
	releasesCmd.Flags().BoolVarP(&releasesAll, "all", "a", false,
		"Include releases without a build for this platform")
}

func runReleases(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	u := newUpdater()
	candidates, err := u.ListReleases(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	current, _ := currentVersion()
	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		asset := platformAsset(u, cfg, c)
		if asset == "" && !releasesAll {
			continue
		}

		var notes []string
		if c.Prerelease {
			notes = append(notes, "pre-release")
		}
		if !current.IsZero() && c.Version.Equal(current) {
			notes = append(notes, "installed")
		}
		rows = append(rows, []string{
			c.Tag,
			c.Version.String(),
			orDash(c.Name),
			releaseDate(c.PublishedAt),
			orDash(asset),
			strings.Join(notes, ", "),
		})
	}

	if len(rows) == 0 {
		fmt.Fprintf(out, "%s No installable releases of %s\n", display.Muted("→"), cfg.RepoRef())
		return nil
	}

	fmt.Fprint(out, display.Table([]string{"TAG", "VERSION", "NAME", "DATE", "ASSET", "NOTES"}, rows))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// releaseDate formats the publication day, "-" when the host gave none.
func releaseDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.DateOnly)
}

// platformAsset returns the name of the asset u would install from c.
func platformAsset(u *update.Updater, cfg *config.Config, c resolve.Candidate) string {
	for _, a := range c.Assets {
		if u.MatchesPlatform(cfg, a.Name, c.Version) {
			return a.Name
		}
	}
	return ""
}
