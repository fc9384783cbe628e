package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/valksor/go-selfup/internal/resolve"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print version information",
	GroupID: "info",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "selfup %s\n", Version)
		_, _ = fmt.Fprintf(out, "  Commit:   %s\n", Commit)
		_, _ = fmt.Fprintf(out, "  Built:    %s\n", BuildTime)
		_, _ = fmt.Fprintf(out, "  Go:       %s\n", runtime.Version())
		_, _ = fmt.Fprintf(out, "  Platform: %s\n", resolve.Current())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
