// Package cli implements liftctl, the LiftLog command-line companion.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// BuildInfo is set by main from -ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand builds the liftctl command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:   "liftctl",
		Short: "Strength training calculators, rest timer and LiftLog import",
		Long: `liftctl estimates one-rep maxes, prints rep-max tables, runs a rest timer
between sets and uploads Alpha Progression exports to a LiftLog server.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newOneRepMaxCommand(),
		newTableCommand(),
		newTimerCommand(),
		newImportCommand(),
		newVersionCommand(info),
	)
	return root
}

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the liftctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "liftctl %s (commit %s, built %s)\n", info.Version, info.Commit, info.Date)
		},
	}
}
