package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/rugcheck-go/internal/version"
)

// NewVersionCmd constructs the `rugcheck version` subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rugcheck version, git commit, and build date",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
