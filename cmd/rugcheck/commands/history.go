package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/rugcheck-go/internal/config"
	"github.com/54b3r/rugcheck-go/internal/history"
	"github.com/54b3r/rugcheck-go/internal/logging"
)

// NewHistoryCmd constructs the `rugcheck history` command, which lists
// recently answered checks.
func NewHistoryCmd() *cobra.Command {
	var (
		address string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently answered checks",
		Long: `List recently answered checks, newest first. History lives in SQLite at
RUGCHECK_HISTORY_DB (default ~/.rugcheck/history.db).

Examples:
  rugcheck history
  rugcheck history --address 0x4ed4e862860bed51a9570b96d89af5e1b0efefed -n 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			settings, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			if settings.HistoryDB == history.Disabled {
				return fmt.Errorf("history: disabled via RUGCHECK_HISTORY_DB=disabled")
			}
			hs := openHistory(settings, log)
			if hs == nil {
				return fmt.Errorf("history: store unavailable")
			}
			defer func() { _ = hs.Close() }()

			entries, err := hs.Recent(cmd.Context(), address, limit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "Only show checks filtered on this token")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")
	return cmd
}
