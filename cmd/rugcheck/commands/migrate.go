package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/rugcheck-go/internal/logging"
	"github.com/54b3r/rugcheck-go/internal/profile"
)

// NewMigrateCmd constructs the `rugcheck migrate` command, which applies the
// embedded profile store schema.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the token profile tables in Postgres",
		Long: `Apply the embedded schema for the tokens, dexs, holders, and lp_holders
tables. Every statement is idempotent, so migrate is safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logging.WithLogger(cmd.Context(), logging.New())

			pool, err := openPool(ctx)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer pool.Close()

			applied, err := profile.Migrate(ctx, pool)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}
}
