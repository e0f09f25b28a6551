// Package commands defines all Cobra CLI commands for the rugcheck binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/54b3r/rugcheck-go/internal/audit"
	"github.com/54b3r/rugcheck-go/internal/config"
	"github.com/54b3r/rugcheck-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// envFile holds the --env-file flag value.
var envFile string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rugcheck",
		Short: "Based Rug Check: answers rug-pull questions about Base tokens",
		Long: `rugcheck answers questions about whether a token is a rug pull.

Each question is answered from two kinds of evidence: token security profiles
stored in Postgres (populated with 'rugcheck sync') and a small corpus of
reference documents about rug pulls. Both are chunked, embedded, and
retrieved per request before a language model composes the answer.

Configuration is read from the environment, a .env file, and an optional
YAML file (~/.rugcheck/config.yaml). Environment variables always win.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			if err := config.LoadDotEnv(envFile, log); err != nil {
				return err
			}
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}

			// Re-create the logger: the config layers may have set LOG_LEVEL.
			audit.LogCommandStart(cmd.Context(), logging.New(), cmd.Name(), path)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.rugcheck/config.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file; missing files are ignored")

	root.AddCommand(
		NewServeCmd(),
		NewCheckCmd(),
		NewCorpusCmd(),
		NewSyncCmd(),
		NewMigrateCmd(),
		NewHistoryCmd(),
		NewVersionCmd(),
	)

	return root
}
