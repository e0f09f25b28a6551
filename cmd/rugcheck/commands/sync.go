package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/54b3r/rugcheck-go/internal/checker"
	"github.com/54b3r/rugcheck-go/internal/config"
	"github.com/54b3r/rugcheck-go/internal/goplus"
	"github.com/54b3r/rugcheck-go/internal/logging"
	"github.com/54b3r/rugcheck-go/internal/profile"
)

// NewSyncCmd constructs the `rugcheck sync` command, which fetches GoPlus
// token-security reports and stores them as token profiles.
func NewSyncCmd() *cobra.Command {
	var (
		addresses []string
		chainID   string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch GoPlus token-security reports into the profile store",
		Long: `Fetch the GoPlus token-security report for each --address and store it in
Postgres. Each token is written in one transaction, replacing its previous
DEX, holder, and LP-holder rows, so checks never see a partial profile.

Requests are paced (GOPLUS_RPS, default 0.5/s) to stay inside the public
API's limits.

Examples:
  rugcheck sync --address 0x4ed4e862860bed51a9570b96d89af5e1b0efefed
  rugcheck sync --chain 1 --address 0x... --address 0x...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			if len(addresses) == 0 {
				return fmt.Errorf("sync: at least one --address is required")
			}
			for _, a := range addresses {
				if !checker.ValidAddress(a) {
					return fmt.Errorf("sync: invalid address %q", a)
				}
			}

			settings, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			if chainID == "" {
				chainID = settings.GoPlusChainID
			}
			if chainID == "" {
				chainID = goplus.DefaultChainID
			}

			pool, err := profile.NewPool(ctx, settings.PostgresDSN)
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			defer pool.Close()

			client := goplus.New(goplus.Config{BaseURL: settings.GoPlusBaseURL, RPS: settings.GoPlusRPS})
			writer := profile.NewWriter(pool)

			stored, missing := 0, 0
			for _, addr := range addresses {
				snap, err := client.TokenSecurity(ctx, chainID, addr)
				if errors.Is(err, goplus.ErrNotFound) {
					missing++
					log.Warn("sync: no GoPlus report", slog.String("address", addr), slog.String("chain", chainID))
					continue
				}
				if err != nil {
					return fmt.Errorf("sync: %w", err)
				}
				id, err := writer.Upsert(ctx, snap)
				if err != nil {
					return fmt.Errorf("sync: %w", err)
				}
				stored++
				fmt.Fprintf(cmd.OutOrStdout(), "stored %s (id %d): %d dexs, %d holders, %d lp holders\n",
					snap.Address, id, len(snap.DEXs), len(snap.Holders), len(snap.LPHolders))
			}

			log.Info("sync complete", slog.Int("stored", stored), slog.Int("missing", missing))
			if stored == 0 {
				return fmt.Errorf("sync: no reports stored")
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&addresses, "address", "a", nil, "Token contract address (repeatable)")
	cmd.Flags().StringVar(&chainID, "chain", "", "GoPlus chain id (default GOPLUS_CHAIN_ID or 8453, Base)")
	return cmd
}
