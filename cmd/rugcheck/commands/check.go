package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/rugcheck-go/internal/checker"
	"github.com/54b3r/rugcheck-go/internal/config"
	"github.com/54b3r/rugcheck-go/internal/history"
	"github.com/54b3r/rugcheck-go/internal/logging"
	"github.com/54b3r/rugcheck-go/internal/tracing"
)

// NewCheckCmd constructs the `rugcheck check` command, which answers one
// question from the terminal.
func NewCheckCmd() *cobra.Command {
	var (
		address     string
		mode        string
		showSources bool
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check [question]",
		Short: "Ask whether a token is a rug",
		Long: `Ask a rug-check question and print the answer.

A bare address is treated as "rug check this token". --address restricts the
token profiles used as evidence to one token.

Examples:
  rugcheck check "is 0x4ed4e862860bed51a9570b96d89af5e1b0efefed a rug?"
  rugcheck check --address 0x4ed4e862860bed51a9570b96d89af5e1b0efefed "can I sell it?"
  rugcheck check --mode explicit --sources "what is a honeypot?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			settings, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}

			flush := tracing.Setup(tracing.ConfigFromEnv(), log)
			defer flush()

			p, err := buildPipeline(ctx, log, settings)
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}
			defer p.Close()

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			req := checker.Request{
				Question:     strings.Join(args, " "),
				TokenAddress: address,
				Mode:         checker.Mode(mode),
			}
			start := time.Now()
			res, err := p.checker.Check(ctx, req)
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}
			elapsed := time.Since(start)

			renderResult(cmd.OutOrStdout(), res, showSources)

			if hs := openHistory(settings, log); hs != nil {
				defer func() { _ = hs.Close() }()
				if err := hs.Append(ctx, history.Entry{
					Question:     req.Question,
					TokenAddress: address,
					Mode:         string(res.Mode),
					Answer:       res.Answer.Text,
					Sources:      len(res.Answer.Sources),
					Profiles:     res.Profiles,
					Duration:     elapsed,
				}); err != nil {
					log.Warn("history append failed", slog.Any("error", err))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "Restrict token profiles to this 0x address")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Request shape: qa or explicit (default from RETRIEVAL_MODE)")
	cmd.Flags().BoolVarP(&showSources, "sources", "s", false, "Print the retrieved sources after the answer")
	cmd.Flags().DurationVar(&timeout, "timeout", config.DefaultCheckTimeout, "Maximum duration of the check")

	return cmd
}
