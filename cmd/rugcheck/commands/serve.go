package commands

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/rugcheck-go/internal/config"
	"github.com/54b3r/rugcheck-go/internal/logging"
	"github.com/54b3r/rugcheck-go/internal/server"
	"github.com/54b3r/rugcheck-go/internal/tracing"
)

// NewServeCmd constructs the `rugcheck serve` command, which starts the HTTP
// service exposing POST /check.
func NewServeCmd() *cobra.Command {
	var (
		host         string
		port         int
		checkTimeout time.Duration
		rateLimit    float64
		rateBurst    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the rug check HTTP service",
		Long: `Start the rug check HTTP service.

Endpoints:
  POST /check        {"query": "...", "token_address": "0x..."} -> {"answer": "...", "sources": [...]}
  GET  /api/health   liveness
  GET  /api/ready    readiness (Postgres, Ollama, Qdrant)
  GET  /metrics      Prometheus metrics

Examples:
  rugcheck serve
  rugcheck serve --host 0.0.0.0 --port 8080
  MODEL_PROVIDER=openai rugcheck serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			settings, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			flush := tracing.Setup(tracing.ConfigFromEnv(), log)
			defer flush()

			p, err := buildPipeline(ctx, log, settings)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer p.Close()

			hs := openHistory(settings, log)
			if hs != nil {
				defer func() { _ = hs.Close() }()
			}

			srv, err := server.New(p.checker, &server.Config{
				Host:         host,
				Port:         port,
				CheckTimeout: checkTimeout,
				Logger:       log,
				Pingers:      p.pingers,
				RateLimit:    rateLimit,
				RateBurst:    rateBurst,
				History:      hs,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			log.Info("serve starting",
				slog.Int("reference_chunks", p.corpus.Len()),
				slog.String("mode", settings.Mode),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")
	cmd.Flags().DurationVar(&checkTimeout, "check-timeout", config.DefaultCheckTimeout, "Maximum duration of one check")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, "Sustained POST /check requests per second per IP (default 10)")
	cmd.Flags().IntVar(&rateBurst, "rate-burst", 0, "POST /check burst per IP (default 20)")

	return cmd
}
