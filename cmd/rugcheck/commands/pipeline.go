package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ollama/ollama/api"

	"github.com/54b3r/rugcheck-go/internal/checker"
	"github.com/54b3r/rugcheck-go/internal/chunker"
	"github.com/54b3r/rugcheck-go/internal/config"
	"github.com/54b3r/rugcheck-go/internal/corpus"
	"github.com/54b3r/rugcheck-go/internal/embedder"
	"github.com/54b3r/rugcheck-go/internal/history"
	"github.com/54b3r/rugcheck-go/internal/profile"
	"github.com/54b3r/rugcheck-go/internal/prompt"
	"github.com/54b3r/rugcheck-go/internal/provider"
	"github.com/54b3r/rugcheck-go/internal/rag"
	"github.com/54b3r/rugcheck-go/internal/server"
	"github.com/54b3r/rugcheck-go/internal/synth"
)

// pipeline is a fully wired checker plus the resources it owns.
type pipeline struct {
	checker *checker.Checker
	corpus  *corpus.ReferenceCorpus
	pingers []server.Pinger
	closers []func()
}

// Close releases every resource the pipeline opened, in reverse order.
func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

// buildPipeline wires the checker from settings and the environment. The
// reference corpus is loaded once here and shared by every request.
func buildPipeline(ctx context.Context, log *slog.Logger, s *config.Settings) (_ *pipeline, err error) {
	p := &pipeline{}
	defer func() {
		if err != nil {
			p.Close()
		}
	}()

	if err := embedder.Validate(log); err != nil {
		return nil, err
	}

	providerCfg := provider.ConfigFromEnv()
	if err := providerCfg.Validate(); err != nil {
		return nil, err
	}
	chatModel, err := provider.New(ctx, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised",
		slog.String("provider", string(providerCfg.Backend)),
		slog.String("model", providerCfg.ModelName()),
	)

	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	embBackend := embedder.Backend()
	log.Info("embedder initialised",
		slog.String("provider", embBackend),
		slog.String("model", embedder.Model(embBackend)),
	)

	splitter, err := newSplitter(s)
	if err != nil {
		return nil, err
	}
	p.corpus = corpus.Load(ctx, splitter, s.ReferenceDocs...)

	pool, err := profile.NewPool(ctx, s.PostgresDSN)
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, pool.Close)
	p.pingers = append(p.pingers, server.NewPostgresPinger(pool))

	if providerCfg.Backend == provider.BackendOllama {
		if pinger := ollamaPinger(providerCfg.Ollama.Host, "ollama", log); pinger != nil {
			p.pingers = append(p.pingers, pinger)
		}
	}
	if oe, ok := emb.(*embedder.OllamaEmbedder); ok {
		p.pingers = append(p.pingers, server.NewOllamaPinger(oe.Client(), "ollama-embeddings"))
	}

	deps := checker.Deps{
		Source:   profile.NewPostgresSource(pool),
		Corpus:   p.corpus,
		Splitter: splitter,
		Embedder: emb,
		Composer: prompt.NewComposer(prompt.RugCheck, s.PromptMaxTokens),
	}
	if deps.Synthesizer, err = synth.NewSynthesizer(provider.NewCompleter(chatModel, providerCfg)); err != nil {
		return nil, err
	}

	if s.CacheEnabled() {
		dims := embedder.DefaultDimensions(embBackend)
		cache, err := rag.NewQdrantCache(ctx, &rag.QdrantConfig{
			Host:       s.QdrantHost,
			Port:       s.QdrantPort,
			Collection: s.QdrantCollection,
			VectorSize: uint64(dims), //nolint:gosec // dimensions are bounded
			// Vectors from another model or dimensionality never match.
			Namespace: fmt.Sprintf("%s/%d", embedder.Model(embBackend), dims),
			APIKey:     s.QdrantAPIKey,
			UseTLS:     s.QdrantTLS,
		})
		if err != nil {
			log.Warn("embedding cache unavailable, continuing without it",
				slog.String("host", s.QdrantHost),
				slog.Any("error", err),
			)
		} else {
			deps.Cache = cache
			p.closers = append(p.closers, func() { _ = cache.Close() })
			p.pingers = append(p.pingers, server.NewQdrantPinger(cache.Client()))
			log.Info("embedding cache enabled", slog.String("collection", s.QdrantCollection))
		}
	}

	mode, err := checker.ParseMode(s.Mode)
	if err != nil {
		return nil, err
	}
	p.checker, err = checker.New(deps, checker.Config{
		TopK:        s.TopK,
		MaxProfiles: s.MaxProfiles,
		Mode:        mode,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// newSplitter builds the chunker from the configured size and overlap.
func newSplitter(s *config.Settings) (*chunker.Splitter, error) {
	splitter, err := chunker.New(
		chunker.WithChunkSize(s.ChunkSize),
		chunker.WithChunkOverlap(s.ChunkOverlap),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking settings: %w", err)
	}
	return splitter, nil
}

// ollamaPinger returns a heartbeat pinger for host, or nil when host is not
// a valid URL.
func ollamaPinger(host, name string, log *slog.Logger) server.Pinger {
	u, err := url.Parse(host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		log.Warn("readiness: skipping ollama check, invalid host", slog.String("host", host))
		return nil
	}
	return server.NewOllamaPinger(api.NewClient(u, http.DefaultClient), name)
}

// openHistory opens the check history store. It returns nil when history is
// disabled or cannot be opened; history never blocks a check.
func openHistory(s *config.Settings, log *slog.Logger) history.Store {
	path := s.HistoryDB
	if path == history.Disabled {
		log.Info("history: disabled via RUGCHECK_HISTORY_DB=disabled")
		return nil
	}
	if path == "" {
		var err error
		if path, err = history.DefaultDBPath(); err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil
		}
	}
	hs, err := history.Open(path)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil
	}
	log.Debug("history: store opened", slog.String("path", path))
	return hs
}

// openPool opens the profile store for commands that only need Postgres.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	s, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	return profile.NewPool(ctx, s.PostgresDSN)
}
