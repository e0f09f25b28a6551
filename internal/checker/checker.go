// Package checker runs the per-request rug-check pipeline: load token
// profiles, format and chunk them, index them together with the reference
// corpus, retrieve context for the question, and synthesize an answer.
//
// Every request builds and discards its own index. The only state shared
// between requests is the immutable reference corpus and the collaborators
// passed to [New].
package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/54b3r/rugcheck-go/internal/chunker"
	"github.com/54b3r/rugcheck-go/internal/corpus"
	"github.com/54b3r/rugcheck-go/internal/evidence"
	"github.com/54b3r/rugcheck-go/internal/logging"
	"github.com/54b3r/rugcheck-go/internal/profile"
	"github.com/54b3r/rugcheck-go/internal/prompt"
	"github.com/54b3r/rugcheck-go/internal/rag"
	"github.com/54b3r/rugcheck-go/internal/synth"
)

// ErrInvalidRequest reports a request the pipeline cannot run.
var ErrInvalidRequest = errors.New("checker: invalid request")

// addressPattern matches a 20-byte hex EVM address.
var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether s is a well-formed token address.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// Mode selects how a request is answered.
type Mode string

const (
	// ModeQA hands a retriever bound to the request's index to a
	// RetrievalQA chain, which retrieves, composes, and completes.
	ModeQA Mode = "qa"
	// ModeExplicit retrieves, composes, and synthesizes step by step.
	ModeExplicit Mode = "explicit"
)

// ParseMode converts s to a Mode. An empty string selects ModeQA.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeQA:
		return ModeQA, nil
	case ModeExplicit:
		return ModeExplicit, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q (valid: qa, explicit)", ErrInvalidRequest, s)
	}
}

// Request is one rug-check question.
type Request struct {
	// Question is the free-text question. Required.
	Question string
	// TokenAddress optionally restricts evidence to one token.
	TokenAddress string
	// Mode overrides the checker's default mode when set.
	Mode Mode
}

// Timings records how long each pipeline stage took.
type Timings struct {
	Profiles time.Duration
	Index    time.Duration
	Answer   time.Duration
}

// Result is an answered request.
type Result struct {
	// Answer is the synthesized answer and its sources.
	Answer *synth.Answer
	// Mode is the mode that produced the answer.
	Mode Mode
	// Profiles is the number of token profiles used as evidence.
	Profiles int
	// IndexSize is the number of chunks the request's index held.
	IndexSize int
	// Timings holds per-stage durations.
	Timings Timings
}

// Deps are the collaborators a Checker needs. Cache is optional.
type Deps struct {
	Source      profile.Source
	Corpus      *corpus.ReferenceCorpus
	Splitter    *chunker.Splitter
	Embedder    rag.Embedder
	Composer    *prompt.Composer
	Synthesizer *synth.Synthesizer
	Cache       rag.EmbeddingCache
}

// Config tunes retrieval.
type Config struct {
	// TopK is the number of chunks retrieved per question (default 4).
	TopK int
	// MaxProfiles caps the profiles loaded per request (default 2).
	MaxProfiles int
	// Mode is the default request mode (default qa).
	Mode Mode
}

// Checker answers rug-check requests. It is safe for concurrent use.
type Checker struct {
	deps        Deps
	retriever   *rag.Retriever
	maxProfiles int
	mode        Mode
}

// New validates deps and cfg and returns a Checker.
func New(deps Deps, cfg Config) (*Checker, error) {
	switch {
	case deps.Source == nil:
		return nil, fmt.Errorf("checker: profile source must not be nil")
	case deps.Splitter == nil:
		return nil, fmt.Errorf("checker: splitter must not be nil")
	case deps.Composer == nil:
		return nil, fmt.Errorf("checker: composer must not be nil")
	case deps.Synthesizer == nil:
		return nil, fmt.Errorf("checker: synthesizer must not be nil")
	}
	retriever, err := rag.NewRetriever(deps.Embedder, cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("checker: %w", err)
	}
	mode := cfg.Mode
	if mode == "" {
		mode = ModeQA
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	maxProfiles := cfg.MaxProfiles
	if maxProfiles <= 0 {
		maxProfiles = profile.DefaultLimit
	}
	return &Checker{deps: deps, retriever: retriever, maxProfiles: maxProfiles, mode: mode}, nil
}

// Check runs the pipeline for req. Failures wrap one of ErrInvalidRequest,
// profile.ErrDataSource, rag.ErrEmbedding, prompt.ErrPromptOverflow, or
// synth.ErrGeneration. No partial answer is ever returned.
func (c *Checker) Check(ctx context.Context, req Request) (*Result, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", ErrInvalidRequest)
	}
	address := strings.TrimSpace(req.TokenAddress)
	if address != "" && !ValidAddress(address) {
		return nil, fmt.Errorf("%w: malformed token address %q", ErrInvalidRequest, address)
	}
	mode := c.mode
	if req.Mode != "" {
		m, err := ParseMode(string(req.Mode))
		if err != nil {
			return nil, err
		}
		mode = m
	}

	log := logging.FromContext(ctx).With(slog.String("mode", string(mode)))
	ctx = logging.WithLogger(ctx, log)
	res := &Result{Mode: mode}

	start := time.Now()
	profiles, err := c.deps.Source.Profiles(ctx, address, c.maxProfiles)
	if err != nil {
		if !errors.Is(err, profile.ErrDataSource) {
			err = fmt.Errorf("%w: %w", profile.ErrDataSource, err)
		}
		return nil, err
	}
	res.Profiles = len(profiles)
	res.Timings.Profiles = time.Since(start)

	chunks := c.evidenceChunks(ctx, profiles)
	chunks = append(chunks, c.deps.Corpus.Chunks()...)

	start = time.Now()
	var opts []rag.BuildOption
	if c.deps.Cache != nil {
		opts = append(opts, rag.WithCache(c.deps.Cache))
	}
	idx, err := rag.BuildIndex(ctx, c.deps.Embedder, chunks, opts...)
	if err != nil {
		return nil, fmt.Errorf("checker: build index: %w", err)
	}
	res.IndexSize = idx.Len()
	res.Timings.Index = time.Since(start)

	start = time.Now()
	var answer *synth.Answer
	switch mode {
	case ModeExplicit:
		answer, err = c.explicit(ctx, idx, question)
	default:
		answer, err = c.retrievalQA(ctx, idx, question)
	}
	if err != nil {
		return nil, err
	}
	res.Answer = answer
	res.Timings.Answer = time.Since(start)

	log.Info("checker: check answered",
		slog.Int("profiles", res.Profiles),
		slog.Int("index_size", res.IndexSize),
		slog.Int("sources", len(answer.Sources)),
		slog.Int("dropped", answer.Dropped),
	)
	return res, nil
}

// evidenceChunks formats and chunks every profile.
func (c *Checker) evidenceChunks(ctx context.Context, profiles []*evidence.TokenProfile) []rag.Chunk {
	log := logging.FromContext(ctx)

	var out []rag.Chunk
	for i, p := range profiles {
		source := p.Address()
		if source == "" {
			source = "profile-" + strconv.Itoa(i)
		}
		if missing := evidence.Missing(p); len(missing) > 0 {
			log.Warn("checker: profile rendered with placeholders",
				slog.String("token_address", source),
				slog.Int("missing", len(missing)),
			)
		}
		out = append(out, rag.ChunkText(c.deps.Splitter, evidence.Format(p), rag.OriginProfile, source)...)
	}
	log.Debug("checker: evidence chunked", slog.Int("profiles", len(profiles)), slog.Int("chunks", len(out)))
	return out
}

// retrievalQA answers through a chain holding a retriever bound to idx.
func (c *Checker) retrievalQA(ctx context.Context, idx *rag.Index, question string) (*synth.Answer, error) {
	qa, err := synth.NewRetrievalQA(c.retriever.Bind(idx, 0), c.deps.Composer, c.deps.Synthesizer)
	if err != nil {
		return nil, fmt.Errorf("checker: %w", err)
	}
	return qa.Call(ctx, question)
}

// explicit runs retrieve, compose, and synthesize as separate steps.
func (c *Checker) explicit(ctx context.Context, idx *rag.Index, question string) (*synth.Answer, error) {
	hits, err := c.retriever.Retrieve(ctx, idx, question, 0)
	if err != nil {
		return nil, fmt.Errorf("checker: retrieve: %w", err)
	}
	p, err := c.deps.Composer.Compose(ctx, question, hits)
	if err != nil {
		return nil, err
	}
	return c.deps.Synthesizer.Synthesize(ctx, p)
}
