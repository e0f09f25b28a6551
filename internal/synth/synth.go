// Package synth turns a composed prompt into an answer by calling the
// generative backend. It performs no retries: a backend failure or timeout
// fails the request.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/54b3r/rugcheck-go/internal/logging"
	"github.com/54b3r/rugcheck-go/internal/prompt"
	"github.com/54b3r/rugcheck-go/internal/rag"
)

// ErrGeneration reports that the generative backend failed or timed out.
var ErrGeneration = errors.New("synth: generation failed")

// Completer is the text-completion capability of a generative backend.
// Implementations must be safe to call from multiple goroutines.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Answer is the generated text and the chunks it was grounded on.
type Answer struct {
	// Text is the backend output, unmodified.
	Text string
	// Sources are the chunks placed in the prompt, in rank order.
	Sources []rag.Hit
	// Dropped counts retrieved chunks cut to fit the prompt limit.
	Dropped int
}

// Synthesizer sends composed prompts to a Completer.
type Synthesizer struct {
	completer Completer
}

// NewSynthesizer returns a Synthesizer backed by c.
func NewSynthesizer(c Completer) (*Synthesizer, error) {
	if c == nil {
		return nil, fmt.Errorf("synth: completer must not be nil")
	}
	return &Synthesizer{completer: c}, nil
}

// Synthesize completes p and returns the answer with p's context as sources.
// Errors wrap [ErrGeneration] together with the backend error, so callers
// can also match context.DeadlineExceeded.
func (s *Synthesizer) Synthesize(ctx context.Context, p *prompt.Prompt) (*Answer, error) {
	if p == nil {
		return nil, fmt.Errorf("synth: prompt must not be nil")
	}
	log := logging.FromContext(ctx)

	start := time.Now()
	text, err := s.completer.Complete(ctx, p.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	log.Debug("synth: completion finished",
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("answer_chars", len(text)),
	)
	for _, h := range p.Used {
		log.Debug("synth: fact check",
			slog.String("chunk", h.Chunk.ID),
			slog.String("origin", string(h.Chunk.Origin)),
			slog.Float64("score", float64(h.Score)),
		)
	}

	return &Answer{Text: text, Sources: p.Used, Dropped: p.Dropped}, nil
}
