package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/54b3r/rugcheck-go/internal/budget"
	"github.com/54b3r/rugcheck-go/internal/logging"
	"github.com/54b3r/rugcheck-go/internal/rag"
)

// ErrPromptOverflow reports that the template and question alone exceed the
// input limit, so no amount of context truncation can bound the prompt.
var ErrPromptOverflow = errors.New("prompt: template and question exceed the input limit")

// ContextSeparator joins retrieved chunk texts into the context slot.
const ContextSeparator = "\n\n"

// Prompt is a composed prompt and the context that went into it.
type Prompt struct {
	// Text is the final prompt string.
	Text string
	// Used holds the hits whose text is in the context, in rank order.
	Used []rag.Hit
	// Dropped counts the lowest-ranked hits cut to respect the limit.
	Dropped int
}

// Composer fills a Template, bounding the result to an estimated token limit.
// It is stateless and safe for concurrent use.
type Composer struct {
	template  Template
	maxTokens int
}

// NewComposer returns a Composer for tmpl. A non-positive maxTokens selects
// budget.DefaultMaxPromptTokens.
func NewComposer(tmpl Template, maxTokens int) *Composer {
	if maxTokens <= 0 {
		maxTokens = budget.DefaultMaxPromptTokens
	}
	return &Composer{template: tmpl, maxTokens: maxTokens}
}

// MaxTokens returns the configured input limit.
func (c *Composer) MaxTokens() int { return c.maxTokens }

// Compose substitutes question and the ranked hits into the template. When
// the full context does not fit, the lowest-ranked hits are dropped until it
// does, so the retained hits are always the highest-ranked prefix.
func (c *Composer) Compose(ctx context.Context, question string, hits []rag.Hit) (*Prompt, error) {
	render := func(kept []rag.Hit) string {
		return c.template.Format(question, JoinContext(kept))
	}

	n := budget.FitPrefix(hits, c.maxTokens, render)
	if n < 0 {
		return nil, fmt.Errorf("%w: about %d tokens before context, limit %d",
			ErrPromptOverflow, budget.Estimate(render(nil)), c.maxTokens)
	}

	p := &Prompt{
		Text:    render(hits[:n]),
		Used:    hits[:n:n],
		Dropped: len(hits) - n,
	}
	if p.Dropped > 0 {
		logging.FromContext(ctx).Debug("prompt: context truncated",
			slog.Int("kept", n),
			slog.Int("dropped", p.Dropped),
			slog.Int("max_tokens", c.maxTokens),
		)
	}
	return p, nil
}

// JoinContext concatenates hit texts in rank order.
func JoinContext(hits []rag.Hit) string {
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Chunk.Text
	}
	return strings.Join(texts, ContextSeparator)
}
