package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/rugcheck-go/internal/budget"
	"github.com/54b3r/rugcheck-go/internal/logging"
)

// Completer adapts a chat model to a single-turn text completion: the prompt
// is sent as one user message and the reply content is returned unchanged.
// It is safe for concurrent use when the underlying model is.
type Completer struct {
	model model.BaseChatModel
	opts  []model.Option
	name  string
}

// NewCompleter wraps m. cfg supplies the per-call sampling options; it may be
// nil, in which case the model's own defaults apply.
func NewCompleter(m model.BaseChatModel, cfg *Config) *Completer {
	c := &Completer{model: m}
	if cfg == nil {
		return c
	}
	c.name = cfg.ModelName()
	if cfg.Backend == BackendAzure && isAzureReasoningModel(cfg.AzureOpenAI.Deployment) {
		return c
	}
	c.opts = append(c.opts, model.WithTemperature(cfg.Tuning.Temperature))
	if cfg.Tuning.MaxTokens > 0 {
		c.opts = append(c.opts, model.WithMaxTokens(cfg.Tuning.MaxTokens))
	}
	return c
}

// Complete sends prompt to the model and returns its reply.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	log := logging.FromContext(ctx)
	msgs := []*schema.Message{schema.UserMessage(prompt)}

	start := time.Now()
	log.Debug("provider: generate",
		slog.String("model", c.name),
		slog.Int("prompt_tokens_est", budget.EstimateMessages(msgs)),
	)
	reply, err := c.model.Generate(ctx, msgs, c.opts...)
	if err != nil {
		return "", fmt.Errorf("provider: generate: %w", err)
	}
	if reply == nil {
		return "", fmt.Errorf("provider: generate: empty reply")
	}
	log.Debug("provider: generated",
		slog.String("model", c.name),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("reply_tokens_est", budget.Estimate(reply.Content)),
	)
	return reply.Content, nil
}
