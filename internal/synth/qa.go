package synth

import (
	"context"
	"fmt"

	"github.com/54b3r/rugcheck-go/internal/prompt"
	"github.com/54b3r/rugcheck-go/internal/rag"
)

// QuestionRetriever returns ranked context for a question. *rag.BoundRetriever
// satisfies it.
type QuestionRetriever interface {
	Retrieve(ctx context.Context, question string) ([]rag.Hit, error)
}

// RetrievalQA is a "stuff" chain: it retrieves context for a question,
// stuffs it into the prompt template, and completes the result in one call.
type RetrievalQA struct {
	retriever   QuestionRetriever
	composer    *prompt.Composer
	synthesizer *Synthesizer
}

// NewRetrievalQA binds a retriever, composer, and synthesizer into a chain.
func NewRetrievalQA(r QuestionRetriever, c *prompt.Composer, s *Synthesizer) (*RetrievalQA, error) {
	if r == nil {
		return nil, fmt.Errorf("synth: retriever must not be nil")
	}
	if c == nil {
		return nil, fmt.Errorf("synth: composer must not be nil")
	}
	if s == nil {
		return nil, fmt.Errorf("synth: synthesizer must not be nil")
	}
	return &RetrievalQA{retriever: r, composer: c, synthesizer: s}, nil
}

// Call answers question. Retrieval and composition errors are returned as
// is; completion errors wrap [ErrGeneration].
func (qa *RetrievalQA) Call(ctx context.Context, question string) (*Answer, error) {
	hits, err := qa.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("synth: retrieve: %w", err)
	}
	p, err := qa.composer.Compose(ctx, question, hits)
	if err != nil {
		return nil, err
	}
	return qa.synthesizer.Synthesize(ctx, p)
}
