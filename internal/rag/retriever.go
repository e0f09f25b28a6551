package rag

import (
	"context"
	"fmt"
)

// DefaultTopK is the number of chunks retrieved when the caller passes 0.
const DefaultTopK = 4

// Retriever embeds questions and queries an Index. It holds no per-request
// state, so one Retriever serves every request.
type Retriever struct {
	// embedder converts the question to a dense vector.
	embedder Embedder

	// defaultTopK is the number of results to return when the caller passes 0.
	defaultTopK int
}

// NewRetriever constructs a Retriever from the given Embedder.
// defaultTopK sets the fallback result count when Retrieve is called with k=0.
func NewRetriever(embedder Embedder, defaultTopK int) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Retriever{embedder: embedder, defaultTopK: defaultTopK}, nil
}

// TopK returns the default result count.
func (r *Retriever) TopK() int { return r.defaultTopK }

// Retrieve embeds question and returns the k most similar chunks in idx,
// highest similarity first. If k is 0 the default is used.
func (r *Retriever) Retrieve(ctx context.Context, idx *Index, question string, k int) ([]Hit, error) {
	if idx == nil {
		return nil, fmt.Errorf("rag: index must not be nil")
	}
	if k <= 0 {
		k = r.defaultTopK
	}
	if idx.Len() == 0 {
		return nil, nil
	}

	embeddings, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding question: %w", ErrEmbedding, err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding for question, got %d", ErrEmbedding, len(embeddings))
	}

	hits, err := idx.Search(embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	return hits, nil
}

// Bind fixes idx and k so the result can be handed to a chain that only
// knows about questions.
func (r *Retriever) Bind(idx *Index, k int) *BoundRetriever {
	return &BoundRetriever{retriever: r, index: idx, k: k}
}

// BoundRetriever is a Retriever tied to one request's Index.
type BoundRetriever struct {
	retriever *Retriever
	index     *Index
	k         int
}

// Retrieve returns the top chunks for question from the bound index.
func (b *BoundRetriever) Retrieve(ctx context.Context, question string) ([]Hit, error) {
	return b.retriever.Retrieve(ctx, b.index, question, b.k)
}
