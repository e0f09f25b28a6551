// Package rag holds the retrieval half of the pipeline: evidence chunks, the
// per-request similarity index, and the retriever that queries it. Embedding
// backends satisfy [Embedder] so the index never depends on a specific
// provider.
package rag

import (
	"context"
)

// Origin tags where a chunk's text came from.
type Origin string

const (
	// OriginProfile marks chunks derived from a formatted token profile.
	OriginProfile Origin = "profile"
	// OriginReference marks chunks derived from a reference document.
	OriginReference Origin = "reference"
)

// Chunk is an immutable unit of retrievable text.
type Chunk struct {
	// ID is unique within one index. It is derived from origin, source, and
	// position so it is stable across requests.
	ID string

	// Text is the chunk content, including any overlap with its predecessor.
	Text string

	// Origin tags the chunk as profile or reference evidence.
	Origin Origin

	// Source names the document or token the chunk was cut from.
	Source string

	// Position is the zero-based index of the chunk within its source.
	Position int
}

// Hit is a chunk returned by retrieval together with its similarity score.
type Hit struct {
	Chunk Chunk

	// Score is the cosine similarity between the chunk and the question, in
	// [-1, 1]. Higher is closer.
	Score float32
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingCache stores vectors for chunk texts between requests. Keys come
// from [CacheKey]. A cache is an optimisation only: BuildIndex treats cache
// errors as misses.
type EmbeddingCache interface {
	// Lookup returns the cached vectors for the keys it knows. Unknown keys
	// are absent from the result.
	Lookup(ctx context.Context, keys []string) (map[string][]float32, error)

	// Store saves vectors[i] under keys[i].
	Store(ctx context.Context, keys []string, vectors [][]float32) error
}
