package rag

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/54b3r/rugcheck-go/internal/logging"
)

// ErrEmbedding reports that the embedding service failed or returned output
// the index cannot use. A failed build never yields a partial index.
var ErrEmbedding = errors.New("rag: embedding service failure")

// ErrChunkConflict reports two chunks that share an ID but not their text.
// Keeping either one would silently drop evidence, so the build fails.
var ErrChunkConflict = errors.New("rag: conflicting chunks share an id")

const (
	// DefaultBatchSize is the number of chunk texts sent per Embed call.
	DefaultBatchSize = 16
	// DefaultConcurrency bounds the number of Embed calls in flight.
	DefaultConcurrency = 4
)

// entry pairs a chunk with its unit-length embedding.
type entry struct {
	chunk Chunk
	vec   []float32
}

// Index is an immutable in-memory similarity index over one request's
// chunks. It is safe for concurrent reads and is never persisted.
type Index struct {
	entries []entry
	dim     int
}

// BuildOption configures BuildIndex.
type BuildOption func(*buildConfig)

type buildConfig struct {
	batchSize   int
	concurrency int
	cache       EmbeddingCache
}

// WithBatchSize sets how many chunk texts go into one Embed call.
func WithBatchSize(n int) BuildOption {
	return func(c *buildConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithConcurrency bounds the number of Embed calls in flight.
func WithConcurrency(n int) BuildOption {
	return func(c *buildConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithCache consults cache for reference chunks before embedding them and
// stores freshly computed reference vectors afterwards. Profile chunks are
// always embedded because their text changes with the underlying data.
func WithCache(cache EmbeddingCache) BuildOption {
	return func(c *buildConfig) { c.cache = cache }
}

// BuildIndex embeds chunks and returns an index holding each distinct chunk
// exactly once. A chunk identical to an earlier one (same ID and text) is
// skipped; a chunk reusing an earlier ID with different text fails the build
// with [ErrChunkConflict].
//
// Embedding runs in parallel batches. The first failure cancels the remaining
// batches and the whole build fails with an error wrapping [ErrEmbedding].
func BuildIndex(ctx context.Context, emb Embedder, chunks []Chunk, opts ...BuildOption) (*Index, error) {
	if emb == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	cfg := buildConfig{batchSize: DefaultBatchSize, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := logging.FromContext(ctx)

	unique, err := dedupe(chunks)
	if err != nil {
		return nil, err
	}
	if len(unique) < len(chunks) {
		log.Debug("rag: skipped duplicate chunks", slog.Int("duplicates", len(chunks)-len(unique)))
	}

	vecs := make([][]float32, len(unique))
	if cfg.cache != nil {
		fillFromCache(ctx, cfg.cache, unique, vecs)
	}

	var pending, cached []int
	for i := range unique {
		if vecs[i] == nil {
			pending = append(pending, i)
		} else {
			cached = append(cached, i)
		}
	}
	if err := embedBatches(ctx, emb, cfg, unique, pending, vecs); err != nil {
		return nil, err
	}

	// A cached vector is only a hint: one that no longer matches what the
	// embedder produces is re-embedded and overwritten.
	freshDim := 0
	if len(pending) > 0 {
		freshDim = len(vecs[pending[0]])
	}
	if stale := staleVectors(vecs, cached, freshDim); len(stale) > 0 {
		log.Warn("rag: discarding stale cached embeddings",
			slog.Int("stale", len(stale)),
			slog.Int("dimensions", freshDim),
		)
		for _, i := range stale {
			vecs[i] = nil
		}
		if err := embedBatches(ctx, emb, cfg, unique, stale, vecs); err != nil {
			return nil, err
		}
		pending = append(pending, stale...)
	}

	idx := &Index{entries: make([]entry, len(unique))}
	for i, c := range unique {
		unit, err := normalize(vecs[i])
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %s: %w", ErrEmbedding, c.ID, err)
		}
		if idx.dim == 0 {
			idx.dim = len(unit)
		} else if len(unit) != idx.dim {
			return nil, fmt.Errorf("%w: chunk %s has dimension %d, want %d", ErrEmbedding, c.ID, len(unit), idx.dim)
		}
		idx.entries[i] = entry{chunk: c, vec: unit}
	}

	if cfg.cache != nil {
		storeInCache(ctx, cfg.cache, unique, vecs, pending)
	}

	log.Debug("rag: index built",
		slog.Int("chunks", len(idx.entries)),
		slog.Int("embedded", len(pending)),
		slog.Int("dimensions", idx.dim),
	)
	return idx, nil
}

// embedBatches embeds the chunks at positions todo into vecs, in parallel
// batches. The first failure cancels the batches still running.
func embedBatches(ctx context.Context, emb Embedder, cfg buildConfig, chunks []Chunk, todo []int, vecs [][]float32) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)
	for start := 0; start < len(todo); start += cfg.batchSize {
		batch := todo[start:min(start+cfg.batchSize, len(todo))]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for j, idx := range batch {
				texts[j] = chunks[idx].Text
			}
			out, err := emb.Embed(gctx, texts)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrEmbedding, err)
			}
			if len(out) != len(texts) {
				return fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbedding, len(texts), len(out))
			}
			for j, idx := range batch {
				vecs[idx] = out[j]
			}
			return nil
		})
	}
	return g.Wait()
}

// staleVectors returns the positions in cached whose vectors cannot be used
// next to freshly embedded ones of dimension dim. With nothing freshly
// embedded (dim 0) the cached vectors must agree among themselves, otherwise
// all of them are stale. Vectors with no direction are always stale.
func staleVectors(vecs [][]float32, cached []int, dim int) []int {
	var stale []int
	if dim == 0 {
		for _, i := range cached {
			if _, err := normalize(vecs[i]); err != nil || len(vecs[i]) != len(vecs[cached[0]]) {
				return slices.Clone(cached)
			}
		}
		return nil
	}
	for _, i := range cached {
		if _, err := normalize(vecs[i]); err != nil || len(vecs[i]) != dim {
			stale = append(stale, i)
		}
	}
	return stale
}

// Len returns the number of chunks in the index.
func (ix *Index) Len() int { return len(ix.entries) }

// Dimensions returns the embedding dimensionality, or 0 for an empty index.
func (ix *Index) Dimensions() int { return ix.dim }

// Chunks returns the indexed chunks in insertion order.
func (ix *Index) Chunks() []Chunk {
	out := make([]Chunk, len(ix.entries))
	for i, e := range ix.entries {
		out[i] = e.chunk
	}
	return out
}

// Search returns the k chunks most similar to query by cosine similarity,
// highest first. Equal scores keep insertion order. When the index holds
// fewer than k chunks, all of them are returned. Search does not modify the
// index.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	if k <= 0 || len(ix.entries) == 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("rag: query has dimension %d, index has %d", len(query), ix.dim)
	}
	q, err := normalize(query)
	if err != nil {
		return nil, fmt.Errorf("rag: query: %w", err)
	}

	hits := make([]Hit, len(ix.entries))
	for i, e := range ix.entries {
		hits[i] = Hit{Chunk: e.chunk, Score: dot(q, e.vec)}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return hits[:min(k, len(hits))], nil
}

// dedupe drops exact repeats, keeping first occurrences.
func dedupe(chunks []Chunk) ([]Chunk, error) {
	seen := make(map[string]string, len(chunks))
	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if text, ok := seen[c.ID]; ok {
			if text != c.Text {
				return nil, fmt.Errorf("%w: %s", ErrChunkConflict, c.ID)
			}
			continue
		}
		seen[c.ID] = c.Text
		out = append(out, c)
	}
	return out, nil
}

// normalize returns a unit-length copy of v. Empty, zero, and non-finite
// vectors are rejected because they have no direction to compare.
func normalize(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, errors.New("empty vector")
	}
	var sum float64
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errors.New("vector contains non-finite values")
		}
		sum += f * f
	}
	if sum == 0 {
		return nil, errors.New("zero vector")
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

func dot(a, b []float32) float32 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return float32(s)
}

// fillFromCache copies cached vectors for reference chunks into vecs.
func fillFromCache(ctx context.Context, cache EmbeddingCache, chunks []Chunk, vecs [][]float32) {
	var keys []string
	for _, c := range chunks {
		if c.Origin == OriginReference {
			keys = append(keys, CacheKey(c.Text))
		}
	}
	if len(keys) == 0 {
		return
	}
	found, err := cache.Lookup(ctx, keys)
	if err != nil {
		logging.FromContext(ctx).Warn("rag: embedding cache lookup failed", slog.String("error", err.Error()))
		return
	}
	for i, c := range chunks {
		if c.Origin != OriginReference {
			continue
		}
		if v, ok := found[CacheKey(c.Text)]; ok && len(v) > 0 {
			vecs[i] = v
		}
	}
}

// storeInCache saves the freshly embedded reference vectors listed in pending.
func storeInCache(ctx context.Context, cache EmbeddingCache, chunks []Chunk, vecs [][]float32, pending []int) {
	var (
		keys []string
		out  [][]float32
	)
	for _, i := range pending {
		if chunks[i].Origin == OriginReference {
			keys = append(keys, CacheKey(chunks[i].Text))
			out = append(out, vecs[i])
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := cache.Store(ctx, keys, out); err != nil {
		logging.FromContext(ctx).Warn("rag: embedding cache store failed", slog.String("error", err.Error()))
	}
}
