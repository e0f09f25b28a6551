package rag

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/54b3r/rugcheck-go/internal/chunker"
)

// ChunkText splits text with s and tags every segment with origin and source.
// Empty text yields no chunks.
func ChunkText(s *chunker.Splitter, text string, origin Origin, source string) []Chunk {
	var out []Chunk
	for seg := range s.Segments(text) {
		out = append(out, Chunk{
			ID:       ChunkID(origin, source, seg.Index),
			Text:     seg.Text,
			Origin:   origin,
			Source:   source,
			Position: seg.Index,
		})
	}
	return out
}

// ChunkID builds the identifier for the chunk at position within source.
func ChunkID(origin Origin, source string, position int) string {
	return fmt.Sprintf("%s:%s#%d", origin, source, position)
}

// CacheKey returns the content key an EmbeddingCache stores text under.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
