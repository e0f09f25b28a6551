// Package corpus loads the static reference documents that accompany every
// rug check. Documents are read, normalised, and chunked once at startup into
// an immutable [ReferenceCorpus] that requests share without locking.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/54b3r/rugcheck-go/internal/chunker"
	"github.com/54b3r/rugcheck-go/internal/logging"
	"github.com/54b3r/rugcheck-go/internal/rag"
)

// ErrReferenceLoad marks a reference document that could not be used. It is
// never fatal: the corpus is built from the documents that did load.
var ErrReferenceLoad = errors.New("corpus: reference document load failed")

// Document is the extracted text of one reference document.
type Document struct {
	// Source names the document in chunk metadata, usually its base file name.
	Source string
	// Text is the extracted, normalised content.
	Text string
}

// DocumentStats summarises one document in the corpus.
type DocumentStats struct {
	Source string
	Bytes  int
	Chunks int
}

// ReferenceCorpus is the chunked reference material. It is never modified
// after construction.
type ReferenceCorpus struct {
	chunks   []rag.Chunk
	stats    []DocumentStats
	warnings []error
}

// Load extracts and chunks every path in order. A document that cannot be
// read or yields no text is skipped and recorded as a warning wrapping
// [ErrReferenceLoad]; Load itself always returns a usable corpus.
func Load(ctx context.Context, s *chunker.Splitter, paths ...string) *ReferenceCorpus {
	log := logging.FromContext(ctx)

	var (
		docs     []Document
		warnings []error
		seen     = make(map[string]bool, len(paths))
		names    = make(map[string]bool, len(paths))
	)
	for _, path := range paths {
		if path == "" {
			continue
		}
		clean := filepath.ToSlash(filepath.Clean(path))
		if seen[clean] {
			warnings = append(warnings, fmt.Errorf("%w: %s: listed more than once", ErrReferenceLoad, path))
			continue
		}
		seen[clean] = true
		raw, err := extractorFor(path)(path)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%w: %s: %w", ErrReferenceLoad, path, err))
			continue
		}
		text := normalize(raw)
		if text == "" {
			warnings = append(warnings, fmt.Errorf("%w: %s: no text extracted", ErrReferenceLoad, path))
			continue
		}
		// Sources are short base names unless two documents share one.
		name := filepath.Base(path)
		if names[name] {
			name = clean
		}
		names[name] = true
		docs = append(docs, Document{Source: name, Text: text})
	}

	c := FromDocuments(s, docs...)
	c.warnings = warnings

	for _, w := range warnings {
		log.Warn("corpus: reference document skipped", slog.String("error", w.Error()))
	}
	log.Info("corpus: reference corpus loaded",
		slog.Int("documents", len(c.stats)),
		slog.Int("chunks", len(c.chunks)),
		slog.Int("skipped", len(warnings)),
	)
	return c
}

// FromDocuments chunks already-extracted documents into a corpus. A source
// name used by an earlier document gets a " (n)" suffix so that chunk IDs
// stay unique across the corpus.
func FromDocuments(s *chunker.Splitter, docs ...Document) *ReferenceCorpus {
	c := &ReferenceCorpus{}
	used := make(map[string]bool, len(docs))
	for _, d := range docs {
		source := d.Source
		for n := 2; used[source]; n++ {
			source = fmt.Sprintf("%s (%d)", d.Source, n)
		}
		used[source] = true
		d.Source = source

		chunks := rag.ChunkText(s, d.Text, rag.OriginReference, d.Source)
		c.chunks = append(c.chunks, chunks...)
		c.stats = append(c.stats, DocumentStats{Source: d.Source, Bytes: len(d.Text), Chunks: len(chunks)})
	}
	return c
}

// Chunks returns a copy of the reference chunks in load order.
func (c *ReferenceCorpus) Chunks() []rag.Chunk {
	if c == nil {
		return nil
	}
	return slices.Clone(c.chunks)
}

// Len returns the number of reference chunks.
func (c *ReferenceCorpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.chunks)
}

// Stats returns per-document chunk counts.
func (c *ReferenceCorpus) Stats() []DocumentStats {
	if c == nil {
		return nil
	}
	return slices.Clone(c.stats)
}

// Warnings returns the load failures recorded by Load.
func (c *ReferenceCorpus) Warnings() []error {
	if c == nil {
		return nil
	}
	return slices.Clone(c.warnings)
}
