// Package chunker splits text into bounded, overlapping segments for
// embedding. Break points prefer paragraph, then sentence, then word
// boundaries, and fall back to a hard cut only when a window contains none.
//
// Segments are byte ranges of the input, so dropping each segment's overlap
// prefix and concatenating the rest reproduces the input exactly. No segment
// is ever longer than the chunk size. Hard cuts back off to a rune boundary;
// only when the non-overlapping part of a window holds none (chunk size minus
// overlap below [utf8.UTFMax], or invalid UTF-8) does a cut split a rune.
package chunker

import (
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the maximum segment length in bytes.
	DefaultChunkSize = 2048
	// DefaultChunkOverlap is the number of bytes adjacent segments share.
	DefaultChunkOverlap = 80
)

// boundaryTiers lists separators from most to least preferred. A break is
// placed just after the separator so it stays with the preceding segment.
var boundaryTiers = [][]string{
	{"\n\n"},
	{". ", "! ", "? ", ".\n", "!\n", "?\n"},
	{" ", "\n", "\t"},
}

// Segment is one chunk of a larger text.
type Segment struct {
	// Text is the segment content, including its overlap prefix.
	Text string
	// Index is the zero-based position of the segment in its sequence.
	Index int
	// Start and End are the byte offsets of Text within the input.
	Start, End int
	// Overlap is the length of the prefix shared with the previous segment.
	Overlap int
}

// Core returns the part of the segment not shared with its predecessor.
func (s Segment) Core() string {
	return s.Text[s.Overlap:]
}

// Splitter produces segments for a fixed size and overlap. It holds no
// per-call state and is safe for concurrent use.
type Splitter struct {
	size    int
	overlap int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the maximum segment length in bytes.
func WithChunkSize(n int) Option {
	return func(s *Splitter) { s.size = n }
}

// WithChunkOverlap sets the number of bytes shared by adjacent segments.
func WithChunkOverlap(n int) Option {
	return func(s *Splitter) { s.overlap = n }
}

// New constructs a Splitter. The overlap must be non-negative and strictly
// smaller than the chunk size.
func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(s)
	}
	if s.size <= 0 {
		return nil, fmt.Errorf("chunker: chunk size must be positive, got %d", s.size)
	}
	if s.overlap < 0 {
		return nil, fmt.Errorf("chunker: chunk overlap must not be negative, got %d", s.overlap)
	}
	if s.overlap >= s.size {
		return nil, fmt.Errorf("chunker: chunk overlap (%d) must be smaller than chunk size (%d)", s.overlap, s.size)
	}
	return s, nil
}

// Size returns the configured chunk size.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the configured chunk overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Segments returns a lazy sequence over the segments of text. Each call to
// the returned function starts from the beginning of text.
func (s *Splitter) Segments(text string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		start, prevEnd := 0, 0
		for idx := 0; start < len(text); idx++ {
			end := len(text)
			if end-start > s.size {
				end = s.breakPoint(text, start)
			}

			seg := Segment{
				Text:    text[start:end],
				Index:   idx,
				Start:   start,
				End:     end,
				Overlap: max(prevEnd-start, 0),
			}
			if !yield(seg) {
				return
			}
			if end == len(text) {
				return
			}

			prevEnd = end
			start = s.nextStart(text, end)
		}
	}
}

// Split collects every segment text of text.
func (s *Splitter) Split(text string) []string {
	var out []string
	for seg := range s.Segments(text) {
		out = append(out, seg.Text)
	}
	return out
}

// breakPoint picks the end offset of the segment starting at start. The
// result lies in (start+overlap, start+size] so every step makes progress.
func (s *Splitter) breakPoint(text string, start int) int {
	limit := start + s.size
	window := text[start:limit]
	floor := start + s.overlap

	for _, tier := range boundaryTiers {
		best := -1
		for _, sep := range tier {
			if i := strings.LastIndex(window, sep); i >= 0 {
				best = max(best, start+i+len(sep))
			}
		}
		if best > floor {
			return best
		}
	}

	// Hard cut, backed off to a rune boundary when possible.
	end := limit
	for end > floor && !utf8.RuneStart(text[end]) {
		end--
	}
	if end <= floor {
		return limit
	}
	return end
}

// nextStart returns where the segment following one that ends at end begins.
func (s *Splitter) nextStart(text string, end int) int {
	next := end - s.overlap
	for next < end && !utf8.RuneStart(text[next]) {
		next++
	}
	return next
}
