package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSplitter(t *testing.T, size, overlap int) *Splitter {
	t.Helper()
	s, err := New(WithChunkSize(size), WithChunkOverlap(overlap))
	require.NoError(t, err)
	return s
}

func collect(s *Splitter, text string) []Segment {
	var out []Segment
	for seg := range s.Segments(text) {
		out = append(out, seg)
	}
	return out
}

func reconstruct(segs []Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		b.WriteString(seg.Core())
	}
	return b.String()
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr string
	}{
		{name: "defaults"},
		{name: "zero size", opts: []Option{WithChunkSize(0)}, wantErr: "must be positive"},
		{name: "negative overlap", opts: []Option{WithChunkOverlap(-1)}, wantErr: "must not be negative"},
		{name: "overlap equals size", opts: []Option{WithChunkSize(10), WithChunkOverlap(10)}, wantErr: "must be smaller"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, err := New(tc.opts...)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, DefaultChunkSize, s.Size())
				assert.Equal(t, DefaultChunkOverlap, s.Overlap())
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSegments_EmptyInput(t *testing.T) {
	t.Parallel()

	s := mustSplitter(t, 100, 10)
	assert.Empty(t, collect(s, ""))
	assert.Empty(t, s.Split(""))
}

func TestSegments_ShorterThanSize(t *testing.T) {
	t.Parallel()

	s := mustSplitter(t, 100, 10)
	text := "a short piece of evidence"

	got := s.Split(text)
	require.Len(t, got, 1)
	assert.Equal(t, text, got[0])
}

func TestSegments_HardCutCount(t *testing.T) {
	t.Parallel()

	const size, overlap = 100, 20
	s := mustSplitter(t, size, overlap)
	text := strings.Repeat("abcdefghij", 100) // 1000 bytes, no boundaries

	segs := collect(s, text)

	// ceil(1000 / (100 - 20)) = 13
	assert.Len(t, segs, 13)
	for i, seg := range segs {
		assert.LessOrEqual(t, len(seg.Text), size, "segment %d too long", i)
		assert.Equal(t, i, seg.Index)
		if i > 0 {
			assert.Equal(t, overlap, seg.Overlap)
			prev := segs[i-1].Text
			assert.Equal(t, prev[len(prev)-overlap:], seg.Text[:overlap])
		}
	}
	assert.Equal(t, text, reconstruct(segs))
}

func TestSegments_RoundTrip(t *testing.T) {
	t.Parallel()

	para := "Rug pulls happen when developers abandon a project. " +
		"Liquidity is removed! Holders are left with worthless tokens? " +
		"Watch for mintable supply and hidden owners."
	text := strings.Repeat(para+"\n\n", 12)

	for _, cfg := range []struct{ size, overlap int }{
		{64, 0}, {64, 16}, {200, 40}, {512, 80},
	} {
		s := mustSplitter(t, cfg.size, cfg.overlap)
		segs := collect(s, text)
		require.NotEmpty(t, segs)
		assert.Equal(t, text, reconstruct(segs), "size=%d overlap=%d", cfg.size, cfg.overlap)
		for _, seg := range segs {
			assert.LessOrEqual(t, len(seg.Text), cfg.size)
			assert.Equal(t, text[seg.Start:seg.End], seg.Text)
		}
	}
}

func TestSegments_PrefersParagraphThenSentenceThenWord(t *testing.T) {
	t.Parallel()

	t.Run("paragraph", func(t *testing.T) {
		t.Parallel()
		s := mustSplitter(t, 40, 0)
		text := "First paragraph. Still first.\n\nSecond paragraph here."
		got := s.Split(text)
		require.NotEmpty(t, got)
		assert.Equal(t, "First paragraph. Still first.\n\n", got[0])
	})

	t.Run("sentence", func(t *testing.T) {
		t.Parallel()
		s := mustSplitter(t, 30, 0)
		text := "One sentence here. Another sentence follows on."
		got := s.Split(text)
		require.NotEmpty(t, got)
		assert.Equal(t, "One sentence here. ", got[0])
	})

	t.Run("word", func(t *testing.T) {
		t.Parallel()
		s := mustSplitter(t, 12, 0)
		text := "alpha beta gamma delta"
		got := s.Split(text)
		require.NotEmpty(t, got)
		assert.Equal(t, "alpha beta ", got[0])
	})
}

func TestSegments_Deterministic(t *testing.T) {
	t.Parallel()

	s := mustSplitter(t, 50, 10)
	text := strings.Repeat("token holders liquidity. ", 30)

	first := s.Split(text)
	for range 5 {
		assert.Equal(t, first, s.Split(text))
	}
}

func TestSegments_Restartable(t *testing.T) {
	t.Parallel()

	s := mustSplitter(t, 20, 5)
	seq := s.Segments(strings.Repeat("xyz ", 20))

	var a, b []string
	for seg := range seq {
		a = append(a, seg.Text)
	}
	for seg := range seq {
		b = append(b, seg.Text)
	}
	assert.Equal(t, a, b)
}

func TestSegments_EarlyStop(t *testing.T) {
	t.Parallel()

	s := mustSplitter(t, 10, 0)
	n := 0
	for range s.Segments(strings.Repeat("a", 100)) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestSegments_MultiByteHardCut(t *testing.T) {
	t.Parallel()

	s := mustSplitter(t, 10, 3)
	text := strings.Repeat("é", 40) // 2 bytes per rune, no boundaries

	segs := collect(s, text)
	for _, seg := range segs {
		assert.True(t, utf8.ValidString(seg.Text), "segment %d splits a rune", seg.Index)
	}
	assert.Equal(t, text, reconstruct(segs))
}

func TestSegments_NeverExceedSize(t *testing.T) {
	t.Parallel()

	texts := map[string]string{
		"euro":    strings.Repeat("€", 50), // 3-byte runes
		"emoji":   strings.Repeat("🪙", 30), // 4-byte runes
		"mixed":   strings.Repeat("a€é🪙 ", 20),
		"invalid": strings.Repeat("\x80", 40),
	}
	configs := []struct{ size, overlap int }{
		{4, 3}, {5, 3}, {6, 4}, {7, 6}, {10, 3},
	}
	for name, text := range texts {
		for _, cfg := range configs {
			s := mustSplitter(t, cfg.size, cfg.overlap)
			segs := collect(s, text)
			require.NotEmpty(t, segs)
			for _, seg := range segs {
				assert.LessOrEqual(t, len(seg.Text), cfg.size,
					"%s size=%d overlap=%d segment %d", name, cfg.size, cfg.overlap, seg.Index)
			}
			assert.Equal(t, text, reconstruct(segs), "%s size=%d overlap=%d", name, cfg.size, cfg.overlap)
		}
	}
}
