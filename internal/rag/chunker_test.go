package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleText(n int) string {
	const alphabet = "abcdefghij klmnopqrst uvwxyz ABCDE FGHIJ KLMNO PQRST UVWXYZ 0123456789 "
	var sb strings.Builder
	for sb.Len() < n {
		sb.WriteString(alphabet)
	}
	return sb.String()[:n]
}

func TestNewChunker(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewChunker()
		assert.Equal(t, DefaultChunkSize, c.Size())
		assert.Equal(t, DefaultChunkOverlap, c.Overlap())
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		c := NewChunker(WithChunkSize(100), WithOverlap(150))
		assert.Less(t, c.Overlap(), c.Size())
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		c := NewChunker(WithChunkSize(0), WithOverlap(-1), WithMinLength(-3))
		assert.Equal(t, DefaultChunkSize, c.Size())
		assert.Equal(t, DefaultChunkOverlap, c.Overlap())
		assert.Equal(t, DefaultMinLength, c.minLength)
	})
}

func TestChunker_EmptyInput(t *testing.T) {
	c := NewChunker()
	assert.Empty(t, c.Windows(""))
	assert.Empty(t, c.Chunk(""))
}

func TestChunker_850CharsYieldsTwoChunks(t *testing.T) {
	text := sampleText(850)
	c := NewChunker(WithChunkSize(800), WithOverlap(100))

	windows := c.Windows(text)
	require.Len(t, windows, 2)
	assert.Equal(t, 0, windows[0].Start)
	assert.Equal(t, 800, windows[0].End)
	assert.Equal(t, 700, windows[1].Start)
	assert.Equal(t, 850, windows[1].End)

	chunks := c.Chunk(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.TrimSpace(text[:800]), chunks[0])
	assert.Equal(t, strings.TrimSpace(text[700:]), chunks[1])
}

func TestChunker_WindowsCoverEveryCharacter(t *testing.T) {
	cases := []struct {
		length, size, overlap int
	}{
		{1, 10, 2},
		{99, 10, 3},
		{1000, 800, 100},
		{2500, 300, 0},
		{777, 64, 63},
	}
	for _, tc := range cases {
		text := sampleText(tc.length)
		c := NewChunker(WithChunkSize(tc.size), WithOverlap(tc.overlap))
		windows := c.Windows(text)
		require.NotEmpty(t, windows)

		covered := make([]bool, tc.length)
		for i, w := range windows {
			assert.LessOrEqual(t, w.End-w.Start, tc.size, "window exceeds size")
			assert.Equal(t, text[w.Start:w.End], w.Text)
			if i > 0 {
				assert.Equal(t, windows[i-1].Start+tc.size-tc.overlap, w.Start, "window does not advance by size-overlap")
			}
			for j := w.Start; j < w.End; j++ {
				covered[j] = true
			}
		}
		for i, ok := range covered {
			assert.True(t, ok, "character %d not covered (len=%d size=%d overlap=%d)", i, tc.length, tc.size, tc.overlap)
		}
		assert.Equal(t, tc.length, windows[len(windows)-1].End)
	}
}

func TestChunker_Deterministic(t *testing.T) {
	text := sampleText(5000)
	c := NewChunker(WithChunkSize(300), WithOverlap(40))
	assert.Equal(t, c.Chunk(text), c.Chunk(text))
}

func TestChunker_DropsShortFragments(t *testing.T) {
	// 810 chars: the tail window holds only 110 chars of which 100 are whitespace.
	text := sampleText(700) + strings.Repeat(" ", 100) + "short tail"
	c := NewChunker(WithChunkSize(800), WithOverlap(100))

	chunks := c.Chunk(text)
	require.Len(t, chunks, 1)
	assert.False(t, strings.HasSuffix(chunks[0], " "), "chunks are trimmed")
}

func TestChunker_MinLengthIsExclusive(t *testing.T) {
	c := NewChunker(WithChunkSize(800), WithOverlap(100), WithMinLength(50))
	assert.Empty(t, c.Chunk(strings.Repeat("x", 50)))
	assert.Len(t, c.Chunk(strings.Repeat("x", 51)), 1)
}

func TestChunker_CountsCharactersNotBytes(t *testing.T) {
	text := strings.Repeat("é", 120)
	c := NewChunker(WithChunkSize(100), WithOverlap(0), WithMinLength(0))

	windows := c.Windows(text)
	require.Len(t, windows, 2)
	assert.Equal(t, 100, len([]rune(windows[0].Text)))
	assert.Equal(t, 20, len([]rune(windows[1].Text)))
}
