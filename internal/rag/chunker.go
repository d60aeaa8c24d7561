// Package rag holds the pure parts of the retrieval pipeline: chunking,
// chunk filtering, prompt assembly and the citation marker contract.
package rag

import "strings"

// Chunker defaults.
const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100
	DefaultMinLength    = 50
)

// Window is a raw slice of the input, addressed in characters (runes).
type Window struct {
	Start int
	End   int
	Text  string
}

// Chunker splits text into fixed-size overlapping character windows.
// It has no notion of word or sentence boundaries.
type Chunker struct {
	size      int
	overlap   int
	minLength int
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithChunkSize sets the window size in characters.
func WithChunkSize(size int) ChunkerOption {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets how many characters consecutive windows share.
func WithOverlap(overlap int) ChunkerOption {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinLength sets the trimmed length a chunk must exceed to be kept.
func WithMinLength(n int) ChunkerOption {
	return func(c *Chunker) {
		if n >= 0 {
			c.minLength = n
		}
	}
}

// NewChunker creates a chunker. An overlap that is not smaller than the
// size is reduced to a quarter of the size so the window always advances.
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		size:      DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		minLength: DefaultMinLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

// Size returns the window size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the window overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Windows returns the untrimmed windows covering text, in order.
func (c *Chunker) Windows(text string) []Window {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	windows := make([]Window, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, Window{Start: start, End: end, Text: string(runes[start:end])})
	}
	return windows
}

// Chunk returns the trimmed windows longer than the minimum length.
// Same input always yields the same output.
func (c *Chunker) Chunk(text string) []string {
	var chunks []string
	for _, w := range c.Windows(text) {
		trimmed := strings.TrimSpace(w.Text)
		if len([]rune(trimmed)) > c.minLength {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks
}
