package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadability_Accept(t *testing.T) {
	r := DefaultReadability

	t.Run("mostly non-ASCII is rejected", func(t *testing.T) {
		chunk := strings.Repeat("ü", 8) + "ab" // 80% non-ASCII
		assert.False(t, r.Accept(chunk))
	})

	t.Run("four words are rejected", func(t *testing.T) {
		assert.False(t, r.Accept("only four words here"))
	})

	t.Run("ten ascii words of length sixty are accepted", func(t *testing.T) {
		chunk := "alpha bravo charl delta echoo foxtr golfs hotel india julie"
		assert.Len(t, chunk, 59)
		chunk += "t"
		assert.Len(t, chunk, 60)
		assert.Len(t, strings.Fields(chunk), 10)
		assert.True(t, r.Accept(chunk))
	})

	t.Run("ratio at the limit is accepted", func(t *testing.T) {
		// 1 non-ASCII rune out of 20 = exactly 5%
		chunk := "é" + "aaa bbb ccc ddd eee"
		assert.Equal(t, 20, len([]rune(chunk)))
		assert.True(t, r.Accept(chunk))
	})

	t.Run("empty is rejected", func(t *testing.T) {
		assert.False(t, r.Accept(""))
	})
}

func TestReadability_Filter(t *testing.T) {
	r := Readability{MaxNonASCIIRatio: 0.05, MinWords: 5}
	kept, dropped := r.Filter([]string{
		"this chunk has plenty of plain words",
		"too short",
		"ÄÖÜ ÄÖÜ ÄÖÜ ÄÖÜ ÄÖÜ ÄÖÜ",
	})
	assert.Equal(t, []string{"this chunk has plenty of plain words"}, kept)
	assert.Equal(t, 2, dropped)
}
