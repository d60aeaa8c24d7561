package rag

import "strings"

// Readability rejects chunks that look like navigation debris or encoding
// garbage that survived HTML stripping.
type Readability struct {
	MaxNonASCIIRatio float64
	MinWords         int
}

// DefaultReadability is the filter used by ingestion unless configured otherwise.
var DefaultReadability = Readability{MaxNonASCIIRatio: 0.05, MinWords: 5}

// Accept reports whether chunk is readable text.
func (r Readability) Accept(chunk string) bool {
	total, nonASCII := 0, 0
	for _, ch := range chunk {
		total++
		if ch > 127 {
			nonASCII++
		}
	}
	if total == 0 {
		return false
	}
	if float64(nonASCII)/float64(total) > r.MaxNonASCIIRatio {
		return false
	}
	return len(strings.Fields(chunk)) >= r.MinWords
}

// Filter keeps the readable chunks and returns how many were dropped.
func (r Readability) Filter(chunks []string) ([]string, int) {
	kept := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if r.Accept(c) {
			kept = append(kept, c)
		}
	}
	return kept, len(chunks) - len(kept)
}
