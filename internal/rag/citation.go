package rag

import (
	"fmt"
	"regexp"
	"strconv"
)

// CitationFormatVersion identifies the marker grammar shared with UI parsers.
// Bump it whenever CitationPattern changes.
const CitationFormatVersion = "v1"

// CitationPattern matches a marker of the form [Source N: Title].
// Group 1 is N, group 2 is the title.
const CitationPattern = `\[Source (\d+): ([^\]]+)\]`

var citationRe = regexp.MustCompile(CitationPattern)

// Citation is a parsed marker.
type Citation struct {
	Number int
	Title  string
	Start  int
	End    int
}

// FormatCitation renders the marker for block n.
func FormatCitation(n int, title string) string {
	return fmt.Sprintf("[Source %d: %s]", n, title)
}

// ParseCitations returns every marker in text, in order of appearance.
func ParseCitations(text string) []Citation {
	matches := citationRe.FindAllStringSubmatchIndex(text, -1)
	out := make([]Citation, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		out = append(out, Citation{Number: n, Title: text[m[4]:m[5]], Start: m[0], End: m[1]})
	}
	return out
}
