package domain

// SourceType is the content type a Source is expected to serve.
type SourceType string

// Source types.
const (
	SourceTypeHTML SourceType = "html"
	SourceTypePDF  SourceType = "pdf"
)

// Source is a named remote document ingested into the knowledge base.
// The list is fixed at deploy time and never edited at run time.
type Source struct {
	Title string     `json:"title" yaml:"title"`
	URL   string     `json:"url"   yaml:"url"`
	Type  SourceType `json:"type"  yaml:"type"`
}

// IngestSummary is the outcome of a full ingestion run.
type IngestSummary struct {
	Total       int `json:"total"`
	Processed   int `json:"processed"`
	Skipped     int `json:"skipped"`
	TotalChunks int `json:"total_chunks"`
}

// SourceReport describes what happened to a single source during ingestion.
type SourceReport struct {
	Source   Source `json:"source"`
	Chunks   int    `json:"chunks"`
	Dropped  int    `json:"dropped"`
	Chars    int    `json:"chars"`
	Skipped  bool   `json:"skipped"`
	Error    string `json:"error,omitempty"`
	Position int    `json:"position"`
}
