package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Metadata is the JSON metadata stored alongside every document chunk.
type Metadata struct {
	Source string `json:"source"`
	Title  string `json:"title"`
	Chunk  int    `json:"chunk"`
}

// Value implements driver.Valuer so Metadata can be written to a jsonb column.
func (m Metadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for jsonb columns.
func (m *Metadata) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = Metadata{}
		return nil
	default:
		return errors.New("metadata: unsupported scan type")
	}
}

// DocumentRecord is a persisted chunk with its embedding.
type DocumentRecord struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Metadata  Metadata  `json:"metadata"`
	Embedding []float32 `json:"-"`
}

// RetrievalResult is a chunk returned by semantic search, including similarity score.
type RetrievalResult struct {
	Content    string  `json:"content"`
	Title      string  `json:"title"`
	SourceURL  string  `json:"source"`
	ChunkIndex int     `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// SourceCitation is the structured citation card returned by source lookup.
type SourceCitation struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	Similarity int    `json:"similarity"`
}
