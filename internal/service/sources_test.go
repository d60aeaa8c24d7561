package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
)

func TestDefaultSources(t *testing.T) {
	require.Len(t, DefaultSources, 27)

	urls := map[string]bool{}
	for _, s := range DefaultSources {
		assert.NotEmpty(t, s.Title)
		assert.True(t, strings.HasPrefix(s.URL, "https://www.cdc.gov/"), s.URL)
		assert.Equal(t, domain.SourceTypeHTML, s.Type)
		assert.False(t, urls[s.URL], "duplicate url %s", s.URL)
		urls[s.URL] = true
	}
}

func TestLoadSources_Default(t *testing.T) {
	sources, err := LoadSources("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSources, sources)

	sources[0].Title = "changed"
	assert.NotEqual(t, "changed", DefaultSources[0].Title)
}

func writeSources(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSources_File(t *testing.T) {
	path := writeSources(t, `
sources:
  - title: Local measles page
    url: http://localhost:8080/measles.html
  - title: A PDF
    url: http://localhost:8080/doc.pdf
    type: pdf
`)
	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, domain.SourceTypeHTML, sources[0].Type)
	assert.Equal(t, domain.SourceTypePDF, sources[1].Type)
}

func TestLoadSources_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty list":   "sources: []\n",
		"missing url":  "sources:\n  - title: x\n",
		"unknown type": "sources:\n  - title: x\n    url: http://x\n    type: docx\n",
		"bad yaml":     "sources: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSources(writeSources(t, body))
			assert.Error(t, err)
		})
	}

	_, err := LoadSources(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
