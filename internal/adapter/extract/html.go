// Package extract fetches source documents and reduces them to plain text.
package extract

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

const (
	// DefaultTimeout bounds a single source fetch.
	DefaultTimeout = 30 * time.Second
	// MaxReadSize caps the bytes read from one response (5MB).
	MaxReadSize = int64(5 * 1024 * 1024)
	// UserAgent identifies the ingestion job to source hosts.
	UserAgent = "vitaldocs-ingest/1.0"
)

// boilerplateSelector lists markup removed before text extraction.
const boilerplateSelector = "nav, footer, header, script, style, noscript, .nav, .footer, .header"

// contentSelectors are tried in order; the first that matches supplies the text.
var contentSelectors = []string{"main", "article", ".content", "body"}

// HTMLExtractor implements port.Extractor for HTML pages.
type HTMLExtractor struct {
	client *http.Client
}

var _ port.Extractor = (*HTMLExtractor)(nil)

// NewHTMLExtractor returns an extractor. A nil client gets DefaultTimeout.
func NewHTMLExtractor(client *http.Client) *HTMLExtractor {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTMLExtractor{client: client}
}

// Extract fetches src and returns its normalized visible text.
func (e *HTMLExtractor) Extract(ctx context.Context, src domain.Source) (string, error) {
	if src.Type == domain.SourceTypePDF {
		return "", &port.UnsupportedFormatError{URL: src.URL, ContentType: "application/pdf"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return "", &port.FetchError{URL: src.URL, Err: err}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", &port.FetchError{URL: src.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &port.FetchError{URL: src.URL, StatusCode: resp.StatusCode}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !isHTML(ct) {
		return "", &port.UnsupportedFormatError{URL: src.URL, ContentType: ct}
	}

	text, err := ExtractText(io.LimitReader(resp.Body, MaxReadSize))
	if err != nil {
		return "", &port.FetchError{URL: src.URL, Err: fmt.Errorf("parse html: %w", err)}
	}
	return text, nil
}

// ExtractText strips boilerplate from an HTML document and returns the text
// of its main content region with whitespace runs collapsed.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	doc.Find(boilerplateSelector).Remove()

	var sel *goquery.Selection
	for _, s := range contentSelectors {
		if found := doc.Find(s); found.Length() > 0 {
			sel = found
			break
		}
	}
	if sel == nil {
		sel = doc.Selection
	}

	return strings.Join(strings.Fields(sel.Text()), " "), nil
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}
