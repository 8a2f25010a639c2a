// ABOUTME: Fetched documents and feed entries used during a single discovery/extraction pass
// ABOUTME: These values are ephemeral and never persisted

package domain

import (
	"bytes"
	"strings"
	"time"
)

// DocumentKind tells the pipeline how a fetched document should be interpreted.
type DocumentKind string

const (
	DocumentKindFeed        DocumentKind = "feed"
	DocumentKindSitemap     DocumentKind = "sitemap"
	DocumentKindArticleHTML DocumentKind = "article_html"
)

// RawDocument is the body fetched for one URL.
type RawDocument struct {
	URL        string
	FinalURL   string
	Kind       DocumentKind
	Body       []byte
	StatusCode int
}

// Text returns the body as a string.
func (d *RawDocument) Text() string {
	if d == nil {
		return ""
	}
	return string(d.Body)
}

// FeedEntry is one item of an RSS/Atom document.
type FeedEntry struct {
	URL         string
	PublishedAt *time.Time
	Author      string
	Title       string
	Summary     string
}

// SniffKind guesses the document kind from the content type and the first bytes of the body.
func SniffKind(contentType string, body []byte) DocumentKind {
	ct := strings.ToLower(contentType)
	head := bytes.ToLower(bytes.TrimSpace(body))
	if len(head) > 512 {
		head = head[:512]
	}
	switch {
	case bytes.Contains(head, []byte("<urlset")) || bytes.Contains(head, []byte("<sitemapindex")):
		return DocumentKindSitemap
	case bytes.Contains(head, []byte("<rss")) || bytes.Contains(head, []byte("<feed")) || bytes.Contains(head, []byte("<rdf:rdf")):
		return DocumentKindFeed
	case strings.Contains(ct, "rss") || strings.Contains(ct, "atom"):
		return DocumentKindFeed
	case strings.Contains(ct, "html") || bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html")):
		return DocumentKindArticleHTML
	case strings.Contains(ct, "xml") || bytes.HasPrefix(head, []byte("<?xml")):
		return DocumentKindSitemap
	}
	return DocumentKindArticleHTML
}
