// ABOUTME: FeedEntryIndex maps URL variants of feed items to their feed metadata
// ABOUTME: Lookups try exact, path-only, canonical and numeric-id keys in that order

package identity

import (
	"newsfeed-canon/core/domain"
)

// Index is built once per discovery pass and is read-only afterwards.
// It is not safe for concurrent writes.
type Index struct {
	exact   map[string]*domain.FeedEntry
	path    map[string]*domain.FeedEntry
	numeric map[string]*domain.FeedEntry
	size    int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		exact:   make(map[string]*domain.FeedEntry),
		path:    make(map[string]*domain.FeedEntry),
		numeric: make(map[string]*domain.FeedEntry),
	}
}

// Add registers entry under every variant of its URL. The first entry to claim a key keeps it.
func (ix *Index) Add(entry domain.FeedEntry) {
	if entry.URL == "" {
		return
	}
	e := entry
	ix.size++
	putIfAbsent(ix.exact, Normalize(e.URL), &e)
	if HasPath(e.URL) {
		putIfAbsent(ix.path, PathOnly(e.URL), &e)
	}
	putIfAbsent(ix.numeric, NumericID(e.URL), &e)
}

// Len returns the number of entries added.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.size
}

// Lookup resolves the feed entry for a fetched article URL. canonical holds the
// page's own declared canonical link and og:url, in that order; empty values are skipped.
func (ix *Index) Lookup(pageURL string, canonical ...string) (*domain.FeedEntry, bool) {
	if ix == nil || ix.size == 0 {
		return nil, false
	}
	if e, ok := ix.exact[Normalize(pageURL)]; ok {
		return e, true
	}
	if e, ok := ix.path[PathOnly(pageURL)]; ok {
		return e, true
	}
	for _, c := range canonical {
		if c == "" {
			continue
		}
		if e, ok := ix.exact[Normalize(c)]; ok {
			return e, true
		}
		if e, ok := ix.path[PathOnly(c)]; ok {
			return e, true
		}
	}
	for _, candidate := range append([]string{pageURL}, canonical...) {
		if id := NumericID(candidate); id != "" {
			if e, ok := ix.numeric[id]; ok {
				return e, true
			}
		}
	}
	return nil, false
}

func putIfAbsent(m map[string]*domain.FeedEntry, key string, e *domain.FeedEntry) {
	if key == "" {
		return
	}
	if _, exists := m[key]; !exists {
		m[key] = e
	}
}
