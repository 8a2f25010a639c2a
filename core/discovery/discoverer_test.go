package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/errors"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
<title>Example News</title>
<item>
  <title>One</title>
  <link>http://news.example.com/markets/1001-one/</link>
  <pubDate>Tue, 20 Jan 2026 14:32:00 +0000</pubDate>
  <dc:creator>Jane Doe</dc:creator>
  <description>&lt;p&gt;Summary of one&lt;/p&gt;</description>
</item>
<item>
  <title>Two</title>
  <link>https://news.example.com/video/1002-two</link>
  <pubDate>Tue, 20 Jan 2026 15:00:00 +0000</pubDate>
</item>
<item>
  <title>One again</title>
  <link>https://news.example.com/markets/1001-one</link>
</item>
</channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<title>Example Atom</title>
<entry>
  <title>Entry</title>
  <link rel="alternate" href="https://news.example.com/news/2001-entry"/>
  <updated>2026-01-20T10:00:00Z</updated>
  <author><name>Ann</name></author>
  <author><name>Bob</name></author>
  <author><name>Ann</name></author>
</entry>
</feed>`

const sitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://news.example.com/news/5001-a</loc></url>
  <url><loc>https://news.example.com/news/5002-b</loc></url>
</urlset>`

const sitemapIndex = `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://news.example.com/sitemap-news.xml</loc></sitemap>
</sitemapindex>`

func source(listURL string) *domain.SourceConfig {
	return &domain.SourceConfig{
		SourceCode: "example",
		ListURL:    listURL,
		URLPrefix:  "https://news.example.com",
		Article:    &domain.FieldRules{Title: "h1", Content: "article", DateMeta: "article:published_time"},
	}
}

func TestDiscover_Feed(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"https://news.example.com/rss": rssFeed}}
	cfg := source("https://news.example.com/rss")
	cfg.ExcludePatterns = []string{"/video/"}

	res, err := NewDiscoverer(fetcher, nil).Discover(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, StrategyFeed, res.Strategy)
	assert.Equal(t, []string{"https://news.example.com/markets/1001-one"}, res.URLs)
	assert.Equal(t, 3, res.Index.Len())

	entry, ok := res.Index.Lookup("https://news.example.com/markets/1001-one?utm_source=x")
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", entry.Author)
	assert.Equal(t, "One", entry.Title)
	assert.Contains(t, entry.Summary, "Summary of one")
	require.NotNil(t, entry.PublishedAt)
	assert.Equal(t, time.Date(2026, 1, 20, 14, 32, 0, 0, time.UTC), *entry.PublishedAt)
}

func TestDiscover_AtomAuthors(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"https://news.example.com/atom": atomFeed}}

	res, err := NewDiscoverer(fetcher, nil).Discover(context.Background(), source("https://news.example.com/atom"), nil)
	require.NoError(t, err)

	require.Equal(t, []string{"https://news.example.com/news/2001-entry"}, res.URLs)
	entry, ok := res.Index.Lookup(res.URLs[0])
	require.True(t, ok)
	assert.Equal(t, "Ann, Bob", entry.Author)
	require.NotNil(t, entry.PublishedAt)
	assert.Equal(t, time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC), *entry.PublishedAt)
}

func TestDiscover_Sitemap(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"https://news.example.com/sitemap.xml": sitemap}}

	res, err := NewDiscoverer(fetcher, nil).Discover(context.Background(), source("https://news.example.com/sitemap.xml"), nil)
	require.NoError(t, err)

	assert.Equal(t, StrategyXML, res.Strategy)
	assert.Equal(t, []string{
		"https://news.example.com/news/5001-a",
		"https://news.example.com/news/5002-b",
	}, res.URLs)
	assert.Equal(t, 0, res.Index.Len())
}

func TestDiscover_SitemapIndex(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{
		"https://news.example.com/sitemap.xml":      sitemapIndex,
		"https://news.example.com/sitemap-news.xml": sitemap,
	}}
	cfg := source("https://news.example.com/sitemap.xml")
	cfg.IncludePatterns = []string{"5002"}

	res, err := NewDiscoverer(fetcher, nil).Discover(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://news.example.com/news/5002-b"}, res.URLs)
}

func TestDiscover_Selector(t *testing.T) {
	page := `<html><body>
<a class="card" href="/news/3001-a">A</a>
<a class="card" href="https://other.com/news/3003-c">External</a>
<div class="card"><a href="/markets/3002-b">B</a></div>
<a href="/news/3004-not-selected">Ignored</a>
<a class="card" href="https://news.example.com.evil.com/news/3005-lookalike">Lookalike</a>
<a class="card" href="http://NEWS.example.com/news/3006-d/">D</a>
</body></html>`
	fetcher := &mockFetcher{pages: map[string]string{"https://news.example.com/latest": page}}
	cfg := source("https://news.example.com/latest")
	cfg.Discovery.LinkSelector = ".card"

	res, err := NewDiscoverer(fetcher, nil).Discover(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, StrategySelector, res.Strategy)
	assert.Equal(t, []string{
		"https://news.example.com/news/3001-a",
		"https://news.example.com/markets/3002-b",
		"https://news.example.com/news/3006-d",
	}, res.URLs)
}

func TestDiscover_Heuristic(t *testing.T) {
	page := `<html><body>
<a href="/news/4001-a">A</a>
<a href="/about">About</a>
<a href="https://other.com/news/9999">Elsewhere</a>
<a href="/markets/4002-b">B</a>
<a href="/news/4001-a/">A again</a>
<a href="https://news.example.com.evil.com/news/4003-lookalike">Lookalike</a>
</body></html>`
	fetcher := &mockFetcher{pages: map[string]string{"https://news.example.com/": page}}

	res, err := NewDiscoverer(fetcher, nil).Discover(context.Background(), source("https://news.example.com/"), nil)
	require.NoError(t, err)

	assert.Equal(t, StrategyHeuristic, res.Strategy)
	assert.Equal(t, []string{
		"https://news.example.com/news/4001-a",
		"https://news.example.com/markets/4002-b",
	}, res.URLs)
}

func TestDiscover_SitemapURLsAreNormalized(t *testing.T) {
	const mixed = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>http://news.example.com/news/5001-a/</loc></url>
  <url><loc>https://news.example.com/news/5001-a</loc></url>
  <url><loc> https://News.Example.com/news/5003-c </loc></url>
</urlset>`
	fetcher := &mockFetcher{pages: map[string]string{"https://news.example.com/sitemap.xml": mixed}}

	res, err := NewDiscoverer(fetcher, nil).Discover(context.Background(), source("https://news.example.com/sitemap.xml"), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://news.example.com/news/5001-a",
		"https://news.example.com/news/5003-c",
	}, res.URLs)
}

func TestSameHost(t *testing.T) {
	base := "https://news.example.com"
	tests := []struct {
		full string
		want bool
	}{
		{"https://news.example.com/news/1", true},
		{"https://NEWS.example.com/news/1", true},
		{"https://news.example.com.evil.com/news/1", false},
		{"https://evil.com/news.example.com/1", false},
		{"https://news.example.com:8443/news/1", false},
		{"/news/1", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sameHost(tt.full, base), tt.full)
	}
}

func TestDiscover_FallbackListURL(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"https://news.example.com/rss": rssFeed}}
	cfg := source("https://news.example.com/generated-but-wrong")
	hints := source("https://news.example.com/rss")

	res, err := NewDiscoverer(fetcher, nil).Discover(context.Background(), cfg, hints)
	require.NoError(t, err)

	assert.Equal(t, "https://news.example.com/rss", res.ListURL)
	assert.Len(t, res.URLs, 2)
	assert.Equal(t, []string{"https://news.example.com/generated-but-wrong", "https://news.example.com/rss"}, fetcher.calls)
}

func TestDiscover_BothFetchesFail(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{}}

	res, err := NewDiscoverer(fetcher, nil).Discover(context.Background(), source("https://news.example.com/rss"), source("https://news.example.com/feed"))
	require.NoError(t, err)

	assert.Empty(t, res.URLs)
	assert.Equal(t, StrategyNone, res.Strategy)
	assert.Len(t, fetcher.calls, 2)
}

func TestDiscover_MissingListURL(t *testing.T) {
	_, err := NewDiscoverer(&mockFetcher{}, nil).Discover(context.Background(), &domain.SourceConfig{SourceCode: "x"}, nil)
	assert.True(t, errors.IsConfigInvalid(err))
}

func TestFilter(t *testing.T) {
	urls := []string{"https://a.com/news/1", "https://a.com/video/2", "https://a.com/markets/3"}

	assert.Equal(t, urls, filter(urls, nil, nil))
	assert.Equal(t, urls, filter(urls, []string{""}, nil))
	assert.Equal(t, []string{"https://a.com/news/1", "https://a.com/markets/3"}, filter(urls, nil, []string{"/video/"}))
	assert.Equal(t, []string{"https://a.com/markets/3"}, filter(urls, []string{"/markets/", "/video/"}, []string{"/video/"}))
}
