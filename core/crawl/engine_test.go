package crawl

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/errors"
)

const (
	feedURL     = "https://news.example.com/rss"
	bitcoinURL  = "https://news.example.com/markets/2025/01/20/bitcoin-surges"
	etherURL    = "https://news.example.com/markets/2025/01/19/ether-upgrade"
	emptyURL    = "https://news.example.com/markets/2025/01/18/empty"
	testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example News</title>
  <item>
    <title>Bitcoin surges past $100k</title>
    <link>https://news.example.com/markets/2025/01/20/bitcoin-surges</link>
    <pubDate>Mon, 20 Jan 2025 14:32:00 +0000</pubDate>
  </item>
  <item>
    <title>Ether network upgrade ships</title>
    <link>https://news.example.com/markets/2025/01/19/ether-upgrade</link>
    <pubDate>Sun, 19 Jan 2025 10:00:00 +0000</pubDate>
  </item>
</channel>
</rss>`
)

const bitcoinPage = `<html><head>
<meta property="article:published_time" content="2025-01-20T00:00:00Z">
<meta name="author" content="jane-doe">
</head><body>
<h1>Bitcoin surges past $100k</h1>
<div class="article-body"><p>Bitcoin price jumped 12% overnight as traders piled into spot funds, pushing BTC to a fresh record above one hundred thousand dollars on heavy volume.</p></div>
</body></html>`

const etherPage = `<html><head>
<meta property="article:published_time" content="2025-01-19T09:15:00Z">
</head><body>
<h1>Ether network upgrade ships</h1>
<div class="article-body"><p>Ethereum developers shipped a network upgrade that improves validator performance across the ecosystem. The change was tested for months on public test networks before launch.</p></div>
</body></html>`

var testNow = time.Date(2025, 1, 20, 15, 0, 0, 0, time.UTC)

func testHints() mockHints {
	return mockHints{
		"example": {
			SourceCode: "example",
			ListURL:    feedURL,
			URLPrefix:  "https://news.example.com",
			Article: &domain.FieldRules{
				Title:    "h1",
				Content:  "div.article-body",
				DateMeta: "article:published_time",
			},
		},
	}
}

func testPages() map[string]string {
	return map[string]string{
		feedURL:    testFeedXML,
		bitcoinURL: bitcoinPage,
		etherURL:   etherPage,
	}
}

func newTestEngine(fetcher *mockFetcher, store *mockStore, opts ...Option) *Engine {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewEngine(fetcher, store, testHints(), opts...)
}

func TestCrawlLatest_SavesCanonicalArticles(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(&mockFetcher{pages: testPages()}, store)

	report, err := engine.CrawlLatest(context.Background(), "example")
	require.NoError(t, err)

	assert.Equal(t, "example", report.SourceCode)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, ModeLatest, report.Mode)
	assert.Equal(t, "feed", report.Strategy)
	assert.Equal(t, 2, report.Discovered)
	assert.Equal(t, 2, report.Saved)
	assert.Zero(t, report.Failed)
	assert.False(t, report.Cancelled)

	btc := store.get(bitcoinURL)
	require.NotNil(t, btc)
	assert.Equal(t, "Bitcoin surges past $100k", btc.Title)
	require.NotNil(t, btc.PublishedAt)
	assert.Equal(t, time.Date(2025, 1, 20, 14, 32, 0, 0, time.UTC), *btc.PublishedAt)
	assert.Equal(t, domain.DateSourceFeed, btc.DateSource)
	require.NotNil(t, btc.Author)
	assert.Equal(t, "Jane Doe", *btc.Author)
	assert.Contains(t, btc.Symbols, "BTC")
	assert.NotEmpty(t, btc.TradingPairs)
	assert.True(t, btc.IsBreaking)
	assert.Equal(t, 1.0, btc.BreakingScore)
	assert.Contains(t, btc.BreakingReasons, "fresh")

	eth := store.get(etherURL)
	require.NotNil(t, eth)
	require.NotNil(t, eth.PublishedAt)
	assert.Equal(t, time.Date(2025, 1, 19, 9, 15, 0, 0, time.UTC), *eth.PublishedAt)
	assert.Equal(t, domain.DateSourceMeta, eth.DateSource)
	assert.Contains(t, eth.Symbols, "ETH")
	assert.False(t, eth.IsBreaking)
	assert.Nil(t, eth.Sentiment)
}

func TestCrawlLatest_Idempotent(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(&mockFetcher{pages: testPages()}, store)

	_, err := engine.CrawlLatest(context.Background(), "example")
	require.NoError(t, err)
	second, err := engine.CrawlLatest(context.Background(), "example")
	require.NoError(t, err)

	assert.Equal(t, 0, second.Saved)
	assert.Equal(t, 2, second.Duplicates)
	assert.Equal(t, 2, store.len())
	assert.NotEqual(t, "", second.RunID)
}

func TestCrawlLatest_SaveRaceIsDuplicate(t *testing.T) {
	store := newMockStore()
	store.saveFunc = func(ctx context.Context, a *domain.CanonicalArticle) (*domain.CanonicalArticle, error) {
		return nil, errors.ErrDuplicateArticle
	}
	engine := newTestEngine(&mockFetcher{pages: testPages()}, store)

	report, err := engine.CrawlLatest(context.Background(), "example")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Duplicates)
	assert.Zero(t, report.Failed)
}

func TestCrawlLatest_FailuresAreIsolated(t *testing.T) {
	pages := testPages()
	delete(pages, etherURL)
	store := newMockStore()
	engine := newTestEngine(&mockFetcher{pages: pages}, store)

	report, err := engine.CrawlLatest(context.Background(), "example")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Saved)
	assert.Equal(t, 1, report.Failed)
	assert.NotNil(t, store.get(bitcoinURL))
}

func TestCrawlLatest_ExistsErrorCountsAsFailed(t *testing.T) {
	store := newMockStore()
	store.existsFunc = func(ctx context.Context, url string) (bool, error) {
		return false, stderrors.New("db down")
	}
	engine := newTestEngine(&mockFetcher{pages: testPages()}, store)

	report, err := engine.CrawlLatest(context.Background(), "example")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed)
	assert.Zero(t, store.len())
}

func TestCrawlLatest_DropsArticlesWithoutContent(t *testing.T) {
	pages := map[string]string{
		feedURL:  `<rss version="2.0"><channel><item><link>` + emptyURL + `</link></item></channel></rss>`,
		emptyURL: `<html><body></body></html>`,
	}
	store := newMockStore()
	engine := newTestEngine(&mockFetcher{pages: pages}, store)

	report, err := engine.CrawlLatest(context.Background(), "example")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, store.len())
}

func TestCrawlLatest_UnknownSource(t *testing.T) {
	engine := newTestEngine(&mockFetcher{pages: testPages()}, newMockStore())

	report, err := engine.CrawlLatest(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsConfigInvalid(err))
	assert.NotEmpty(t, report.Error)
}

func TestCrawlLatest_InvalidConfig(t *testing.T) {
	hints := mockHints{"broken": {SourceCode: "broken", ListURL: feedURL}}
	fetcher := &mockFetcher{pages: testPages()}
	engine := NewEngine(fetcher, newMockStore(), hints)

	_, err := engine.CrawlLatest(context.Background(), "broken")
	assert.True(t, errors.IsConfigInvalid(err))
	assert.Empty(t, fetcher.calls)
}

func TestCrawlLatest_Cancelled(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(&mockFetcher{pages: testPages()}, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := engine.CrawlLatest(ctx, "example")
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Zero(t, report.Saved)
	assert.Zero(t, store.len())
}

func TestCrawlLatest_CancelDuringFetchFinishesArticle(t *testing.T) {
	store := newMockStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fetchErrs []error
	fetcher := &mockFetcher{pages: testPages()}
	fetcher.onFetch = func(fetchCtx context.Context, url string) {
		if url == feedURL {
			return
		}
		// the run is cancelled while the first article is in flight
		cancel()
		fetchErrs = append(fetchErrs, fetchCtx.Err())
	}
	engine := newTestEngine(fetcher, store)

	report, err := engine.CrawlLatest(ctx, "example")
	require.NoError(t, err)

	assert.True(t, report.Cancelled)
	assert.Equal(t, 1, report.Saved)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 1, store.len())
	require.Len(t, fetchErrs, 1)
	assert.NoError(t, fetchErrs[0])
}

func TestCrawlLatest_PanicIsIsolated(t *testing.T) {
	store := newMockStore()
	fetcher := &mockFetcher{pages: testPages()}
	fetcher.onFetch = func(_ context.Context, url string) {
		if url == bitcoinURL {
			panic("parser blew up")
		}
	}
	engine := newTestEngine(fetcher, store)

	report, err := engine.CrawlLatest(context.Background(), "example")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Saved)
	assert.Nil(t, store.get(bitcoinURL))
	assert.NotNil(t, store.get(etherURL))
}

func TestCrawlLatest_Sentiment(t *testing.T) {
	t.Run("attached", func(t *testing.T) {
		store := newMockStore()
		sentiment := &mockSentiment{sentimentFunc: func(ctx context.Context, text string) (float64, string, error) {
			return 0.5, "positive", nil
		}}
		engine := newTestEngine(&mockFetcher{pages: testPages()}, store, WithSentiment(sentiment))

		_, err := engine.CrawlLatest(context.Background(), "example")
		require.NoError(t, err)
		require.NotNil(t, store.get(bitcoinURL).Sentiment)
		assert.Equal(t, "positive", store.get(bitcoinURL).Sentiment.Label)
	})

	t.Run("failure keeps article", func(t *testing.T) {
		store := newMockStore()
		sentiment := &mockSentiment{sentimentFunc: func(ctx context.Context, text string) (float64, string, error) {
			return 0, "", stderrors.New("model offline")
		}}
		engine := newTestEngine(&mockFetcher{pages: testPages()}, store, WithSentiment(sentiment))

		report, err := engine.CrawlLatest(context.Background(), "example")
		require.NoError(t, err)
		assert.Equal(t, 2, report.Saved)
		assert.Nil(t, store.get(bitcoinURL).Sentiment)
	})
}

func TestCrawlRange(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(&mockFetcher{pages: testPages()}, store)
	start := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 20, 23, 59, 59, 0, time.UTC)

	report, err := engine.CrawlRange(context.Background(), "example", start, end)
	require.NoError(t, err)

	assert.Equal(t, ModeRange, report.Mode)
	assert.Equal(t, 1, report.Saved)
	assert.Equal(t, 1, report.Skipped)
	assert.NotNil(t, store.get(bitcoinURL))
	assert.Nil(t, store.get(etherURL))
}

func TestCrawlRange_StartAfterEnd(t *testing.T) {
	engine := newTestEngine(&mockFetcher{pages: testPages()}, newMockStore())

	_, err := engine.CrawlRange(context.Background(), "example", testNow, testNow.Add(-time.Hour))
	assert.True(t, errors.IsValidation(err))
}

func TestCrawlAll(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(&mockFetcher{pages: testPages()}, store)

	reports, err := engine.CrawlAll(context.Background(), []string{"missing", "example"}, 2)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, "missing", reports[0].SourceCode)
	assert.NotEmpty(t, reports[0].Error)
	assert.Equal(t, "example", reports[1].SourceCode)
	assert.Equal(t, 2, reports[1].Saved)
	assert.Empty(t, reports[1].Error)
}

func TestCrawlAll_Cancelled(t *testing.T) {
	engine := newTestEngine(&mockFetcher{pages: testPages()}, newMockStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := engine.CrawlAll(ctx, []string{"example"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Cancelled)
}

func TestCrawlAllRange_StartAfterEnd(t *testing.T) {
	engine := newTestEngine(&mockFetcher{pages: testPages()}, newMockStore())

	_, err := engine.CrawlAllRange(context.Background(), []string{"example"}, 1, testNow, testNow.Add(-time.Minute))
	assert.True(t, errors.IsValidation(err))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	pages := testPages()
	delete(pages, etherURL)
	engine := newTestEngine(&mockFetcher{pages: pages}, newMockStore(), WithMetrics(metrics))

	_, err := engine.CrawlLatest(context.Background(), "example")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ArticlesTotal.WithLabelValues("example", "saved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ArticlesTotal.WithLabelValues("example", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.URLsDiscovered.WithLabelValues("example", "feed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.SourcesInFlight))
}
