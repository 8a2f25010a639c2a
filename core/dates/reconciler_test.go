package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/errors"
	"newsfeed-canon/core/identity"
)

func feedIndex(url string, published time.Time) *identity.Index {
	ix := identity.NewIndex()
	ix.Add(domain.FeedEntry{URL: url, PublishedAt: &published})
	return ix
}

func TestReconcile_PrecisionUpgrade(t *testing.T) {
	feedTime := time.Date(2026, 1, 20, 14, 32, 0, 0, time.UTC)
	ix := feedIndex("https://site.com/a/123-title", feedTime)
	r := NewReconciler(nil)

	got, src, err := r.Reconcile("https://site.com/a/123-title", &domain.ExtractedFields{
		RawDate:       "2026-01-20T00:00:00",
		RawDateSource: domain.DateSourceMeta,
	}, ix, false)

	require.NoError(t, err)
	assert.Equal(t, feedTime, got)
	assert.Equal(t, domain.DateSourceFeed, src)
}

func TestReconcile_PreciseDateStands(t *testing.T) {
	ix := feedIndex("https://site.com/a/123-title", time.Date(2026, 1, 20, 14, 32, 0, 0, time.UTC))
	r := NewReconciler(nil)

	got, src, err := r.Reconcile("https://site.com/a/123-title", &domain.ExtractedFields{
		RawDate:       "2026-01-20T09:15:00",
		RawDateSource: domain.DateSourceTime,
	}, ix, false)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 20, 9, 15, 0, 0, time.UTC), got)
	assert.Equal(t, domain.DateSourceTime, src)
}

func TestReconcile_PreferFeed(t *testing.T) {
	feedTime := time.Date(2026, 1, 20, 14, 32, 0, 0, time.UTC)
	ix := feedIndex("https://site.com/a/123-title", feedTime)

	got, src, err := NewReconciler(nil).Reconcile("https://site.com/a/123-title", &domain.ExtractedFields{
		RawDate:       "2026-01-20T09:15:00Z",
		RawDateSource: domain.DateSourceMeta,
	}, ix, true)

	require.NoError(t, err)
	assert.Equal(t, feedTime, got)
	assert.Equal(t, domain.DateSourceFeed, src)
}

func TestReconcile_URLVariantMatch(t *testing.T) {
	feedTime := time.Date(2026, 1, 20, 14, 32, 0, 0, time.UTC)
	ix := feedIndex("https://site.com/a/123-title/", feedTime)

	// Page has no date; identity resolves through the feed entry.
	got, src, err := NewReconciler(nil).Reconcile("http://site.com/a/123-title?ref=x", &domain.ExtractedFields{}, ix, false)

	require.NoError(t, err)
	assert.Equal(t, feedTime, got)
	assert.Equal(t, domain.DateSourceFeed, src)
}

func TestReconcile_NumericIDMatch(t *testing.T) {
	feedTime := time.Date(2026, 1, 20, 14, 32, 0, 0, time.UTC)
	ix := feedIndex("https://site.com/news/2026/01/20/98765-title", feedTime)

	got, _, err := NewReconciler(nil).Reconcile("https://site.com/amp/98765-title-amp?x=1", &domain.ExtractedFields{
		RawDate: "2026-01-20",
	}, ix, false)

	require.NoError(t, err)
	assert.Equal(t, feedTime, got)
}

func TestReconcile_CanonicalMatch(t *testing.T) {
	feedTime := time.Date(2026, 1, 20, 14, 32, 0, 0, time.UTC)
	ix := feedIndex("https://site.com/markets/btc-rallies", feedTime)

	got, _, err := NewReconciler(nil).Reconcile("https://amp.site.com/m/btc", &domain.ExtractedFields{
		CanonicalURLs: []string{"https://site.com/markets/btc-rallies/"},
	}, ix, false)

	require.NoError(t, err)
	assert.Equal(t, feedTime, got)
}

func TestReconcile_NormalizesToUTC(t *testing.T) {
	got, _, err := NewReconciler(nil).Reconcile("https://site.com/x", &domain.ExtractedFields{
		RawDate:       "2026-01-20T09:15:00-05:00",
		RawDateSource: domain.DateSourceJSONLD,
	}, nil, false)

	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, time.Date(2026, 1, 20, 14, 15, 0, 0, time.UTC), got)
}

func TestReconcile_Unresolved(t *testing.T) {
	tests := []struct {
		name   string
		fields *domain.ExtractedFields
		index  *identity.Index
	}{
		{"no signals", &domain.ExtractedFields{}, identity.NewIndex()},
		{"nil fields", nil, nil},
		{"garbage page date", &domain.ExtractedFields{RawDate: "sometime last week"}, nil},
		{"unrelated feed entry", &domain.ExtractedFields{}, feedIndex("https://other.com/story", time.Now())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, src, err := NewReconciler(nil).Reconcile("https://site.com/a/story", tt.fields, tt.index, false)
			assert.True(t, got.IsZero())
			assert.Equal(t, domain.DateSourceNone, src)
			assert.True(t, errors.IsDateUnresolved(err), "expected date unresolved, got %v", err)
		})
	}
}
