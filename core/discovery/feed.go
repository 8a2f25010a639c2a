// ABOUTME: Feed discovery parses RSS/Atom list documents with gofeed
// ABOUTME: Builds the FeedEntryIndex from every entry as a side effect

package discovery

import (
	"bytes"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/identity"
	htmlutil "newsfeed-canon/pkg/utils/html"
	timeutil "newsfeed-canon/pkg/utils/time"
)

// parseFeed returns the normalized entry links of an RSS/Atom document and an
// index of their metadata. ok is false when body is not a feed or has no entries.
func parseFeed(body []byte) (urls []string, index *identity.Index, ok bool) {
	if len(body) == 0 {
		return nil, nil, false
	}
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil || len(parsed.Items) == 0 {
		return nil, nil, false
	}

	index = identity.NewIndex()
	for _, item := range parsed.Items {
		entry, ok := convertItem(item)
		if !ok {
			continue
		}
		index.Add(entry)
		urls = append(urls, entry.URL)
	}
	if len(urls) == 0 {
		return nil, nil, false
	}
	return urls, index, true
}

func convertItem(item *gofeed.Item) (domain.FeedEntry, bool) {
	if item == nil {
		return domain.FeedEntry{}, false
	}
	link := strings.TrimSpace(item.Link)
	if link == "" && strings.HasPrefix(item.GUID, "http") {
		link = strings.TrimSpace(item.GUID)
	}
	if link == "" {
		return domain.FeedEntry{}, false
	}

	return domain.FeedEntry{
		URL:         identity.Normalize(link),
		PublishedAt: itemTime(item),
		Author:      itemAuthor(item),
		Title:       htmlutil.CollapseWhitespace(item.Title),
		Summary:     htmlutil.StripHTML(item.Description),
	}, true
}

// itemTime prefers the published time, then the updated time, both in UTC.
func itemTime(item *gofeed.Item) *time.Time {
	var t time.Time
	switch {
	case item.PublishedParsed != nil:
		t = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		t = *item.UpdatedParsed
	case item.Published != "":
		t, _ = timeutil.ParseUTC(item.Published)
	case item.Updated != "":
		t, _ = timeutil.ParseUTC(item.Updated)
	}
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

// itemAuthor joins the entry's author names, falling back to dc:creator.
func itemAuthor(item *gofeed.Item) string {
	var names []string
	seen := make(map[string]bool)
	for _, a := range item.Authors {
		if a == nil {
			continue
		}
		name := strings.TrimSpace(a.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) > 0 {
		return strings.Join(names, ", ")
	}
	if item.DublinCoreExt != nil {
		for _, c := range item.DublinCoreExt.Creator {
			if c = strings.TrimSpace(c); c != "" {
				return c
			}
		}
	}
	return ""
}
