// ABOUTME: UrlDiscoverer enumerates candidate article URLs for one source
// ABOUTME: Feed, XML, selector and heuristic strategies run in order; the first non-empty result wins

package discovery

import (
	"context"
	"strings"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/errors"
	"newsfeed-canon/core/identity"
	"newsfeed-canon/core/interfaces"
)

// Strategy names the discovery tier that produced a result.
type Strategy string

const (
	StrategyNone      Strategy = "none"
	StrategyFeed      Strategy = "feed"
	StrategyXML       Strategy = "xml"
	StrategySelector  Strategy = "selector"
	StrategyHeuristic Strategy = "heuristic"
)

// maxChildSitemaps bounds how many nested sitemaps of a sitemap index are read.
const maxChildSitemaps = 5

// Result is the outcome of one discovery pass.
type Result struct {
	// URLs are de-duplicated in first-seen order and already filtered.
	URLs []string
	// Index is empty unless the list document was a feed.
	Index    *identity.Index
	Strategy Strategy
	ListURL  string
}

// Discoverer implements URL discovery on top of a Fetcher.
type Discoverer struct {
	fetcher interfaces.Fetcher
	logger  interfaces.Logger
}

// NewDiscoverer creates a discoverer.
func NewDiscoverer(fetcher interfaces.Fetcher, logger interfaces.Logger) *Discoverer {
	if logger == nil {
		logger = interfaces.NopLogger{}
	}
	return &Discoverer{fetcher: fetcher, logger: logger}
}

// Discover fetches cfg's list URL and enumerates article URLs. When the list
// fetch fails it retries once against the hints' list URL (or the base URL);
// if that also fails an empty result is returned without error. Only a config
// without a list URL is an error.
func (d *Discoverer) Discover(ctx context.Context, cfg, hints *domain.SourceConfig) (*Result, error) {
	if cfg == nil || strings.TrimSpace(cfg.ListURL) == "" {
		code := ""
		if cfg != nil {
			code = cfg.SourceCode
		}
		return nil, &errors.ConfigInvalidError{SourceCode: code, Reason: "list_url is required for discovery"}
	}

	listURL := cfg.ListURL
	doc, err := d.fetcher.Fetch(ctx, listURL)
	if err != nil {
		fallback := ""
		if hints != nil {
			fallback = hints.ListURL
		}
		if fallback == "" {
			fallback = cfg.BaseURL()
		}
		d.logger.Warn("List fetch failed, retrying with fallback list url", map[string]interface{}{
			"source":   cfg.SourceCode,
			"list_url": listURL,
			"fallback": fallback,
			"error":    err.Error(),
		})
		if fallback == "" {
			return emptyResult(listURL), nil
		}
		listURL = fallback
		doc, err = d.fetcher.Fetch(ctx, listURL)
		if err != nil {
			d.logger.Warn("Fallback list fetch failed, skipping source", map[string]interface{}{
				"source":   cfg.SourceCode,
				"list_url": listURL,
				"error":    err.Error(),
			})
			return emptyResult(listURL), nil
		}
	}

	res := d.fromDocument(ctx, doc, cfg)
	res.ListURL = listURL
	res.URLs = filter(dedupe(res.URLs), cfg.IncludePatterns, cfg.ExcludePatterns)

	d.logger.Info("Discovered article urls", map[string]interface{}{
		"source":   cfg.SourceCode,
		"strategy": string(res.Strategy),
		"count":    len(res.URLs),
	})
	return res, nil
}

func (d *Discoverer) fromDocument(ctx context.Context, doc *domain.RawDocument, cfg *domain.SourceConfig) *Result {
	if urls, index, ok := parseFeed(doc.Body); ok {
		return &Result{URLs: urls, Index: index, Strategy: StrategyFeed}
	}

	if links, ok := parseXML(doc.Body); ok {
		urls := links.URLs
		urls = append(urls, d.childSitemaps(ctx, cfg, links.Children)...)
		if len(urls) > 0 {
			return &Result{URLs: urls, Index: identity.NewIndex(), Strategy: StrategyXML}
		}
	}

	page, err := parseHTML(doc.Body)
	if err != nil {
		d.logger.Debug("List page is not parseable html", map[string]interface{}{
			"source": cfg.SourceCode,
			"error":  err.Error(),
		})
		return &Result{Index: identity.NewIndex(), Strategy: StrategyNone}
	}
	if urls := selectorLinks(page, cfg); len(urls) > 0 {
		return &Result{URLs: urls, Index: identity.NewIndex(), Strategy: StrategySelector}
	}
	if urls := heuristicLinks(page, cfg); len(urls) > 0 {
		return &Result{URLs: urls, Index: identity.NewIndex(), Strategy: StrategyHeuristic}
	}
	return &Result{Index: identity.NewIndex(), Strategy: StrategyNone}
}

// childSitemaps reads one level of a sitemap index.
func (d *Discoverer) childSitemaps(ctx context.Context, cfg *domain.SourceConfig, children []string) []string {
	var urls []string
	for i, child := range children {
		if i >= maxChildSitemaps || ctx.Err() != nil {
			break
		}
		doc, err := d.fetcher.Fetch(ctx, child)
		if err != nil {
			d.logger.Warn("Child sitemap fetch failed", map[string]interface{}{
				"source":  cfg.SourceCode,
				"sitemap": child,
				"error":   err.Error(),
			})
			continue
		}
		if links, ok := parseXML(doc.Body); ok {
			urls = append(urls, links.URLs...)
		}
	}
	return urls
}

func emptyResult(listURL string) *Result {
	return &Result{Index: identity.NewIndex(), Strategy: StrategyNone, ListURL: listURL}
}

// filter keeps URLs that contain any include pattern (when given) and none of the exclude patterns.
func filter(urls, include, exclude []string) []string {
	includeActive := false
	for _, p := range include {
		if p != "" {
			includeActive = true
		}
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if includeActive && !containsAny(u, include) {
			continue
		}
		if containsAny(u, exclude) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
