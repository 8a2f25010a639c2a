// Package core contains the ingestion logic: it turns news sources into
// canonical article records. It is framework-agnostic; every external
// concern (HTTP, cache, storage, oracle, logging) is injected through the
// interfaces package.
//
// The core package is organized into several sub-packages:
//
// - domain: source configs, raw documents, extracted fields and canonical articles
// - identity: URL normalization, numeric article ids and the feed entry index
// - config: the source config resolver (stored, then oracle, then hints) and JSON repair
// - discovery: list page fetching and feed, sitemap and HTML link discovery
// - extract: the per-field extraction cascade for title, content, author and date
// - dates: page date versus feed date reconciliation
// - symbols: ticker tagging and trading pair derivation
// - breaking: breaking-news scoring
// - crawl: the per-source pipeline, its reports and metrics
// - workers: the background job queue used by the admin API
// - errors: failure classes that decide what a failure skips
//
// # Failure Isolation
//
// A ConfigInvalid error skips one source for one run. A fetch or extraction
// failure skips one URL. An unresolved field leaves that field empty. Nothing
// below the crawl engine aborts a whole run.
//
// # Usage Example
//
//	engine := crawl.NewEngine(fetcher, store, registry,
//	    crawl.WithResolver(resolver),
//	    crawl.WithLogger(logger),
//	)
//	reports, err := engine.CrawlAll(ctx, []string{"coindesk", "decrypt"}, 2)
package core
