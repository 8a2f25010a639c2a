// Package infrastructure provides concrete implementations of the interfaces
// defined in the core package.
//
// The infrastructure package is organized by technical concern:
//
// - cache/memory: in-process cache backed by go-cache
// - cache/redis: Redis cache on go-redis
// - cache/sqlite: file cache on sqlx and go-sqlite3 with expiry cleanup
// - http/standard: net/http client with retries, per-host rate limits and robots.txt
// - http/collyfetch: colly-backed document fetcher
// - logger/structured: logrus logger with optional lumberjack rotation
// - storage/sqlite: article store on sqlx and go-sqlite3
// - storage/postgres: article store on pgx
// - oracle/ollama: Ollama client for config generation, author assist and sentiment
//
// Every cache satisfies interfaces.Cache and every store satisfies
// interfaces.ArticleStore and interfaces.ArticleReader, so backends are
// selected by configuration alone.
//
//	cache := memory.NewMemoryCache(time.Hour)
//	store, err := sqlite.NewStore("data/articles.db", logger)
//	client := standard.NewWithOptions(standard.Options{Timeout: 20 * time.Second, Retries: 2})
//	fetcher := standard.NewFetcher(client)
package infrastructure
