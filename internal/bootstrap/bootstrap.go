// ABOUTME: Builds the crawl runtime from configuration for the CLI and the admin API
// ABOUTME: Selects cache, fetcher and storage backends and wires the oracle behind feature flags

package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"newsfeed-canon/core/breaking"
	coreconfig "newsfeed-canon/core/config"
	"newsfeed-canon/core/crawl"
	"newsfeed-canon/core/extract"
	"newsfeed-canon/core/interfaces"
	"newsfeed-canon/infrastructure/cache/memory"
	"newsfeed-canon/infrastructure/cache/redis"
	"newsfeed-canon/infrastructure/cache/sqlite"
	"newsfeed-canon/infrastructure/http/collyfetch"
	stdhttp "newsfeed-canon/infrastructure/http/standard"
	"newsfeed-canon/infrastructure/oracle/ollama"
	"newsfeed-canon/infrastructure/storage/postgres"
	sqlitestore "newsfeed-canon/infrastructure/storage/sqlite"
	"newsfeed-canon/pkg/config"
	"newsfeed-canon/pkg/featureflags"
	"newsfeed-canon/pkg/sources"
)

// Store is what the runtime needs from article storage
type Store interface {
	interfaces.ArticleStore
	interfaces.ArticleReader
	Close() error
}

// Runtime holds the wired components and the resources to release on shutdown
type Runtime struct {
	Config   *config.Config
	Logger   interfaces.Logger
	Flags    featureflags.Manager
	Sources  *sources.Registry
	Store    Store
	Engine   *crawl.Engine
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases every resource opened by New, in reverse order
func (r *Runtime) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// New wires a runtime. On error every resource opened so far is released.
func New(ctx context.Context, cfg *config.Config, logger interfaces.Logger) (*Runtime, error) {
	rt := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Flags:    featureflags.NewEnvManager(""),
		Registry: prometheus.NewRegistry(),
	}
	ready := false
	defer func() {
		if !ready {
			_ = rt.Close()
		}
	}()

	rt.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var err error
	rt.Sources, err = sources.Load(cfg.Crawler.SourcesFile)
	if err != nil {
		return nil, err
	}

	cache, err := newCache(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	if c, ok := cache.(interface{ Close() error }); ok {
		rt.closers = append(rt.closers, c.Close)
	}

	rt.Store, err = newStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, rt.Store.Close)

	client := stdhttp.NewWithOptions(stdhttp.Options{
		Timeout:     cfg.Crawler.Timeout,
		UserAgent:   cfg.Crawler.UserAgent,
		Retries:     cfg.Crawler.Retries,
		RatePerHost: cfg.Crawler.RatePerHost,
		Robots:      robotsChecker(cfg.Crawler),
		Logger:      logger,
	})
	fetcher := newFetcher(cfg.Crawler, client)

	oracleClient := ollama.NewClient(
		stdhttp.NewWithOptions(stdhttp.Options{Timeout: cfg.Oracle.Timeout, Logger: logger}),
		ollama.Config{URL: cfg.Oracle.URL, Model: cfg.Oracle.Model, Timeout: cfg.Oracle.Timeout},
		logger,
	)

	resolver := coreconfig.NewResolver(
		coreconfig.NewCacheConfigStore(cache),
		coreconfig.WithOracle(oracleClient),
		coreconfig.WithFlags(rt.Flags),
		coreconfig.WithOracleCache(cache, cfg.Oracle.CacheTTL),
		coreconfig.WithSampleFetcher(fetcher),
		coreconfig.WithLogger(logger),
	)
	extractor := extract.NewExtractor(
		extract.WithFieldAssist(oracleClient, rt.Flags),
		extract.WithLogger(logger),
	)

	opts := []crawl.Option{
		crawl.WithResolver(resolver),
		crawl.WithExtractor(extractor),
		crawl.WithScorer(breaking.NewScorer(cfg.Breaking.Window, cfg.Breaking.Threshold)),
		crawl.WithMetrics(crawl.NewMetrics(rt.Registry)),
		crawl.WithLogger(logger),
	}
	if rt.Flags.IsEnabled(ctx, featureflags.SentimentEnabled) {
		opts = append(opts, crawl.WithSentiment(oracleClient))
	}
	rt.Engine = crawl.NewEngine(fetcher, rt.Store, rt.Sources, opts...)

	logger.Info("Runtime ready", map[string]interface{}{
		"cache":   cfg.Cache.Type,
		"storage": cfg.Storage.Driver,
		"fetcher": cfg.Crawler.Fetcher,
		"sources": len(rt.Sources.Codes()),
		"flags":   rt.Flags.GetAllFlags(),
	})
	ready = true
	return rt, nil
}

// SourceCodes returns the codes to crawl: args when given, then the configured list, then every registered source
func (r *Runtime) SourceCodes(args []string) []string {
	if len(args) > 0 {
		return args
	}
	if len(r.Config.Crawler.Sources) > 0 {
		return r.Config.Crawler.Sources
	}
	return r.Sources.Codes()
}

func newCache(cfg config.CacheConfig, logger interfaces.Logger) (interfaces.Cache, error) {
	switch cfg.Type {
	case "redis":
		c, err := redis.NewRedisCache(cfg.Redis)
		if err != nil {
			logger.Error("Failed to create Redis cache, falling back to memory", map[string]interface{}{
				"error": err.Error(),
			})
			return memory.NewMemoryCache(0), nil
		}
		logger.Info("Using Redis cache", map[string]interface{}{"address": cfg.Redis.Address})
		return c, nil
	case "sqlite":
		if err := ensureDir(cfg.SQLite.Path); err != nil {
			return nil, err
		}
		return sqlite.NewSQLiteCache(cfg.SQLite.Path, logger)
	default:
		logger.Info("Using memory cache", nil)
		return memory.NewMemoryCache(time.Duration(cfg.Memory.DefaultExpiration) * time.Second), nil
	}
}

func newStore(ctx context.Context, cfg config.StorageConfig, logger interfaces.Logger) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Connect(ctx, cfg.PostgresDSN, logger)
	case "sqlite":
		if err := ensureDir(cfg.SQLitePath); err != nil {
			return nil, err
		}
		return sqlitestore.NewStore(cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func newFetcher(cfg config.CrawlerConfig, client *stdhttp.StandardHTTPClient) interfaces.Fetcher {
	if cfg.Fetcher == "colly" {
		return collyfetch.NewFetcher(collyfetch.Options{
			UserAgent:     cfg.UserAgent,
			Timeout:       cfg.Timeout,
			RespectRobots: cfg.RespectRobots,
		})
	}
	return stdhttp.NewFetcher(client)
}

func robotsChecker(cfg config.CrawlerConfig) *stdhttp.RobotsChecker {
	if !cfg.RespectRobots {
		return nil
	}
	return stdhttp.NewRobotsChecker(cfg.Timeout)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
