// ABOUTME: Configuration management for the crawler and admin API with environment variable support
// ABOUTME: Defines configuration structures for server, caches, storage, crawling, scoring and the oracle

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server contains admin HTTP server configuration
	Server ServerConfig

	// Cache contains the config-store cache backend configuration
	Cache CacheConfig

	// Storage selects where canonical articles are persisted
	Storage StorageConfig

	// Crawler tunes fetching and crawl passes
	Crawler CrawlerConfig

	// Breaking tunes the breaking-news scorer
	Breaking BreakingConfig

	// Oracle configures the AI config generator and field assist
	Oracle OracleConfig

	// Log configures the logrus logger
	Log LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	// Port is the HTTP server port
	Port string

	// RateLimit is the number of admin requests allowed per minute per IP
	RateLimit int

	// AllowedOrigins lists CORS origins for the admin API
	AllowedOrigins []string
}

// CacheConfig holds cache backend configuration
type CacheConfig struct {
	// Type specifies the cache backend (memory/redis/sqlite)
	Type string

	// Redis contains Redis-specific configuration
	Redis RedisConfig

	// SQLite contains SQLite-specific configuration
	SQLite SQLiteConfig

	// Memory contains in-memory cache configuration
	Memory MemoryConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Address is the Redis server address
	Address string

	// Password is the Redis authentication password
	Password string

	// DB is the Redis database number
	DB int
}

// SQLiteConfig holds SQLite cache configuration
type SQLiteConfig struct {
	// Path is the database file
	Path string
}

// MemoryConfig holds in-memory cache configuration
type MemoryConfig struct {
	// DefaultExpiration is the default TTL for cache entries in seconds
	DefaultExpiration int
}

// StorageConfig holds article persistence configuration
type StorageConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver string

	// SQLitePath is the article database file for the sqlite driver
	SQLitePath string

	// PostgresDSN is the connection string for the postgres driver
	PostgresDSN string
}

// CrawlerConfig holds fetch and crawl-pass configuration
type CrawlerConfig struct {
	// Fetcher is "standard" or "colly"
	Fetcher string

	// UserAgent is sent with every request
	UserAgent string

	// Timeout bounds a single fetch
	Timeout time.Duration

	// Retries is the number of extra attempts for transport errors and 5xx
	Retries int

	// RatePerHost is the number of requests per second allowed to one host
	RatePerHost float64

	// RespectRobots makes fetchers honor robots.txt
	RespectRobots bool

	// Parallelism is the number of sources crawled concurrently
	Parallelism int

	// Interval is the pause between watch-mode runs
	Interval time.Duration

	// SourcesFile optionally replaces the embedded source hints
	SourcesFile string

	// Sources lists the source codes crawled when none are given
	Sources []string
}

// BreakingConfig holds breaking-score configuration
type BreakingConfig struct {
	// Window is the freshness window for the recency bonus
	Window time.Duration

	// Threshold is the score at or above which an article is breaking
	Threshold float64
}

// OracleConfig holds the Ollama oracle configuration
type OracleConfig struct {
	// URL is the Ollama base URL
	URL string

	// Model is the model name
	Model string

	// Timeout bounds a single oracle call
	Timeout time.Duration

	// CacheTTL is how long oracle responses are memoized
	CacheTTL time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	// Level is a logrus level name
	Level string

	// Format is "json" or "text"
	Format string

	// File enables rotated file output when set
	File string
}

// LoadDotEnv loads .env style files into the environment, ignoring files that don't exist
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvOrDefault("PORT", "8000"),
			RateLimit:      getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 30),
			AllowedOrigins: getEnvAsListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Cache: CacheConfig{
			Type: getEnvOrDefault("CACHE_TYPE", "sqlite"),
			Redis: RedisConfig{
				Address:  getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
			},
			SQLite: SQLiteConfig{
				Path: getEnvOrDefault("SQLITE_CACHE_PATH", "data/cache.db"),
			},
			Memory: MemoryConfig{
				DefaultExpiration: getEnvAsIntOrDefault("MEMORY_CACHE_EXPIRATION", 3600),
			},
		},
		Storage: StorageConfig{
			Driver:      getEnvOrDefault("STORAGE_DRIVER", "sqlite"),
			SQLitePath:  getEnvOrDefault("ARTICLES_DB_PATH", "data/articles.db"),
			PostgresDSN: getEnvOrDefault("DATABASE_URL", ""),
		},
		Crawler: CrawlerConfig{
			Fetcher:       getEnvOrDefault("FETCHER", "standard"),
			UserAgent:     getEnvOrDefault("CRAWLER_USER_AGENT", DefaultUserAgent),
			Timeout:       getEnvAsDurationOrDefault("FETCH_TIMEOUT", 20*time.Second),
			Retries:       getEnvAsIntOrDefault("FETCH_RETRIES", 2),
			RatePerHost:   getEnvAsFloatOrDefault("FETCH_RATE_PER_HOST", 2),
			RespectRobots: getEnvAsBoolOrDefault("RESPECT_ROBOTS", false),
			Parallelism:   getEnvAsIntOrDefault("CRAWL_PARALLELISM", 2),
			Interval:      time.Duration(getEnvAsIntOrDefault("CRAWL_INTERVAL_SECONDS", 60)) * time.Second,
			SourcesFile:   getEnvOrDefault("SOURCES_FILE", ""),
			Sources:       getEnvAsListOrDefault("CRAWL_SOURCES", nil),
		},
		Breaking: BreakingConfig{
			Window:    time.Duration(getEnvAsFloatOrDefault("BREAKING_TIME_WINDOW_HOURS", 2) * float64(time.Hour)),
			Threshold: getEnvAsFloatOrDefault("BREAKING_SCORE_THRESHOLD", 0.6),
		},
		Oracle: OracleConfig{
			URL:      getEnvOrDefault("OLLAMA_URL", "http://localhost:11434"),
			Model:    getEnvOrDefault("OLLAMA_MODEL", "gemma3:1b"),
			Timeout:  getEnvAsDurationOrDefault("OLLAMA_TIMEOUT", 60*time.Second),
			CacheTTL: getEnvAsDurationOrDefault("ORACLE_CACHE_TTL", 24*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
			File:   getEnvOrDefault("LOG_FILE", ""),
		},
	}

	return cfg, nil
}

// DefaultUserAgent mimics a desktop browser; several news sites reject bare clients
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault accepts Go durations ("20s") or bare seconds ("20")
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("port cannot be empty")
	}

	switch c.Cache.Type {
	case "memory", "sqlite":
	case "redis":
		if c.Cache.Redis.Address == "" {
			return errors.New("redis address cannot be empty when using redis cache")
		}
	default:
		return errors.New("cache type must be 'memory', 'redis' or 'sqlite'")
	}

	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return errors.New("articles db path cannot be empty when using sqlite storage")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("DATABASE_URL cannot be empty when using postgres storage")
		}
	default:
		return errors.New("storage driver must be 'sqlite' or 'postgres'")
	}

	if c.Crawler.Fetcher != "standard" && c.Crawler.Fetcher != "colly" {
		return errors.New("fetcher must be 'standard' or 'colly'")
	}

	if c.Crawler.Timeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}

	if c.Crawler.Retries < 0 {
		return errors.New("fetch retries cannot be negative")
	}

	if c.Crawler.Parallelism < 1 {
		return errors.New("crawl parallelism must be at least 1")
	}

	if c.Crawler.Interval < time.Second {
		return errors.New("crawl interval must be at least 1 second")
	}

	if c.Breaking.Threshold < 0 || c.Breaking.Threshold > 1 {
		return errors.New("breaking threshold must be within [0,1]")
	}

	if c.Breaking.Window <= 0 {
		return errors.New("breaking window must be positive")
	}

	return nil
}
