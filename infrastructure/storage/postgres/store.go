// ABOUTME: PostgreSQL ArticleStore backed by a pgx connection pool
// ABOUTME: Inserts use ON CONFLICT (url) DO NOTHING so a stored article is never overwritten

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsfeed-canon/core/domain"
	coreerrors "newsfeed-canon/core/errors"
	"newsfeed-canon/core/interfaces"
)

// Pool is the subset of *pgxpool.Pool the store needs.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements interfaces.ArticleStore and interfaces.ArticleReader.
type Store struct {
	pool   Pool
	logger interfaces.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	url TEXT PRIMARY KEY,
	source_code TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	author TEXT,
	published_at TIMESTAMPTZ,
	date_source TEXT NOT NULL DEFAULT '',
	symbols TEXT[] NOT NULL DEFAULT '{}',
	trading_pairs TEXT[] NOT NULL DEFAULT '{}',
	breaking_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_breaking BOOLEAN NOT NULL DEFAULT FALSE,
	breaking_reasons TEXT[] NOT NULL DEFAULT '{}',
	sentiment_score DOUBLE PRECISION,
	sentiment_label TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_articles_source_published ON articles (source_code, published_at)`

const insertArticle = `INSERT INTO articles (url, source_code, title, content, author, published_at, date_source, symbols, trading_pairs, breaking_score, is_breaking, breaking_reasons, sentiment_score, sentiment_label, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (url) DO NOTHING`

const selectColumns = `url, source_code, title, content, author, published_at, date_source, symbols, trading_pairs, breaking_score, is_breaking, breaking_reasons, sentiment_score, sentiment_label, created_at`

// Connect opens a pool for dsn, creates the schema and returns the store.
func Connect(ctx context.Context, dsn string, logger interfaces.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	store := NewStore(pool, logger)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing pool.
func NewStore(pool Pool, logger interfaces.Logger) *Store {
	if logger == nil {
		logger = interfaces.NopLogger{}
	}
	return &Store{pool: pool, logger: logger}
}

// Migrate creates the articles table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Exists reports whether url is already stored.
func (s *Store) Exists(ctx context.Context, url string) (bool, error) {
	if s.pool == nil {
		return false, errors.New("database connection not available")
	}
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM articles WHERE url = $1)`, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check article exists: %w", err)
	}
	return exists, nil
}

// Save inserts article. An existing URL yields errors.ErrDuplicateArticle.
func (s *Store) Save(ctx context.Context, article *domain.CanonicalArticle) (*domain.CanonicalArticle, error) {
	if s.pool == nil {
		return nil, errors.New("database connection not available")
	}
	if !article.IsValid() {
		return nil, &coreerrors.ValidationError{Field: "article", Message: "url and content are required"}
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}

	var sentimentScore *float64
	var sentimentLabel *string
	if article.Sentiment != nil {
		sentimentScore = &article.Sentiment.Score
		sentimentLabel = &article.Sentiment.Label
	}

	tag, err := s.pool.Exec(ctx, insertArticle,
		article.URL,
		article.SourceCode,
		article.Title,
		article.Content,
		article.Author,
		utcPtr(article.PublishedAt),
		string(article.DateSource),
		nonNil(article.Symbols),
		nonNil(article.TradingPairs),
		domain.ClampScore(article.BreakingScore),
		article.IsBreaking,
		nonNil(article.BreakingReasons),
		sentimentScore,
		sentimentLabel,
		article.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, coreerrors.ErrDuplicateArticle
	}
	return article, nil
}

// ListBetween returns articles of sourceCode published in [start, end], oldest first.
// An empty sourceCode lists every source.
func (s *Store) ListBetween(ctx context.Context, sourceCode string, start, end time.Time) ([]*domain.CanonicalArticle, error) {
	if s.pool == nil {
		return nil, errors.New("database connection not available")
	}
	query := `SELECT ` + selectColumns + ` FROM articles WHERE published_at BETWEEN $1 AND $2`
	args := []any{start.UTC(), end.UTC()}
	if sourceCode != "" {
		query += ` AND source_code = $3`
		args = append(args, sourceCode)
	}
	query += ` ORDER BY published_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var out []*domain.CanonicalArticle
	for rows.Next() {
		var (
			a              domain.CanonicalArticle
			dateSource     string
			sentimentScore *float64
			sentimentLabel *string
		)
		if err := rows.Scan(
			&a.URL, &a.SourceCode, &a.Title, &a.Content, &a.Author, &a.PublishedAt, &dateSource,
			&a.Symbols, &a.TradingPairs, &a.BreakingScore, &a.IsBreaking, &a.BreakingReasons,
			&sentimentScore, &sentimentLabel, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.DateSource = domain.DateSource(dateSource)
		if sentimentScore != nil || sentimentLabel != nil {
			a.Sentiment = &domain.Sentiment{}
			if sentimentScore != nil {
				a.Sentiment.Score = *sentimentScore
			}
			if sentimentLabel != nil {
				a.Sentiment.Label = *sentimentLabel
			}
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return out, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
