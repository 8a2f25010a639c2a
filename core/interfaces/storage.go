// ABOUTME: Storage interfaces for persisted configs and canonical articles
// ABOUTME: Article uniqueness is enforced by the store, not by callers

package interfaces

import (
	"context"
	"time"

	"newsfeed-canon/core/domain"
)

// ArticleStore is the persistence gateway for canonical articles.
type ArticleStore interface {
	// Exists reports whether an article with this URL is already stored.
	Exists(ctx context.Context, url string) (bool, error)

	// Save persists a new article. It returns errors.ErrDuplicateArticle when the
	// URL is already present; an existing record is never overwritten.
	Save(ctx context.Context, article *domain.CanonicalArticle) (*domain.CanonicalArticle, error)
}

// ArticleReader is implemented by stores that can list stored articles.
type ArticleReader interface {
	ListBetween(ctx context.Context, sourceCode string, start, end time.Time) ([]*domain.CanonicalArticle, error)
}

// ConfigStore persists resolved source configs keyed by source code.
type ConfigStore interface {
	// Load returns the stored config or ErrCacheMiss when none exists.
	Load(ctx context.Context, sourceCode string) (*domain.SourceConfig, error)

	// Save replaces the stored config for cfg.SourceCode.
	Save(ctx context.Context, cfg *domain.SourceConfig) error
}
