// ABOUTME: Interfaces for the external services the ingestion core consults
// ABOUTME: The oracle and sentiment providers are untrusted and always optional

package interfaces

import (
	"context"

	"newsfeed-canon/core/domain"
)

// HTMLSamples are clipped page bodies handed to the config oracle.
type HTMLSamples struct {
	ListHTML    string `json:"list_html,omitempty"`
	ArticleHTML string `json:"article_html,omitempty"`
}

// ConfigOracle generates a candidate extraction config as raw text.
// The output is untrusted and must be validated by the caller.
type ConfigOracle interface {
	GenerateConfig(ctx context.Context, sourceCode string, hints *domain.SourceConfig, samples HTMLSamples) (string, error)
}

// FieldAssist asks an external model for a single field the selectors missed.
type FieldAssist interface {
	ExtractAuthor(ctx context.Context, pageURL, html string) (string, error)
}

// SentimentAnalyzer scores article text. It is computed outside the core and
// only attached to the canonical record.
type SentimentAnalyzer interface {
	SentimentOf(ctx context.Context, text string) (score float64, label string, err error)
}
