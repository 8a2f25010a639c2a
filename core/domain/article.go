// ABOUTME: Extraction working record and the canonical article produced from it
// ABOUTME: CanonicalArticle is keyed by URL and created at most once

package domain

import (
	"math"
	"time"
)

// DateSource records which signal produced a raw or reconciled date.
type DateSource string

const (
	DateSourceNone   DateSource = ""
	DateSourceMeta   DateSource = "meta"
	DateSourceTime   DateSource = "time"
	DateSourceJSONLD DateSource = "jsonld"
	DateSourceFeed   DateSource = "feed"
)

// ExtractedFields is the working record filled in by the extractor for one URL.
// Nil pointers mean the field's fallback chain was exhausted.
type ExtractedFields struct {
	Title         *string
	Content       *string
	Author        *string
	RawDate       string
	RawDateSource DateSource

	// CanonicalURLs holds the page's declared canonical link and og:url.
	CanonicalURLs []string
}

// Sentiment is attached to an article by an external analyzer.
type Sentiment struct {
	Score float64 `json:"score" db:"sentiment_score"`
	Label string  `json:"label" db:"sentiment_label"`
}

// CanonicalArticle is the deduplicated record for one real-world article.
type CanonicalArticle struct {
	URL             string     `json:"url" db:"url"`
	SourceCode      string     `json:"source_code" db:"source_code"`
	Title           string     `json:"title" db:"title"`
	Content         string     `json:"content" db:"content"`
	Author          *string    `json:"author,omitempty" db:"author"`
	PublishedAt     *time.Time `json:"published_at,omitempty" db:"published_at"`
	DateSource      DateSource `json:"date_source,omitempty" db:"date_source"`
	Symbols         []string   `json:"symbols" db:"-"`
	TradingPairs    []string   `json:"trading_pairs,omitempty" db:"-"`
	BreakingScore   float64    `json:"breaking_score" db:"breaking_score"`
	IsBreaking      bool       `json:"is_breaking" db:"is_breaking"`
	BreakingReasons []string   `json:"breaking_reasons,omitempty" db:"-"`
	Sentiment       *Sentiment `json:"sentiment,omitempty" db:"-"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// ClampScore bounds a salience score to [0,1].
func ClampScore(score float64) float64 {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// IsValid reports whether the article can be persisted.
func (a *CanonicalArticle) IsValid() bool {
	return a != nil && a.URL != "" && a.Content != ""
}

// InRange reports whether the article's publication time falls within [start, end].
// Articles without a resolved date never match.
func (a *CanonicalArticle) InRange(start, end time.Time) bool {
	if a.PublishedAt == nil {
		return false
	}
	t := a.PublishedAt.UTC()
	return !t.Before(start.UTC()) && !t.After(end.UTC())
}
