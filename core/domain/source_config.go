// ABOUTME: SourceConfig domain model describes how one news source is crawled and extracted
// ABOUTME: Provides structural validation and selector sanitizing for cached or generated configs

package domain

import (
	"net/url"
	"strings"

	coreerrors "newsfeed-canon/core/errors"
)

// DefaultArticlePathSegments are the path fragments heuristic discovery accepts
// when a source does not configure its own.
var DefaultArticlePathSegments = []string{"/news/", "/world/", "/business/", "/markets/", "/technology/"}

// SourceConfig describes how to discover and extract articles for one source.
// A resolved config is treated as immutable for the duration of a crawl pass.
type SourceConfig struct {
	SourceCode      string        `json:"source_code" yaml:"source_code" mapstructure:"source_code"`
	ListURL         string        `json:"list_url" yaml:"list_url" mapstructure:"list_url"`
	URLPrefix       string        `json:"url_prefix,omitempty" yaml:"url_prefix" mapstructure:"url_prefix"`
	Discovery       DiscoveryRule `json:"discovery" yaml:"discovery" mapstructure:"discovery"`
	Article         *FieldRules   `json:"article" yaml:"article" mapstructure:"article"`
	IncludePatterns []string      `json:"feed_include_patterns,omitempty" yaml:"feed_include_patterns" mapstructure:"feed_include_patterns"`
	ExcludePatterns []string      `json:"feed_exclude_patterns,omitempty" yaml:"feed_exclude_patterns" mapstructure:"feed_exclude_patterns"`
	PreferFeedDate  bool          `json:"prefer_rss_date,omitempty" yaml:"prefer_rss_date" mapstructure:"prefer_rss_date"`
}

// DiscoveryRule configures HTML-based link discovery.
type DiscoveryRule struct {
	LinkSelector        string   `json:"link_selector,omitempty" yaml:"link_selector" mapstructure:"link_selector"`
	ArticlePathSegments []string `json:"article_path_segments,omitempty" yaml:"article_path_segments" mapstructure:"article_path_segments"`
}

// FieldRules holds the per-field selectors used by the extractor.
type FieldRules struct {
	Title              string   `json:"title_selector" yaml:"title_selector" mapstructure:"title_selector"`
	Content            string   `json:"content_selector" yaml:"content_selector" mapstructure:"content_selector"`
	Author             string   `json:"author_selector,omitempty" yaml:"author_selector" mapstructure:"author_selector"`
	DateMeta           string   `json:"date_selector_meta" yaml:"date_selector_meta" mapstructure:"date_selector_meta"`
	ParagraphSelectors []string `json:"paragraph_selectors,omitempty" yaml:"paragraph_selectors" mapstructure:"paragraph_selectors"`
}

// Validate reports whether the config is usable for a crawl.
func (c *SourceConfig) Validate() error {
	if c == nil {
		return &coreerrors.ConfigInvalidError{Reason: "config is nil"}
	}
	if strings.TrimSpace(c.ListURL) == "" {
		return &coreerrors.ConfigInvalidError{SourceCode: c.SourceCode, Reason: "list_url is empty"}
	}
	if c.Article == nil {
		return &coreerrors.ConfigInvalidError{SourceCode: c.SourceCode, Reason: "article rules missing"}
	}
	switch {
	case strings.TrimSpace(c.Article.Title) == "":
		return &coreerrors.ConfigInvalidError{SourceCode: c.SourceCode, Reason: "title_selector is empty"}
	case strings.TrimSpace(c.Article.Content) == "":
		return &coreerrors.ConfigInvalidError{SourceCode: c.SourceCode, Reason: "content_selector is empty"}
	case strings.TrimSpace(c.Article.DateMeta) == "":
		return &coreerrors.ConfigInvalidError{SourceCode: c.SourceCode, Reason: "date_selector_meta is empty"}
	}
	return nil
}

// IsValid is a convenience wrapper around Validate.
func (c *SourceConfig) IsValid() bool {
	return c.Validate() == nil
}

// Sanitize trims every selector and drops blank pattern entries in place.
func (c *SourceConfig) Sanitize() {
	if c == nil {
		return
	}
	c.SourceCode = strings.TrimSpace(c.SourceCode)
	c.ListURL = strings.TrimSpace(c.ListURL)
	c.URLPrefix = strings.TrimSpace(c.URLPrefix)
	c.Discovery.LinkSelector = strings.TrimSpace(c.Discovery.LinkSelector)
	c.Discovery.ArticlePathSegments = compact(c.Discovery.ArticlePathSegments)
	c.IncludePatterns = compact(c.IncludePatterns)
	c.ExcludePatterns = compact(c.ExcludePatterns)
	if c.Article != nil {
		c.Article.Title = strings.TrimSpace(c.Article.Title)
		c.Article.Content = strings.TrimSpace(c.Article.Content)
		c.Article.Author = strings.TrimSpace(c.Article.Author)
		c.Article.DateMeta = strings.TrimSpace(c.Article.DateMeta)
		c.Article.ParagraphSelectors = compact(c.Article.ParagraphSelectors)
	}
}

// Clone returns a deep copy so callers can adjust a config without touching a shared one.
func (c *SourceConfig) Clone() *SourceConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Discovery.ArticlePathSegments = append([]string(nil), c.Discovery.ArticlePathSegments...)
	out.IncludePatterns = append([]string(nil), c.IncludePatterns...)
	out.ExcludePatterns = append([]string(nil), c.ExcludePatterns...)
	if c.Article != nil {
		rules := *c.Article
		rules.ParagraphSelectors = append([]string(nil), c.Article.ParagraphSelectors...)
		out.Article = &rules
	}
	return &out
}

// BaseURL returns scheme://host of the URL prefix, or of the list URL when no prefix is set.
func (c *SourceConfig) BaseURL() string {
	raw := c.URLPrefix
	if raw == "" {
		raw = c.ListURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}

// PathSegments returns the configured article path segments or the defaults.
func (c *SourceConfig) PathSegments() []string {
	if len(c.Discovery.ArticlePathSegments) > 0 {
		return c.Discovery.ArticlePathSegments
	}
	return DefaultArticlePathSegments
}

func compact(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
