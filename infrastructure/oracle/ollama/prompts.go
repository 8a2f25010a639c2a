package ollama

import (
	"encoding/json"
	"fmt"
	"strings"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/interfaces"
)

const configSchema = `{
  "list_url": "https://...",
  "url_prefix": "https://...",
  "discovery": {"link_selector": "CSS selector for article links on the list page"},
  "article": {
    "title_selector": "h1",
    "content_selector": "CSS selector for the article body",
    "date_selector_meta": "article:published_time",
    "author_selector": "CSS selector or meta[name='author']"
  }
}`

func configPrompt(sourceCode string, hints *domain.SourceConfig, samples interfaces.HTMLSamples) (string, error) {
	hintJSON := []byte("{}")
	if hints != nil {
		var err error
		if hintJSON, err = json.Marshal(hints); err != nil {
			return "", fmt.Errorf("encode hints: %w", err)
		}
	}

	var b strings.Builder
	b.WriteString("Produce a crawler configuration for a news source as JSON.\n")
	fmt.Fprintf(&b, "Source: %s\n", sourceCode)
	fmt.Fprintf(&b, "Current configuration (may be incomplete or stale): %s\n", hintJSON)
	if samples.ListHTML != "" {
		b.WriteString("\nList page HTML (truncated):\n<BEGIN_HTML>\n")
		b.WriteString(samples.ListHTML)
		b.WriteString("\n<END_HTML>\n")
	}
	if samples.ArticleHTML != "" {
		b.WriteString("\nArticle page HTML (truncated):\n<BEGIN_HTML>\n")
		b.WriteString(samples.ArticleHTML)
		b.WriteString("\n<END_HTML>\n")
	}
	b.WriteString("\nUse exactly this shape:\n")
	b.WriteString(configSchema)
	b.WriteString("\n\nEvery selector must match a non-empty node in the HTML above.\n")
	return b.String(), nil
}

func authorPrompt(pageURL, html string) string {
	var b strings.Builder
	b.WriteString("Find the author of the news article below.\n")
	fmt.Fprintf(&b, "URL: %s\n", pageURL)
	b.WriteString("Look at byline links such as a[href*='/author/'], author meta tags, ")
	b.WriteString("JSON-LD author or Person nodes, and 'By ...' text near the headline.\n")
	b.WriteString(`Answer as {"author": "Full name, comma separated when several"}. Omit the field when unknown.`)
	b.WriteString("\n\n<BEGIN_HTML>\n")
	b.WriteString(html)
	b.WriteString("\n<END_HTML>\n")
	return b.String()
}

func sentimentPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Rate the market sentiment of this news article.\n")
	b.WriteString(`Answer as {"label": "positive|negative|neutral", "score": number between -1 and 1}.`)
	b.WriteString("\n\n")
	b.WriteString(text)
	return b.String()
}
