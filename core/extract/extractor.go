// ABOUTME: FieldExtractor resolves title, content, author and raw date from an article page
// ABOUTME: Each field walks its own fallback chain; an exhausted chain leaves the field nil

package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/identity"
	"newsfeed-canon/core/interfaces"
	"newsfeed-canon/pkg/featureflags"
	htmlutil "newsfeed-canon/pkg/utils/html"
	timeutil "newsfeed-canon/pkg/utils/time"
)

const (
	defaultTitleSelector = "h1"

	// Content shorter than this keeps falling through to later tiers.
	minContentLength = 120
	// Below this the meta description is preferred over what was found.
	minFallbackContentLength = 80

	// Page HTML handed to the field assist is clipped to this many bytes.
	assistHTMLLimit = 15000
)

var defaultParagraphSelectors = []string{"article p", "div.article-paragraphs p", "div.at-text p"}

type metaKey struct {
	attr  string
	value string
}

var (
	titleMetaKeys = []metaKey{
		{"property", "og:title"},
		{"property", "twitter:title"},
		{"name", "twitter:title"},
		{"name", "parsely-title"},
		{"name", "title"},
	}
	descriptionMetaKeys = []metaKey{
		{"name", "description"},
		{"property", "og:description"},
		{"name", "twitter:description"},
	}
	authorMetaKeys = []metaKey{
		{"name", "author"},
		{"name", "authors"},
		{"name", "parsely-author"},
		{"name", "sailthru.author"},
		{"property", "article:author"},
	}
	twitterCreatorKeys = []metaKey{
		{"name", "twitter:creator"},
		{"property", "twitter:creator"},
	}
)

// Extractor turns a fetched article document into ExtractedFields.
type Extractor struct {
	assist interfaces.FieldAssist
	flags  featureflags.Manager
	logger interfaces.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFieldAssist enables the AI author tier. It only runs while the
// EnableAIExtraction flag is on.
func WithFieldAssist(assist interfaces.FieldAssist, flags featureflags.Manager) Option {
	return func(e *Extractor) {
		e.assist = assist
		e.flags = flags
	}
}

// WithLogger sets the logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an extractor with the given options.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{logger: interfaces.NopLogger{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract resolves every field of doc independently. index may be nil; when
// set, the matching feed entry supplies the last-resort author. An error is
// returned only when the document cannot be parsed at all.
func (e *Extractor) Extract(ctx context.Context, doc *domain.RawDocument, cfg *domain.SourceConfig, index *identity.Index) (*domain.ExtractedFields, error) {
	if doc == nil {
		return nil, fmt.Errorf("extract: nil document")
	}
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", doc.URL, err)
	}

	rules := &domain.FieldRules{}
	if cfg != nil && cfg.Article != nil {
		rules = cfg.Article
	}
	pageURL := doc.FinalURL
	if pageURL == "" {
		pageURL = doc.URL
	}

	nodes := jsonLDNodes(page)
	fields := &domain.ExtractedFields{
		CanonicalURLs: canonicalURLs(page, pageURL),
	}

	title := extractTitle(page, rules, nodes)
	fields.Title = optional(title)
	fields.Content = optional(e.extractContent(page, doc, pageURL, rules, nodes, title))
	fields.Author = optional(e.extractAuthor(ctx, page, doc, pageURL, rules, nodes, index, fields.CanonicalURLs))
	fields.RawDate, fields.RawDateSource = extractRawDate(page, rules, nodes)

	return fields, nil
}

func extractTitle(page *goquery.Document, rules *domain.FieldRules, nodes []ldNode) string {
	sel := rules.Title
	if sel == "" {
		sel = defaultTitleSelector
	}
	if t := nodeText(page.Find(sel).First()); t != "" {
		return t
	}
	if t := metaContent(page, titleMetaKeys...); t != "" {
		return t
	}
	for _, n := range withGraph(nodes) {
		if t := ldString(n, "headline", "name"); t != "" {
			return htmlutil.CollapseWhitespace(t)
		}
	}
	return ""
}

func (e *Extractor) extractContent(page *goquery.Document, doc *domain.RawDocument, pageURL string, rules *domain.FieldRules, nodes []ldNode, title string) string {
	var content string
	if rules.Content != "" {
		var parts []string
		page.Find(rules.Content).Each(func(_ int, s *goquery.Selection) {
			if t := nodeText(s); t != "" {
				parts = append(parts, t)
			}
		})
		content = strings.Join(parts, "\n\n")
	}
	if content == "" {
		content = nodeText(page.Find("article").First())
	}
	content = rejectTitle(content, title)

	if tooShort(content, minContentLength) {
		for _, n := range withGraph(nodes) {
			body := rejectTitle(htmlutil.StripHTML(ldString(n, "articleBody", "description")), title)
			if body != "" {
				content = body
				break
			}
		}
	}

	if tooShort(content, minContentLength) {
		selectors := rules.ParagraphSelectors
		if len(selectors) == 0 {
			selectors = defaultParagraphSelectors
		}
		var paras []string
		for _, sel := range selectors {
			page.Find(sel).Each(func(_ int, s *goquery.Selection) {
				if t := nodeText(s); t != "" {
					paras = append(paras, t)
				}
			})
		}
		if merged := rejectTitle(strings.Join(paras, "\n\n"), title); merged != "" {
			content = merged
		}
	}

	if tooShort(content, minContentLength) {
		if text := readableText(doc.Body, pageURL); len(text) > len(content) && rejectTitle(text, title) != "" {
			e.logger.Debug("Content resolved by readability", map[string]interface{}{"url": pageURL})
			content = text
		}
	}

	if tooShort(content, minFallbackContentLength) {
		for _, key := range descriptionMetaKeys {
			if desc := rejectTitle(metaContent(page, key), title); desc != "" {
				content = desc
				break
			}
		}
	}
	return content
}

func (e *Extractor) extractAuthor(ctx context.Context, page *goquery.Document, doc *domain.RawDocument, pageURL string, rules *domain.FieldRules, nodes []ldNode, index *identity.Index, canonical []string) string {
	author := ""
	if rules.Author != "" {
		node := page.Find(rules.Author).First()
		if goquery.NodeName(node) == "meta" {
			author = htmlutil.CollapseWhitespace(node.AttrOr("content", ""))
		}
		if author == "" {
			author = nodeText(node)
		}
	}
	if author == "" {
		author = metaContent(page, authorMetaKeys...)
	}
	if author == "" {
		author = strings.TrimPrefix(metaContent(page, twitterCreatorKeys...), "@")
	}
	if author == "" {
		var names []string
		for _, n := range nodes {
			names = append(names, ldAuthorNames(n)...)
		}
		if len(names) == 0 {
			for _, n := range nodes {
				names = append(names, graphPersons(n)...)
			}
		}
		author = strings.Join(dedupe(names), ", ")
	}
	if author == "" && e.assist != nil && e.flags != nil && e.flags.IsEnabled(ctx, featureflags.EnableAIExtraction) {
		a, err := e.assist.ExtractAuthor(ctx, pageURL, htmlutil.Clip(doc.Text(), assistHTMLLimit))
		if err != nil {
			e.logger.Warn("Author assist failed", map[string]interface{}{
				"url":   pageURL,
				"error": err.Error(),
			})
		} else {
			author = strings.TrimSpace(a)
		}
	}
	if author == "" {
		if entry, ok := index.Lookup(pageURL, canonical...); ok {
			author = strings.TrimSpace(entry.Author)
		}
	}
	return normalizeAuthor(author)
}

// normalizeAuthor title-cases slug-like bylines such as "jane-doe".
func normalizeAuthor(author string) string {
	if author == "" || !strings.Contains(author, "-") || strings.Contains(author, " ") {
		return author
	}
	return cases.Title(language.English).String(strings.ReplaceAll(author, "-", " "))
}

type dateCandidate struct {
	raw    string
	source domain.DateSource
}

// extractRawDate gathers the configured meta, <time> and JSON-LD dates and
// returns the first one carrying a time of day, else the first parseable one.
func extractRawDate(page *goquery.Document, rules *domain.FieldRules, nodes []ldNode) (string, domain.DateSource) {
	var candidates []dateCandidate
	if rules.DateMeta != "" {
		if v := metaContent(page, metaKey{"property", rules.DateMeta}, metaKey{"name", rules.DateMeta}); v != "" {
			candidates = append(candidates, dateCandidate{v, domain.DateSourceMeta})
		}
	}
	if tm := page.Find("time").First(); tm.Length() > 0 {
		v := strings.TrimSpace(tm.AttrOr("datetime", ""))
		if v == "" {
			v = nodeText(tm)
		}
		if v != "" {
			candidates = append(candidates, dateCandidate{v, domain.DateSourceTime})
		}
	}
	for _, n := range withGraph(nodes) {
		if v := ldString(n, "datePublished", "dateCreated", "dateModified"); v != "" {
			candidates = append(candidates, dateCandidate{v, domain.DateSourceJSONLD})
			break
		}
	}
	if len(candidates) == 0 {
		return "", domain.DateSourceNone
	}

	var firstParsed *dateCandidate
	for i := range candidates {
		t := timeutil.ParseFlexibleTime(candidates[i].raw)
		if t.IsZero() {
			continue
		}
		if !timeutil.IsMidnight(t) {
			return candidates[i].raw, candidates[i].source
		}
		if firstParsed == nil {
			firstParsed = &candidates[i]
		}
	}
	if firstParsed != nil {
		return firstParsed.raw, firstParsed.source
	}
	return candidates[0].raw, candidates[0].source
}

// canonicalURLs returns the page's rel=canonical link and og:url, resolved against pageURL.
func canonicalURLs(page *goquery.Document, pageURL string) []string {
	var out []string
	base, _ := url.Parse(pageURL)
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		if base != nil {
			if ref, err := url.Parse(raw); err == nil {
				raw = base.ResolveReference(ref).String()
			}
		}
		out = append(out, raw)
	}
	add(page.Find(`link[rel="canonical"]`).First().AttrOr("href", ""))
	add(metaContent(page, metaKey{"property", "og:url"}))
	return out
}

func metaContent(page *goquery.Document, keys ...metaKey) string {
	for _, k := range keys {
		var found string
		page.Find(fmt.Sprintf(`meta[%s=%q]`, k.attr, k.value)).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = htmlutil.CollapseWhitespace(s.AttrOr("content", ""))
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// readableText runs go-readability over the raw page and returns its text.
func readableText(body []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return ""
	}
	return htmlutil.CollapseWhitespace(article.TextContent)
}

// nodeText joins the text nodes under s with spaces, skipping script and style.
func nodeText(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return htmlutil.CollapseWhitespace(b.String())
}

func rejectTitle(text, title string) string {
	text = strings.TrimSpace(text)
	if text == "" || (title != "" && text == strings.TrimSpace(title)) {
		return ""
	}
	return text
}

func tooShort(text string, limit int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < limit
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
