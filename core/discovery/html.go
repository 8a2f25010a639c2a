// ABOUTME: HTML link discovery for list pages that are neither feeds nor sitemaps
// ABOUTME: Tries the configured link selector first, then article-path heuristics

package discovery

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/identity"
)

// selectorLinks collects hrefs of nodes matching the configured selector,
// resolved against the URL prefix (or base URL), normalized and kept only on the base host.
func selectorLinks(page *goquery.Document, cfg *domain.SourceConfig) []string {
	selector := strings.TrimSpace(cfg.Discovery.LinkSelector)
	base := cfg.BaseURL()
	if selector == "" || base == "" {
		return nil
	}
	resolveAgainst := cfg.URLPrefix
	if resolveAgainst == "" {
		resolveAgainst = base
	}

	var urls []string
	page.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			href, ok = s.Find("a[href]").First().Attr("href")
		}
		if !ok {
			return
		}
		full := identity.Normalize(resolve(resolveAgainst, href))
		if sameHost(full, base) {
			urls = append(urls, full)
		}
	})
	return urls
}

// heuristicLinks collects every anchor on the base host whose URL contains
// one of the article path segments.
func heuristicLinks(page *goquery.Document, cfg *domain.SourceConfig) []string {
	base := cfg.BaseURL()
	if base == "" {
		return nil
	}
	segments := cfg.PathSegments()

	var urls []string
	page.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		full := identity.Normalize(resolve(base, s.AttrOr("href", "")))
		if !sameHost(full, base) {
			return
		}
		for _, seg := range segments {
			if strings.Contains(full, seg) {
				urls = append(urls, full)
				return
			}
		}
	})
	return urls
}

// sameHost reports whether full points at the host of base. Schemes are not
// compared since normalization upgrades http links.
func sameHost(full, base string) bool {
	if full == "" {
		return false
	}
	u, err := url.Parse(full)
	if err != nil || u.Host == "" {
		return false
	}
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return false
	}
	return strings.EqualFold(u.Hostname(), b.Hostname()) && u.Port() == b.Port()
}

func parseHTML(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// resolve returns href unchanged when absolute, else joined onto base.
func resolve(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}
