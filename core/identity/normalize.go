// ABOUTME: URL identity helpers used to match article pages against feed entries
// ABOUTME: Produces the exact, path-only and numeric-id variants of a URL

package identity

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	numericSegment = regexp.MustCompile(`^(\d{4,})(?:[\-_.]|$)`)
	postQuery      = regexp.MustCompile(`[?&]p=(\d+)`)
)

// Normalize trims the URL, forces https, lower-cases the host and drops a trailing slash.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "http://") {
		s = "https://" + strings.TrimPrefix(s, "http://")
	}
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		u.Host = strings.ToLower(u.Host)
		s = u.String()
	}
	return strings.TrimRight(s, "/")
}

// PathOnly normalizes the URL and strips its query and fragment.
func PathOnly(raw string) string {
	s := Normalize(raw)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, "/")
}

// NumericID returns the first path segment starting with four or more digits,
// or the value of a p= query parameter. It returns "" when neither exists.
// Year-like captures such as /2026/ or /2024-recap/ are skipped since dated
// permalinks and slugs share them.
func NumericID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	path := s
	if u, err := url.Parse(s); err == nil {
		path = u.Path
	} else if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, seg := range strings.Split(path, "/") {
		m := numericSegment.FindStringSubmatch(seg)
		if m == nil || isYear(m[1]) {
			continue
		}
		return m[1]
	}
	if m := postQuery.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func isYear(digits string) bool {
	return len(digits) == 4 && (strings.HasPrefix(digits, "19") || strings.HasPrefix(digits, "20"))
}

// HasPath reports whether the URL points below the site root.
func HasPath(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return strings.Trim(u.Path, "/") != ""
}
