// ABOUTME: HTML utilities for turning markup fragments into plain text
// ABOUTME: Used for feed summaries and any text pulled out of raw HTML attributes

package html

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"
)

var strictPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// StripHTML removes every tag, decodes entities and collapses whitespace
func StripHTML(markup string) string {
	if markup == "" {
		return ""
	}
	text := strictPolicy.Sanitize(markup)
	return CollapseWhitespace(DecodeEntities(text))
}

// DecodeEntities decodes named and numeric HTML entities
func DecodeEntities(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	return nethtml.UnescapeString(text)
}

// CollapseWhitespace trims text and folds every whitespace run into one space
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Clip truncates s to at most n bytes without splitting a UTF-8 sequence
func Clip(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
