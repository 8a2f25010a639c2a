// ABOUTME: SymbolTagger finds mentions of known crypto assets in article text
// ABOUTME: Candidates from several pattern families are validated against the registry

package symbols

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxSymbols bounds the number of symbols attached to one article.
const DefaultMaxSymbols = 10

var (
	dollarPattern     = regexp.MustCompile(`\$([A-Z]{2,10})\b`)
	standalonePattern = regexp.MustCompile(`\b([A-Z]{2,10})\b`)
	pairPattern       = regexp.MustCompile(`\b([A-Z]{2,10}?)[-/]?USD[TC]?\b`)
	aliasPattern      = buildAliasPattern()
)

func buildAliasPattern() *regexp.Regexp {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, regexp.QuoteMeta(name))
	}
	// Longest first so "binance coin" wins over shorter overlaps
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return regexp.MustCompile(`\b(` + strings.Join(names, "|") + `)\b`)
}

// Tagger extracts symbols from title and content.
type Tagger struct {
	max int
}

// NewTagger creates a tagger that returns at most max symbols. max <= 0 uses the default.
func NewTagger(max int) *Tagger {
	if max <= 0 {
		max = DefaultMaxSymbols
	}
	return &Tagger{max: max}
}

// Tag returns the sorted, de-duplicated symbols mentioned in title and content.
func (t *Tagger) Tag(title, content string) []string {
	text := title + "\n\n" + content
	upper := strings.ToUpper(text)
	lower := strings.ToLower(text)

	found := make(map[string]struct{})
	add := func(candidate string) {
		if IsKnown(candidate) {
			found[candidate] = struct{}{}
		}
	}

	for _, m := range dollarPattern.FindAllStringSubmatch(upper, -1) {
		add(m[1])
	}
	// Standalone tickers are read from the original casing so words like "link" or "ton" don't count
	for _, m := range standalonePattern.FindAllStringSubmatch(text, -1) {
		if _, stop := stopwords[m[1]]; stop {
			continue
		}
		add(m[1])
	}
	for _, m := range aliasPattern.FindAllStringSubmatch(lower, -1) {
		add(aliases[m[1]])
	}
	for _, m := range pairPattern.FindAllStringSubmatch(upper, -1) {
		add(m[1])
	}

	out := make([]string, 0, len(found))
	for sym := range found {
		out = append(out, sym)
	}
	sort.Strings(out)
	if len(out) > t.max {
		out = out[:t.max]
	}
	return out
}

// TradingPairs maps each base symbol to its common quote pairs, e.g. BTC -> BTCUSDT.
func TradingPairs(symbols []string) []string {
	pairs := make([]string, 0, len(symbols)*len(quoteAssets))
	for _, sym := range symbols {
		for _, quote := range quoteAssets {
			pairs = append(pairs, sym+quote)
		}
	}
	return pairs
}
