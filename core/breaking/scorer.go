// ABOUTME: BreakingScorer computes a bounded salience score for an article
// ABOUTME: Freshness, keyword and price-move signals add up; hard events force breaking status

package breaking

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/cloudflare/ahocorasick"

	"newsfeed-canon/core/domain"
)

const (
	DefaultWindow    = 2 * time.Hour
	DefaultThreshold = 0.6

	freshBonus          = 0.4
	titleKeywordBonus   = 0.4
	contentKeywordBonus = 0.2
	largeMoveBonus      = 0.4
	mediumMoveBonus     = 0.3
	largeMovePercent    = 10
	mediumMovePercent   = 7
)

var (
	titleKeywords = []string{
		"breaking", "just in", "urgent", "alert", "surge", "plunge", "spike", "tumbles", "soars",
		"hack", "exploit", "breach", "outage", "ban", "approved", "approval", "denied", "denial", "etf", "sec",
	}
	contentKeywords = append(append([]string{}, titleKeywords...), "price", "rally", "sell-off", "dump")

	moveWords = []string{"price", "rise", "drop", "surge", "plunge", "soar", "tumble"}

	hardEvents = []string{
		"halting withdrawals", "withdrawals halted", "withdrawals paused",
		"exchange outage", "downtime", "service disruption",
		"hack", "exploit", "security breach",
		"sec approves", "sec approved", "etf approved", "etf approval",
		"sec denies", "sec denied", "etf denied",
	}

	percentPattern = regexp.MustCompile(`(\d{1,3})\s?%`)
)

// Result is the outcome of scoring one article.
type Result struct {
	Score      float64
	IsBreaking bool
	HardEvent  bool
	Reasons    []string
}

// Scorer holds the compiled keyword matchers. It is safe for concurrent use.
type Scorer struct {
	window    time.Duration
	threshold float64

	title   *phraseMatcher
	content *phraseMatcher
	moves   *phraseMatcher
	hard    *phraseMatcher
}

// NewScorer creates a scorer; zero values fall back to the defaults.
func NewScorer(window time.Duration, threshold float64) *Scorer {
	if window <= 0 {
		window = DefaultWindow
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Scorer{
		window:    window,
		threshold: threshold,
		title:     newPhraseMatcher(titleKeywords),
		content:   newPhraseMatcher(contentKeywords),
		moves:     newPhraseMatcher(moveWords),
		hard:      newPhraseMatcher(hardEvents),
	}
}

// Score evaluates an article. publishedAt may be nil.
func (s *Scorer) Score(title, content string, publishedAt *time.Time, now time.Time) Result {
	var (
		score   float64
		reasons []string
	)

	if publishedAt != nil && now.Sub(*publishedAt) <= s.window {
		score += freshBonus
		reasons = append(reasons, "fresh")
	}

	if kw := s.title.first(title); kw != "" {
		score += titleKeywordBonus
		reasons = append(reasons, "title_keyword:"+kw)
	} else if kw := s.content.first(content); kw != "" {
		score += contentKeywordBonus
		reasons = append(reasons, "content_keyword:"+kw)
	}

	text := title + "\n" + content
	if pct, ok := maxPercent(text); ok && s.moves.first(text) != "" {
		switch {
		case pct >= largeMovePercent:
			score += largeMoveBonus
			reasons = append(reasons, fmt.Sprintf("price_move:%d%%", pct))
		case pct >= mediumMovePercent:
			score += mediumMoveBonus
			reasons = append(reasons, fmt.Sprintf("price_move:%d%%", pct))
		}
	}

	hard := false
	if ev := s.hard.first(text); ev != "" {
		hard = true
		reasons = append(reasons, "hard_event:"+ev)
	}

	score = round3(domain.ClampScore(score))
	return Result{
		Score:      score,
		IsBreaking: score >= s.threshold || hard,
		HardEvent:  hard,
		Reasons:    reasons,
	}
}

func maxPercent(text string) (int, bool) {
	best, found := 0, false
	for _, m := range percentPattern.FindAllStringSubmatch(text, -1) {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// phraseMatcher finds keywords on word boundaries using Aho-Corasick.
// Phrases of three letters or fewer must match a whole word; longer ones only
// need to start a word, so "surge" also matches "surges".
type phraseMatcher struct {
	phrases []string
	m       *ahocorasick.Matcher
}

func newPhraseMatcher(phrases []string) *phraseMatcher {
	patterns := make([]string, len(phrases))
	for i, p := range phrases {
		if len(p) <= 3 {
			patterns[i] = " " + p + " "
		} else {
			patterns[i] = " " + p
		}
	}
	return &phraseMatcher{phrases: phrases, m: ahocorasick.NewStringMatcher(patterns)}
}

// first returns the earliest-declared phrase present in text, or "".
func (pm *phraseMatcher) first(text string) string {
	if text == "" {
		return ""
	}
	hits := pm.m.Match([]byte(normalize(text)))
	if len(hits) == 0 {
		return ""
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if h < best {
			best = h
		}
	}
	return pm.phrases[best]
}

// normalize lower-cases text, turns punctuation into spaces and pads it so
// every word is surrounded by single spaces. Hyphens inside words are kept.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}
