// ABOUTME: Crawl engine runs discovery, extraction, reconciliation and scoring for each source
// ABOUTME: Each url is an isolated unit of work; only an invalid config stops a source

package crawl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsfeed-canon/core/breaking"
	"newsfeed-canon/core/config"
	"newsfeed-canon/core/dates"
	"newsfeed-canon/core/discovery"
	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/errors"
	"newsfeed-canon/core/extract"
	"newsfeed-canon/core/identity"
	"newsfeed-canon/core/interfaces"
	"newsfeed-canon/core/symbols"
)

// Mode is the kind of crawl run.
type Mode string

const (
	ModeLatest Mode = "latest"
	ModeRange  Mode = "range"
)

type outcome string

const (
	outcomeSaved     outcome = "saved"
	outcomeDuplicate outcome = "duplicate"
	outcomeSkipped   outcome = "skipped"
	outcomeFailed    outcome = "failed"
)

// Report summarizes one source crawl.
type Report struct {
	SourceCode string    `json:"source_code"`
	RunID      string    `json:"run_id"`
	Mode       Mode      `json:"mode"`
	ListURL    string    `json:"list_url,omitempty"`
	Strategy   string    `json:"strategy,omitempty"`
	Discovered int       `json:"discovered"`
	Saved      int       `json:"saved"`
	Duplicates int       `json:"duplicates"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Cancelled  bool      `json:"cancelled"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (r *Report) count(o outcome) {
	switch o {
	case outcomeSaved:
		r.Saved++
	case outcomeDuplicate:
		r.Duplicates++
	case outcomeSkipped:
		r.Skipped++
	case outcomeFailed:
		r.Failed++
	}
}

// HintSource supplies the static hints for a source code.
type HintSource interface {
	Hints(code string) (*domain.SourceConfig, bool)
}

// window bounds a range crawl. A nil window means latest mode.
type window struct {
	start, end time.Time
}

// Engine crawls sources into an ArticleStore.
type Engine struct {
	fetcher    interfaces.Fetcher
	store      interfaces.ArticleStore
	hints      HintSource
	resolver   *config.Resolver
	discoverer *discovery.Discoverer
	extractor  *extract.Extractor
	reconciler *dates.Reconciler
	tagger     *symbols.Tagger
	scorer     *breaking.Scorer
	sentiment  interfaces.SentimentAnalyzer
	metrics    *Metrics
	logger     interfaces.Logger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver sets the config resolver. The default resolves from hints only.
func WithResolver(r *config.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithExtractor sets the field extractor.
func WithExtractor(x *extract.Extractor) Option {
	return func(e *Engine) { e.extractor = x }
}

// WithScorer sets the breaking scorer.
func WithScorer(s *breaking.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithTagger sets the symbol tagger.
func WithTagger(t *symbols.Tagger) Option {
	return func(e *Engine) { e.tagger = t }
}

// WithSentiment attaches a sentiment analyzer. Its failures never drop an article.
func WithSentiment(s interfaces.SentimentAnalyzer) Option {
	return func(e *Engine) { e.sentiment = s }
}

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l interfaces.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the time source used for freshness scoring.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine. Unset collaborators take their defaults.
func NewEngine(fetcher interfaces.Fetcher, store interfaces.ArticleStore, hints HintSource, opts ...Option) *Engine {
	e := &Engine{
		fetcher: fetcher,
		store:   store,
		hints:   hints,
		logger:  interfaces.NopLogger{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.resolver == nil {
		e.resolver = config.NewResolver(nil, config.WithLogger(e.logger))
	}
	if e.extractor == nil {
		e.extractor = extract.NewExtractor(extract.WithLogger(e.logger))
	}
	if e.tagger == nil {
		e.tagger = symbols.NewTagger(0)
	}
	if e.scorer == nil {
		e.scorer = breaking.NewScorer(0, 0)
	}
	e.discoverer = discovery.NewDiscoverer(fetcher, e.logger)
	e.reconciler = dates.NewReconciler(e.logger)
	return e
}

// CrawlLatest discovers the current candidates of sourceCode and stores every new article.
func (e *Engine) CrawlLatest(ctx context.Context, sourceCode string) (*Report, error) {
	return e.crawl(ctx, sourceCode, nil)
}

// CrawlRange stores only articles whose reconciled publish time is within [start, end].
// Articles without a resolvable date are skipped.
func (e *Engine) CrawlRange(ctx context.Context, sourceCode string, start, end time.Time) (*Report, error) {
	if start.After(end) {
		return nil, &errors.ValidationError{Field: "start", Message: "start must not be after end"}
	}
	return e.crawl(ctx, sourceCode, &window{start: start.UTC(), end: end.UTC()})
}

func (e *Engine) crawl(ctx context.Context, sourceCode string, win *window) (*Report, error) {
	mode := ModeLatest
	if win != nil {
		mode = ModeRange
	}
	report := &Report{
		SourceCode: sourceCode,
		RunID:      uuid.NewString(),
		Mode:       mode,
		StartedAt:  e.now().UTC(),
	}
	fields := map[string]interface{}{"source": sourceCode, "run_id": report.RunID, "mode": string(mode)}

	e.metrics.inFlight(1)
	defer func() {
		e.metrics.inFlight(-1)
		report.FinishedAt = e.now().UTC()
		e.metrics.observeRun(sourceCode, mode, report.FinishedAt.Sub(report.StartedAt).Seconds())
	}()

	hints, ok := e.hints.Hints(sourceCode)
	if !ok {
		err := &errors.ConfigInvalidError{SourceCode: sourceCode, Reason: "unknown source"}
		report.Error = err.Error()
		return report, err
	}

	cfg := e.resolver.Resolve(ctx, sourceCode, hints, nil, false)
	if err := cfg.Validate(); err != nil {
		e.logger.Error("Source config is unusable, skipping source", withErr(fields, err))
		report.Error = err.Error()
		return report, err
	}

	res, err := e.discoverer.Discover(ctx, cfg, hints)
	if err != nil {
		e.logger.Error("Discovery failed, skipping source", withErr(fields, err))
		report.Error = err.Error()
		return report, err
	}
	report.ListURL = res.ListURL
	report.Strategy = string(res.Strategy)
	report.Discovered = len(res.URLs)
	e.metrics.discovered(sourceCode, report.Strategy, report.Discovered)

	for _, u := range res.URLs {
		if ctx.Err() != nil {
			report.Cancelled = true
			e.logger.Warn("Crawl cancelled", fields)
			break
		}
		// A started unit runs to completion; cancellation only takes effect between urls.
		o := e.processURL(context.WithoutCancel(ctx), cfg, res.Index, u, win, report.RunID)
		report.count(o)
		e.metrics.article(sourceCode, o)
	}

	e.logger.Info("Crawl finished", map[string]interface{}{
		"source":     sourceCode,
		"run_id":     report.RunID,
		"mode":       string(mode),
		"discovered": report.Discovered,
		"saved":      report.Saved,
		"duplicates": report.Duplicates,
		"skipped":    report.Skipped,
		"failed":     report.Failed,
		"cancelled":  report.Cancelled,
	})
	return report, nil
}

// processURL runs the per-url pipeline. Every failure is logged and folded into the outcome.
func (e *Engine) processURL(ctx context.Context, cfg *domain.SourceConfig, index *identity.Index, pageURL string, win *window, runID string) (o outcome) {
	fields := map[string]interface{}{"source": cfg.SourceCode, "url": pageURL, "run_id": runID}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Recovered from panic while processing article", map[string]interface{}{
				"source": cfg.SourceCode,
				"url":    pageURL,
				"run_id": runID,
				"panic":  fmt.Sprintf("%v", r),
			})
			o = outcomeFailed
		}
	}()

	exists, err := e.store.Exists(ctx, pageURL)
	if err != nil {
		e.logger.Warn("Existence check failed", withErr(fields, err))
		return outcomeFailed
	}
	if exists {
		return outcomeDuplicate
	}

	doc, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		e.logger.Warn("Article fetch failed", withErr(fields, err))
		return outcomeFailed
	}

	extracted, err := e.extractor.Extract(ctx, doc, cfg, index)
	if err != nil {
		e.logger.Warn("Article extraction failed", withErr(fields, err))
		return outcomeFailed
	}
	content := deref(extracted.Content)
	if strings.TrimSpace(content) == "" {
		e.logger.Info("No extractable content, dropping article", fields)
		return outcomeSkipped
	}
	if doc.FinalURL != "" && doc.FinalURL != pageURL {
		extracted.CanonicalURLs = append(extracted.CanonicalURLs, doc.FinalURL)
	}

	var publishedAt *time.Time
	published, dateSource, err := e.reconciler.Reconcile(pageURL, extracted, index, cfg.PreferFeedDate)
	if err == nil {
		publishedAt = &published
	} else {
		e.logger.Debug("Publish date unresolved", fields)
	}
	if win != nil {
		if publishedAt == nil || publishedAt.Before(win.start) || publishedAt.After(win.end) {
			return outcomeSkipped
		}
	}

	title := deref(extracted.Title)
	tags := e.tagger.Tag(title, content)
	score := e.scorer.Score(title, content, publishedAt, e.now())

	article := &domain.CanonicalArticle{
		URL:             pageURL,
		SourceCode:      cfg.SourceCode,
		Title:           title,
		Content:         content,
		Author:          extracted.Author,
		PublishedAt:     publishedAt,
		DateSource:      dateSource,
		Symbols:         tags,
		TradingPairs:    symbols.TradingPairs(tags),
		BreakingScore:   score.Score,
		IsBreaking:      score.IsBreaking,
		BreakingReasons: score.Reasons,
		CreatedAt:       e.now().UTC(),
	}
	if e.sentiment != nil {
		if s, label, err := e.sentiment.SentimentOf(ctx, title+"\n\n"+content); err == nil {
			article.Sentiment = &domain.Sentiment{Score: s, Label: label}
		} else {
			e.logger.Warn("Sentiment analysis failed", withErr(fields, err))
		}
	}

	if _, err := e.store.Save(ctx, article); err != nil {
		if errors.IsDuplicate(err) {
			return outcomeDuplicate
		}
		e.logger.Error("Saving article failed", withErr(fields, err))
		return outcomeFailed
	}
	e.logger.Info("Saved article", map[string]interface{}{
		"source":      cfg.SourceCode,
		"url":         pageURL,
		"run_id":      runID,
		"symbols":     tags,
		"is_breaking": article.IsBreaking,
	})
	return outcomeSaved
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func withErr(fields map[string]interface{}, err error) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
