// ABOUTME: Admin API handlers for crawl jobs, sources and stored articles
// ABOUTME: Translates HTTP requests into worker jobs and store queries

package handlers

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/errors"
	"newsfeed-canon/core/interfaces"
	"newsfeed-canon/core/workers"
	timeutil "newsfeed-canon/pkg/utils/time"
)

// AllSources selects every registered source
const AllSources = "all"

// JobQueue accepts crawl jobs. *workers.CrawlWorker implements it.
type JobQueue interface {
	Submit(job *workers.CrawlJob) (string, error)
	Cancel(id string) int
	Status(id string) (*workers.JobState, bool)
}

// SourceLister exposes the registered sources
type SourceLister interface {
	Codes() []string
	Hints(code string) (*domain.SourceConfig, bool)
}

// Handler serves the admin API
type Handler struct {
	jobs     JobQueue
	sources  SourceLister
	articles interfaces.ArticleReader
	logger   interfaces.Logger
}

// NewHandler creates a handler. articles may be nil, in which case article listing is disabled.
func NewHandler(jobs JobQueue, sources SourceLister, articles interfaces.ArticleReader, logger interfaces.Logger) *Handler {
	return &Handler{jobs: jobs, sources: sources, articles: articles, logger: logger}
}

// SourceSummary describes one registered source
type SourceSummary struct {
	Code           string `json:"code"`
	ListURL        string `json:"list_url,omitempty"`
	URLPrefix      string `json:"url_prefix,omitempty"`
	PreferFeedDate bool   `json:"prefer_feed_date"`
}

// JobAccepted is returned when a crawl job is queued
type JobAccepted struct {
	JobID   string   `json:"job_id"`
	Kind    string   `json:"kind"`
	Sources []string `json:"sources"`
}

// ArticleList is the body of the article listing
type ArticleList struct {
	Count    int                        `json:"count"`
	Articles []*domain.CanonicalArticle `json:"articles"`
}

// RegisterRoutes mounts the handler under group
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/sources", h.ListSources)
	group.POST("/crawl/cancel", h.CancelCrawl)
	group.GET("/crawl/jobs/:id", h.JobStatus)
	group.POST("/crawl/:source", h.CrawlLatest)
	group.POST("/crawl/:source/range", h.CrawlRange)
	group.GET("/articles", h.ListArticles)
}

// ListSources returns every registered source sorted by code
func (h *Handler) ListSources(c *gin.Context) {
	codes := h.sources.Codes()
	sort.Strings(codes)

	out := make([]SourceSummary, 0, len(codes))
	for _, code := range codes {
		summary := SourceSummary{Code: code}
		if cfg, ok := h.sources.Hints(code); ok && cfg != nil {
			summary.ListURL = cfg.ListURL
			summary.URLPrefix = cfg.URLPrefix
			summary.PreferFeedDate = cfg.PreferFeedDate
		}
		out = append(out, summary)
	}
	c.JSON(http.StatusOK, gin.H{"sources": out})
}

// CrawlLatest queues a latest crawl for one source, a comma separated list or "all"
func (h *Handler) CrawlLatest(c *gin.Context) {
	codes, err := h.resolveSources(c.Param("source"))
	if err != nil {
		writeError(c, err)
		return
	}
	h.submit(c, &workers.CrawlJob{Kind: workers.JobLatest, Sources: codes})
}

// CrawlRange queues a date range crawl. start and end accept RFC3339 or any common date format.
func (h *Handler) CrawlRange(c *gin.Context) {
	codes, err := h.resolveSources(c.Param("source"))
	if err != nil {
		writeError(c, err)
		return
	}
	start, end, err := parseWindow(c.Query("start"), c.Query("end"), true)
	if err != nil {
		writeError(c, err)
		return
	}
	h.submit(c, &workers.CrawlJob{Kind: workers.JobRange, Sources: codes, Start: start, End: end})
}

// CancelCrawl cancels the job named by ?job=, or every active job when it is omitted
func (h *Handler) CancelCrawl(c *gin.Context) {
	id := c.Query("job")
	cancelled := h.jobs.Cancel(id)
	if id != "" && cancelled == 0 {
		if _, ok := h.jobs.Status(id); !ok {
			writeError(c, &errors.NotFoundError{Resource: "job", ID: id})
			return
		}
	}

	h.logger.Info("Crawl cancel requested", map[string]interface{}{
		"job_id":    id,
		"cancelled": cancelled,
	})
	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

// JobStatus returns the state of one job
func (h *Handler) JobStatus(c *gin.Context) {
	id := c.Param("id")
	state, ok := h.jobs.Status(id)
	if !ok {
		writeError(c, &errors.NotFoundError{Resource: "job", ID: id})
		return
	}
	c.JSON(http.StatusOK, state)
}

// ListArticles returns stored articles published in [start, end], optionally for one source.
// The window defaults to the last 24 hours.
func (h *Handler) ListArticles(c *gin.Context) {
	if h.articles == nil {
		writeError(c, &errors.NotFoundError{Resource: "route", ID: c.Request.URL.Path})
		return
	}

	start, end, err := parseWindow(c.Query("start"), c.Query("end"), false)
	if err != nil {
		writeError(c, err)
		return
	}

	articles, err := h.articles.ListBetween(c.Request.Context(), c.Query("source"), start, end)
	if err != nil {
		h.logger.Error("Failed to list articles", map[string]interface{}{
			"error": err.Error(),
		})
		writeError(c, err)
		return
	}
	if articles == nil {
		articles = []*domain.CanonicalArticle{}
	}
	c.JSON(http.StatusOK, ArticleList{Count: len(articles), Articles: articles})
}

func (h *Handler) submit(c *gin.Context, job *workers.CrawlJob) {
	id, err := h.jobs.Submit(job)
	if err != nil {
		h.logger.Warn("Failed to queue crawl job", map[string]interface{}{
			"kind":  string(job.Kind),
			"error": err.Error(),
		})
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, JobAccepted{JobID: id, Kind: string(job.Kind), Sources: job.Sources})
}

// resolveSources expands "all" and comma lists into known source codes
func (h *Handler) resolveSources(param string) ([]string, error) {
	param = strings.TrimSpace(param)
	if param == "" {
		return nil, &errors.ValidationError{Field: "source", Message: "source is required"}
	}
	if strings.EqualFold(param, AllSources) {
		codes := h.sources.Codes()
		sort.Strings(codes)
		return codes, nil
	}

	var codes []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(param, ",") {
		code := strings.ToLower(strings.TrimSpace(part))
		if code == "" || seen[code] {
			continue
		}
		if _, ok := h.sources.Hints(code); !ok {
			return nil, &errors.NotFoundError{Resource: "source", ID: code}
		}
		seen[code] = true
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, &errors.ValidationError{Field: "source", Message: "source is required"}
	}
	return codes, nil
}

// parseWindow parses a start/end pair. When required is false, missing bounds default to the last 24 hours.
func parseWindow(rawStart, rawEnd string, required bool) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	start := end.Add(-24 * time.Hour)

	if rawStart != "" {
		t, ok := timeutil.ParseUTC(rawStart)
		if !ok {
			return time.Time{}, time.Time{}, &errors.ValidationError{Field: "start", Message: "unrecognized date"}
		}
		start = t
	} else if required {
		return time.Time{}, time.Time{}, &errors.ValidationError{Field: "start", Message: "start is required"}
	}

	if rawEnd != "" {
		t, ok := timeutil.ParseUTC(rawEnd)
		if !ok {
			return time.Time{}, time.Time{}, &errors.ValidationError{Field: "end", Message: "unrecognized date"}
		}
		end = t
	} else if required {
		return time.Time{}, time.Time{}, &errors.ValidationError{Field: "end", Message: "end is required"}
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, &errors.ValidationError{Field: "start", Message: "start must not be after end"}
	}
	return start, end, nil
}
