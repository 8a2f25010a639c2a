// ABOUTME: DateReconciler resolves one UTC publication time from the page and feed signals
// ABOUTME: A feed timestamp only upgrades a missing or date-only page date

package dates

import (
	"time"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/errors"
	"newsfeed-canon/core/identity"
	"newsfeed-canon/core/interfaces"
	timeutil "newsfeed-canon/pkg/utils/time"
)

// Reconciler arbitrates between a page's own date and its feed entry.
type Reconciler struct {
	logger interfaces.Logger
}

// NewReconciler creates a reconciler. A nil logger discards output.
func NewReconciler(logger interfaces.Logger) *Reconciler {
	if logger == nil {
		logger = interfaces.NopLogger{}
	}
	return &Reconciler{logger: logger}
}

// Reconcile returns the publication time in UTC and the signal it came from.
//
// The feed entry for pageURL is looked up progressively (exact, path-only,
// canonical, numeric id). Its timestamp is used when the page date is absent
// or falls exactly on midnight, or always when preferFeed is set. Otherwise
// the page date stands. When neither yields a time a FieldUnresolvedError
// for the date field is returned.
func (r *Reconciler) Reconcile(pageURL string, fields *domain.ExtractedFields, index *identity.Index, preferFeed bool) (time.Time, domain.DateSource, error) {
	var (
		pageTime   time.Time
		pageOK     bool
		pageSource domain.DateSource
		canonical  []string
	)
	if fields != nil {
		canonical = fields.CanonicalURLs
		if fields.RawDate != "" {
			pageTime = timeutil.ParseFlexibleTime(fields.RawDate)
			pageOK = !pageTime.IsZero()
			pageSource = fields.RawDateSource
			if !pageOK {
				r.logger.Debug("Unparseable page date", map[string]interface{}{
					"url":      pageURL,
					"raw_date": fields.RawDate,
				})
			}
		}
	}

	var feedTime *time.Time
	if entry, ok := index.Lookup(pageURL, canonical...); ok && entry.PublishedAt != nil && !entry.PublishedAt.IsZero() {
		feedTime = entry.PublishedAt
	}

	if feedTime != nil && (!pageOK || preferFeed || timeutil.IsMidnight(pageTime)) {
		return feedTime.UTC(), domain.DateSourceFeed, nil
	}
	if pageOK {
		return pageTime.UTC(), pageSource, nil
	}
	return time.Time{}, domain.DateSourceNone, &errors.FieldUnresolvedError{Field: errors.FieldDate, URL: pageURL}
}
