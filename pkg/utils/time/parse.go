// ABOUTME: Time parsing utilities for page and feed timestamps
// ABOUTME: Tries a fixed layout list first, then falls back to dateparse for looser formats

package time

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layouts commonly found in article meta tags, <time> elements, JSON-LD and feeds
var timeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC822Z,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"02 Jan 2006 15:04:05 MST",
	"02 Jan 2006 15:04:05 -0700",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"January 2, 2006 15:04 MST",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseFlexibleTime attempts to parse a time string using the layout list and then dateparse.
// It returns the zero time when nothing matches.
func ParseFlexibleTime(timeStr string) time.Time {
	timeStr = strings.TrimSpace(timeStr)
	if timeStr == "" {
		return time.Time{}
	}

	for _, format := range timeFormats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t
		}
	}

	// Strings without a zone are read as UTC
	if t, err := dateparse.ParseIn(timeStr, time.UTC); err == nil {
		return t
	}

	return time.Time{}
}

// ParseUTC parses a timestamp and normalizes it to UTC.
func ParseUTC(timeStr string) (time.Time, bool) {
	t := ParseFlexibleTime(timeStr)
	if t.IsZero() {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// ParseWithDefault attempts to parse a time string, returning a default if parsing fails
func ParseWithDefault(timeStr string, defaultTime time.Time) time.Time {
	if parsed := ParseFlexibleTime(timeStr); !parsed.IsZero() {
		return parsed
	}
	return defaultTime
}

// IsMidnight reports whether t carries no time-of-day in its own zone,
// which usually means the source only published a date.
func IsMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}
