// Package sourcetime resolves the timestamps published by the scraped source
// into the business date that labels a snapshot. kworb publishes a "Last
// updated" marker in a handful of formats; pages are generated shortly after
// the tracking day closes, so the business date is the UTC day of the marker
// shifted back by a configurable offset.
package sourcetime

import (
	"regexp"
	"strings"
	"time"
)

// instantLayouts are attempted in order when parsing a source timestamp.
// Layouts without a zone are interpreted as UTC.
var instantLayouts = []struct {
	layout string
	naive  bool
}{
	{layout: "2006-01-02T15:04:05.999999999Z07:00"},
	{layout: "2006-01-02T15:04:05Z07:00"},
	{layout: "2006-01-02 15:04:05.999999999", naive: true},
	{layout: "2006-01-02 15:04:05", naive: true},
	{layout: "2006-01-02", naive: true},
}

// ParseInstant parses a published timestamp string into a UTC instant. The
// boolean reports whether any known layout matched.
func ParseInstant(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, candidate := range instantLayouts {
		if candidate.naive {
			if ts, err := time.ParseInLocation(candidate.layout, trimmed, time.UTC); err == nil {
				return ts.UTC(), true
			}
			continue
		}
		if ts, err := time.Parse(candidate.layout, trimmed); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

var lastUpdatedPatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	// 2025/10/06, optionally with a time component.
	{regexp.MustCompile(`Last updated:?\s*(\d{4}/\d{2}/\d{2}(?:\s+\d{2}:\d{2}(?::\d{2})?)?)`), ""},
	// 2025-10-06 or 2025-10-06 04:12:09.
	{regexp.MustCompile(`Last updated:?\s*(\d{4}-\d{2}-\d{2}(?:\s+\d{2}:\d{2}(?::\d{2})?)?)`), ""},
	// 10/06/2025 (month first).
	{regexp.MustCompile(`Last updated:?\s*(\d{2}/\d{2}/\d{4})`), "01/02/2006"},
}

var slashDateLayouts = []string{
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ExtractLastUpdated scans raw page HTML for the source's "Last updated"
// marker and returns it as a UTC instant. Markers without a time component
// resolve to midnight UTC of the stated day.
func ExtractLastUpdated(html string) (time.Time, bool) {
	for _, pattern := range lastUpdatedPatterns {
		match := pattern.re.FindStringSubmatch(html)
		if match == nil {
			continue
		}
		raw := strings.TrimSpace(match[1])
		if pattern.layout != "" {
			if ts, err := time.ParseInLocation(pattern.layout, raw, time.UTC); err == nil {
				return ts.UTC(), true
			}
			continue
		}
		for _, layout := range slashDateLayouts {
			if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// BusinessDate converts a source instant into the ISO date that labels the
// snapshot: the instant's UTC calendar day shifted back by offsetDays. The
// page publishes totals for the day that just closed, so midnight-adjacent
// instants on either side of a day boundary resolve to different dates.
func BusinessDate(instant time.Time, offsetDays int) string {
	return instant.UTC().AddDate(0, 0, -offsetDays).Format("2006-01-02")
}
