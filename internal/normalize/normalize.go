// Package normalize holds the parse-or-default primitives shared by every
// derivation rule. Malformed cell values never produce errors here: dates
// collapse to an absent sentinel and numerics to zero, so a bad cell can
// never abort a batch.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order. The list covers the Jira REST
// timestamp form, the Jira CSV export form and the usual ISO variants.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/Jan/06 3:04 PM",
	"02/Jan/2006 3:04 PM",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ParseTimestamp parses a free-text date or timestamp value. The boolean is
// false when the value is empty or matches none of the known layouts; the
// zero time is the absent sentinel.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders a parsed timestamp in the canonical output form.
// The timezone offset is dropped, matching the naive timestamps the
// downstream systems expect.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// SecondsToHours converts a seconds value to hours rounded to two decimals,
// half away from zero. Empty or non-numeric input yields 0.
func SecondsToHours(s string) float64 {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return math.Round(seconds/3600*100) / 100
}

// FormatHours renders an hours value in minimal decimal form: 2 not 2.00,
// 0.03 not 0.030.
func FormatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
