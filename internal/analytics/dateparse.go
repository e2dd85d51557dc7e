package analytics

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"dukaan/backend/internal/domain"
)

// maxEpochMillis is the largest magnitude a calendar date can have.
const maxEpochMillis = 8.64e15

// Zone-less layouts, date-only included, are read in the caller's location,
// so "2024-03-15" is local midnight rather than UTC midnight.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

var genericLayouts = []string{
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 02 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.RFC822,
	time.RFC822Z,
	time.ANSIC,
	time.UnixDate,
	time.RubyDate,
}

// ParseFlexibleDate parses an invoice date in the local time zone.
func ParseFlexibleDate(input any) (time.Time, bool) {
	return ParseFlexibleDateIn(input, time.Local)
}

// ParseFlexibleDateIn accepts, in order: nil or empty (none), a number or a
// numeric string (epoch milliseconds), an ISO-8601 string where the first
// space may stand in for "T", and a fixed list of common layouts. Values
// without a zone are read in loc. Anything else yields false.
func ParseFlexibleDateIn(input any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	switch v := input.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v.In(loc), true
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return v.In(loc), true
	case int:
		return fromMillis(float64(v), loc)
	case int32:
		return fromMillis(float64(v), loc)
	case int64:
		return fromMillis(float64(v), loc)
	case float32:
		return fromMillis(float64(v), loc)
	case float64:
		return fromMillis(v, loc)
	case domain.Number:
		return fromMillis(float64(v), loc)
	case json.Number:
		return parseDateString(string(v), loc)
	case domain.FlexDate:
		return parseDateString(string(v), loc)
	case string:
		return parseDateString(v, loc)
	default:
		return time.Time{}, false
	}
}

func parseDateString(raw string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return fromMillis(n, loc)
	}

	iso := strings.Replace(s, " ", "T", 1)
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, iso, loc); err == nil {
			return t.In(loc), true
		}
	}

	// Date.toString() output carries a trailing zone name in parentheses.
	if idx := strings.Index(s, " ("); idx > 0 && strings.HasSuffix(s, ")") {
		s = s[:idx]
	}
	for _, layout := range genericLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

func fromMillis(ms float64, loc *time.Location) (time.Time, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).In(loc), true
}
