package analytics

import (
	"strings"
	"time"
)

type Period string

const (
	PeriodLifetime Period = "lifetime"
	PeriodLive     Period = "live"
	PeriodToday    Period = "today"
	PeriodWeekly   Period = "weekly"
	PeriodMonthly  Period = "monthly"
	PeriodYearly   Period = "yearly"
)

// Periods lists every recognised token in selector order.
var Periods = []Period{PeriodLifetime, PeriodLive, PeriodToday, PeriodWeekly, PeriodMonthly, PeriodYearly}

// ParsePeriod maps a raw token to a Period. An empty token means lifetime;
// any other unrecognised token is returned as is and handled by each caller.
func ParsePeriod(token string) Period {
	token = strings.TrimSpace(token)
	if token == "" {
		return PeriodLifetime
	}
	return Period(token)
}

func (p Period) Known() bool {
	for _, known := range Periods {
		if p == known {
			return true
		}
	}
	return false
}

// Bounds is an inclusive [Start, End] window. Bounded is false for lifetime
// and for unrecognised tokens.
type Bounds struct {
	Start   time.Time
	End     time.Time
	Bounded bool
}

func (b Bounds) Contains(t time.Time) bool {
	if !b.Bounded {
		return true
	}
	return !t.Before(b.Start) && !t.After(b.End)
}

// ResolvePeriod computes the window for p relative to now, in now's location.
func ResolvePeriod(p Period, now time.Time) Bounds {
	switch p {
	case PeriodLive, PeriodToday:
		return Bounds{Start: startOfDay(now), End: now, Bounded: true}
	case PeriodWeekly:
		return Bounds{Start: startOfDay(now.AddDate(0, 0, -6)), End: now, Bounded: true}
	case PeriodMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Bounds{Start: start, End: now, Bounded: true}
	case PeriodYearly:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return Bounds{Start: start, End: now, Bounded: true}
	default:
		return Bounds{}
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a time.Time, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
