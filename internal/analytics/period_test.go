package analytics

import (
	"testing"
	"time"
)

func TestResolvePeriodBounds(t *testing.T) {
	now := fixedNow()
	cases := []struct {
		period  Period
		bounded bool
		start   time.Time
	}{
		{period: PeriodToday, bounded: true, start: time.Date(2024, 3, 15, 0, 0, 0, 0, testZone)},
		{period: PeriodLive, bounded: true, start: time.Date(2024, 3, 15, 0, 0, 0, 0, testZone)},
		{period: PeriodWeekly, bounded: true, start: time.Date(2024, 3, 9, 0, 0, 0, 0, testZone)},
		{period: PeriodMonthly, bounded: true, start: time.Date(2024, 3, 1, 0, 0, 0, 0, testZone)},
		{period: PeriodYearly, bounded: true, start: time.Date(2024, 1, 1, 0, 0, 0, 0, testZone)},
		{period: PeriodLifetime, bounded: false},
		{period: Period("quarterly"), bounded: false},
	}

	for _, tc := range cases {
		bounds := ResolvePeriod(tc.period, now)
		if bounds.Bounded != tc.bounded {
			t.Fatalf("%s: expected bounded=%v, got %v", tc.period, tc.bounded, bounds.Bounded)
		}
		if !tc.bounded {
			continue
		}
		if !bounds.Start.Equal(tc.start) {
			t.Fatalf("%s: expected start %s, got %s", tc.period, tc.start, bounds.Start)
		}
		if !bounds.End.Equal(now) {
			t.Fatalf("%s: expected end at now, got %s", tc.period, bounds.End)
		}
	}
}

func TestParsePeriodDefaultsEmptyToLifetime(t *testing.T) {
	if got := ParsePeriod("  "); got != PeriodLifetime {
		t.Fatalf("expected lifetime, got %q", got)
	}
	if got := ParsePeriod("weekly"); got != PeriodWeekly {
		t.Fatalf("expected weekly, got %q", got)
	}
	if ParsePeriod("fortnight").Known() {
		t.Fatalf("expected unknown token to be reported as unknown")
	}
}

func TestBoundsContainsIsInclusive(t *testing.T) {
	now := fixedNow()
	bounds := ResolvePeriod(PeriodToday, now)
	if !bounds.Contains(bounds.Start) || !bounds.Contains(now) {
		t.Fatalf("expected both window edges to be included")
	}
	if bounds.Contains(now.Add(time.Millisecond)) {
		t.Fatalf("expected instants after now to be excluded")
	}
}
