package analytics

import (
	"testing"
	"time"

	"dukaan/backend/internal/domain"
)

func TestParseFlexibleDateAcceptedShapes(t *testing.T) {
	millis := time.Date(2024, 3, 15, 10, 20, 0, 0, time.UTC).UnixMilli()
	cases := []struct {
		name  string
		input any
		want  time.Time
	}{
		{name: "int64 millis", input: millis, want: time.UnixMilli(millis)},
		{name: "float millis", input: float64(millis), want: time.UnixMilli(millis)},
		{name: "numeric string", input: "1710498000000", want: time.UnixMilli(1710498000000)},
		{name: "flex date number", input: domain.FlexDate("1710498000000"), want: time.UnixMilli(1710498000000)},
		{name: "space separated", input: "2024-03-15 10:20:00", want: time.Date(2024, 3, 15, 10, 20, 0, 0, testZone)},
		{name: "iso utc", input: "2024-03-15T10:20:00Z", want: time.Date(2024, 3, 15, 10, 20, 0, 0, time.UTC)},
		{name: "iso fraction offset", input: "2024-03-15T10:20:00.250+01:00", want: time.Date(2024, 3, 15, 9, 20, 0, 250000000, time.UTC)},
		{name: "date only", input: "2024-03-15", want: time.Date(2024, 3, 15, 0, 0, 0, 0, testZone)},
		{name: "us slashes", input: "3/15/2024", want: time.Date(2024, 3, 15, 0, 0, 0, 0, testZone)},
		{name: "month name", input: "Mar 15, 2024", want: time.Date(2024, 3, 15, 0, 0, 0, 0, testZone)},
		{name: "rfc1123", input: "Fri, 15 Mar 2024 10:20:00 GMT", want: time.Date(2024, 3, 15, 10, 20, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got, ok := ParseFlexibleDateIn(tc.input, testZone)
		if !ok {
			t.Fatalf("%s: expected %v to parse", tc.name, tc.input)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
		if got.Location() != testZone {
			t.Fatalf("%s: expected result in requested zone, got %s", tc.name, got.Location())
		}
	}
}

func TestParseFlexibleDateRejectsGarbage(t *testing.T) {
	inputs := []any{nil, "", "   ", "not a date", "2024-13-45", domain.FlexDate(""), struct{}{}, 9e18}
	for _, input := range inputs {
		if got, ok := ParseFlexibleDateIn(input, testZone); ok {
			t.Fatalf("expected %v to be rejected, got %s", input, got)
		}
	}
}

func TestParseFlexibleDateDefaultsToLocal(t *testing.T) {
	got, ok := ParseFlexibleDate("2024-03-15 10:20")
	if !ok {
		t.Fatalf("expected date to parse")
	}
	if got.Location() != time.Local {
		t.Fatalf("expected local zone, got %s", got.Location())
	}
	if got.Hour() != 10 || got.Minute() != 20 {
		t.Fatalf("expected 10:20 local, got %s", got)
	}
}
