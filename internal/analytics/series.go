package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"dukaan/backend/internal/domain"
)

const lifetimeBaselineMonths = 6

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ComputeSeries buckets paid amounts for the period and normalizes the
// result so it is always renderable.
func ComputeSeries(invoices []domain.Invoice, period Period, now time.Time) domain.Series {
	return NormalizeSeries(BuildSeries(invoices, period, now))
}

// BuildSeries returns the raw buckets for period. Unrecognised periods yield
// an empty series.
func BuildSeries(invoices []domain.Invoice, period Period, now time.Time) domain.Series {
	loc := now.Location()
	switch period {
	case PeriodLifetime:
		return lifetimeSeries(invoices, now)
	case PeriodToday, PeriodLive:
		labels := make([]string, 24)
		for h := range labels {
			labels[h] = fmt.Sprintf("%d:00", h)
		}
		data := make([]float64, 24)
		for _, inv := range invoices {
			dt, ok := ParseFlexibleDateIn(inv.Date, loc)
			if !ok {
				continue
			}
			data[dt.Hour()] += inv.Paid.Float()
		}
		return domain.Series{Labels: labels, Data: data}
	case PeriodWeekly:
		days := make([]time.Time, 0, 7)
		for back := 6; back >= 0; back-- {
			days = append(days, startOfDay(now.AddDate(0, 0, -back)))
		}
		data := make([]float64, len(days))
		for _, inv := range invoices {
			dt, ok := ParseFlexibleDateIn(inv.Date, loc)
			if !ok {
				continue
			}
			for i, day := range days {
				if sameDay(dt, day) {
					data[i] += inv.Paid.Float()
					break
				}
			}
		}
		labels := make([]string, len(days))
		for i, day := range days {
			labels[i] = fmt.Sprintf("%d/%d", day.Day(), int(day.Month()))
		}
		return domain.Series{Labels: labels, Data: data}
	case PeriodMonthly:
		year, month := now.Year(), now.Month()
		count := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
		labels := make([]string, count)
		for i := range labels {
			labels[i] = strconv.Itoa(i + 1)
		}
		data := make([]float64, count)
		for _, inv := range invoices {
			dt, ok := ParseFlexibleDateIn(inv.Date, loc)
			if !ok || dt.Year() != year || dt.Month() != month {
				continue
			}
			data[dt.Day()-1] += inv.Paid.Float()
		}
		return domain.Series{Labels: labels, Data: data}
	case PeriodYearly:
		labels := append([]string(nil), monthLabels...)
		data := make([]float64, 12)
		for _, inv := range invoices {
			dt, ok := ParseFlexibleDateIn(inv.Date, loc)
			if !ok || dt.Year() != now.Year() {
				continue
			}
			data[int(dt.Month())-1] += inv.Paid.Float()
		}
		return domain.Series{Labels: labels, Data: data}
	default:
		return domain.Series{Labels: []string{}, Data: []float64{}}
	}
}

func lifetimeSeries(invoices []domain.Invoice, now time.Time) domain.Series {
	sums := make(map[string]float64)
	for _, inv := range invoices {
		dt, ok := ParseFlexibleDateIn(inv.Date, now.Location())
		if !ok {
			continue
		}
		sums[monthKey(dt)] += inv.Paid.Float()
	}

	if len(sums) == 0 {
		labels := make([]string, 0, lifetimeBaselineMonths)
		for back := lifetimeBaselineMonths - 1; back >= 0; back-- {
			first := time.Date(now.Year(), now.Month()-time.Month(back), 1, 0, 0, 0, 0, now.Location())
			labels = append(labels, monthKey(first))
		}
		return domain.Series{Labels: labels, Data: make([]float64, len(labels))}
	}

	keys := make([]string, 0, len(sums))
	for key := range sums {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	data := make([]float64, len(keys))
	for i, key := range keys {
		data[i] = sums[key]
	}
	return domain.Series{Labels: keys, Data: data}
}

func monthKey(t time.Time) string {
	return fmt.Sprintf("%d-%02d", t.Year(), int(t.Month()))
}

// NormalizeSeries coerces values to finite numbers, keeps labels aligned with
// data and replaces an empty series with a single "No data" point.
func NormalizeSeries(s domain.Series) domain.Series {
	data := make([]float64, len(s.Data))
	for i, v := range s.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		data[i] = v
	}
	if len(data) == 0 {
		return domain.Series{Labels: []string{"No data"}, Data: []float64{0}}
	}

	labels := make([]string, len(data))
	for i := range labels {
		if i < len(s.Labels) {
			labels[i] = s.Labels[i]
			continue
		}
		labels[i] = strconv.Itoa(i + 1)
	}
	return domain.Series{Labels: labels, Data: data}
}
