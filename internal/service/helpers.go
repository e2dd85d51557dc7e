package service

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dukaan/backend/internal/analytics"
	"dukaan/backend/internal/domain"
)

func parseDate(raw any, loc *time.Location) (time.Time, bool) {
	return analytics.ParseFlexibleDateIn(raw, loc)
}

func sameDay(a time.Time, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(domain.Number(v).Float())
}

func lineTotal(price domain.Number, qty domain.Number) domain.Number {
	return domain.Number(money(price.Float()).Mul(money(qty.Float())).Round(2).InexactFloat64())
}

// normalizeItems trims names and fills a missing total with price * qty.
func normalizeItems(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" && item.Price == 0 && item.Qty == 0 && item.Total == 0 {
			continue
		}
		if item.Total.Float() == 0 {
			item.Total = lineTotal(item.Price, item.Qty)
		}
		out = append(out, item)
	}
	return out
}

func itemsTotal(items []domain.LineItem) domain.Number {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(money(item.Total.Float()))
	}
	return domain.Number(sum.Round(2).InexactFloat64())
}

func containsFold(haystack string, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

// sortNewestFirst orders records by parsed date, newest first. Records with
// unreadable dates go last, keeping their relative order.
func sortNewestFirst[T any](records []T, date func(T) domain.FlexDate, loc *time.Location) {
	type keyed struct {
		at time.Time
		ok bool
	}
	keys := make(map[int]keyed, len(records))
	idx := make([]int, len(records))
	for i := range records {
		idx[i] = i
		at, ok := parseDate(date(records[i]), loc)
		keys[i] = keyed{at: at, ok: ok}
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		ka, kb := keys[a], keys[b]
		switch {
		case ka.ok && !kb.ok:
			return -1
		case !ka.ok && kb.ok:
			return 1
		case !ka.ok && !kb.ok:
			return cmp.Compare(a, b)
		}
		return kb.at.Compare(ka.at)
	})
	sorted := make([]T, len(records))
	for i, j := range idx {
		sorted[i] = records[j]
	}
	copy(records, sorted)
}
