package analytics

import (
	"strings"
	"time"

	"dukaan/backend/internal/domain"
)

// FilterInvoicesByPeriod returns the invoices owned by store (case-insensitive
// exact match) whose date falls inside the period window. Unbounded periods
// keep every invoice of the store, including ones with unreadable dates;
// bounded periods drop those. Input order is preserved.
func FilterInvoicesByPeriod(all []domain.Invoice, store string, period Period, now time.Time) []domain.Invoice {
	bounds := ResolvePeriod(period, now)
	result := make([]domain.Invoice, 0, len(all))
	for _, inv := range all {
		if !SameStore(inv.Store, store) {
			continue
		}
		if bounds.Bounded {
			dt, ok := ParseFlexibleDateIn(inv.Date, now.Location())
			if !ok || !bounds.Contains(dt) {
				continue
			}
		}
		result = append(result, inv)
	}
	return result
}

// SameStore compares store keys the way every owner lookup does.
func SameStore(a string, b string) bool {
	return strings.EqualFold(a, b)
}
