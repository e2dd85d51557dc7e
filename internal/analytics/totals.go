package analytics

import "dukaan/backend/internal/domain"

func ComputeTotals(invoices []domain.Invoice) domain.Totals {
	totals := domain.Totals{Count: len(invoices)}
	for _, inv := range invoices {
		totals.PaidSum += inv.Paid.Float()
		totals.RevenueSum += Revenue(inv)
	}
	return totals
}

// Revenue is the nominal value of an invoice: amount, or the legacy total
// field when amount is missing or zero.
func Revenue(inv domain.Invoice) float64 {
	if amount := inv.Amount.Float(); amount != 0 {
		return amount
	}
	return inv.Total.Float()
}

// Balance is what the customer still owes, never negative.
func Balance(inv domain.Invoice) float64 {
	due := inv.Amount.Float() - inv.Paid.Float()
	if due < 0 {
		return 0
	}
	return due
}
