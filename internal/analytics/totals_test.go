package analytics

import (
	"math"
	"testing"

	"dukaan/backend/internal/domain"
)

func TestComputeTotalsEmpty(t *testing.T) {
	got := ComputeTotals(nil)
	if got != (domain.Totals{}) {
		t.Fatalf("expected zero totals, got %+v", got)
	}
}

func TestComputeTotalsRevenueFallsBackToLegacyTotal(t *testing.T) {
	invoices := []domain.Invoice{
		{ID: "INV-1", Amount: 100, Paid: 40},
		{ID: "INV-2", Total: 60, Paid: 60},
		{ID: "INV-3", Amount: domain.Number(math.NaN()), Total: 5, Paid: domain.Number(math.Inf(1))},
	}
	got := ComputeTotals(invoices)
	if got.Count != 3 {
		t.Fatalf("expected count 3, got %d", got.Count)
	}
	if got.PaidSum != 100 {
		t.Fatalf("expected paid sum 100, got %v", got.PaidSum)
	}
	if got.RevenueSum != 165 {
		t.Fatalf("expected revenue sum 165, got %v", got.RevenueSum)
	}
}

func TestBalanceNeverNegative(t *testing.T) {
	if got := Balance(domain.Invoice{Amount: 10, Paid: 25}); got != 0 {
		t.Fatalf("expected balance 0 for overpaid invoice, got %v", got)
	}
	if got := Balance(domain.Invoice{Amount: 10, Paid: 2.5}); got != 7.5 {
		t.Fatalf("expected balance 7.5, got %v", got)
	}
}
