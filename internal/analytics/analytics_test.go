package analytics

import (
	"time"

	"dukaan/backend/internal/domain"
)

var testZone = time.FixedZone("EAT", 3*60*60)

func fixedNow() time.Time {
	return time.Date(2024, time.March, 15, 14, 30, 0, 0, testZone)
}

func invoiceAt(id string, store string, date string, paid float64) domain.Invoice {
	return domain.Invoice{
		ID:     id,
		Store:  store,
		Date:   domain.FlexDate(date),
		Amount: domain.Number(paid),
		Paid:   domain.Number(paid),
		Status: domain.InvoiceStatusPaid,
	}
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
