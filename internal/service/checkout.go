package service

import (
	"context"
	"strings"

	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/store"
	"dukaan/backend/internal/xid"
)

// Checkout sells or records a cart. In sell mode an invoice and a report
// entry are written; record mode only writes the report entry. Stock is
// decremented in both modes.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = domain.CheckoutModeSell
	}
	if mode != domain.CheckoutModeSell && mode != domain.CheckoutModeRecord {
		return domain.CheckoutResponse{}, invalid("unknown checkout mode %q", req.Mode)
	}
	if len(req.Items) == 0 {
		return domain.CheckoutResponse{}, invalid("cart is empty")
	}
	status, err := normalizeStatus(req.Status, domain.InvoiceStatusPaid)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	date, err := s.resolveDate(req.Date)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	customer := strings.TrimSpace(req.Customer)
	phone := strings.TrimSpace(req.Phone)

	build := func(products []domain.Product) (*domain.Invoice, domain.ReportEntry, error) {
		items := make([]domain.LineItem, 0, len(products))
		for i, p := range products {
			qty := domain.Number(req.Items[i].Qty)
			items = append(items, domain.LineItem{
				Name:  p.Name,
				Price: p.Price,
				Qty:   qty,
				Total: lineTotal(p.Price, qty),
			})
		}
		total := itemsTotal(items)

		var paid domain.Number
		switch {
		case status == domain.InvoiceStatusPaid:
			paid = total
		case mode == domain.CheckoutModeRecord:
			paid = 0
		default:
			paid = domain.Number(req.Paid.Float())
			if paid < 0 || paid > total {
				return nil, domain.ReportEntry{}, invalid("paid must be between 0 and %v", total.Float())
			}
		}

		report := newReportEntry(actor.Store, date, items, total, paid, status, customer, phone)

		if mode == domain.CheckoutModeRecord {
			return nil, report, nil
		}
		invoice := &domain.Invoice{
			ID:       xid.New(xid.InvoicePrefix),
			Store:    actor.Store,
			Date:     date,
			Customer: defaultString(customer, domain.DefaultCustomer),
			Phone:    phone,
			Items:    items,
			Amount:   total,
			Paid:     paid,
			Status:   status,
		}
		return invoice, report, nil
	}

	resp, err := s.repo.Checkout(ctx, actor.Store, req.Items, store.SaleBuilder(build))
	s.metrics.CheckoutDone(mode, err)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	s.invalidateDashboard(ctx, actor.Store)
	s.log.Info().Str("store", actor.Store).Str("mode", mode).Float64("amount", resp.Report.Amount.Float()).Msg("checkout completed")
	return *resp, nil
}

// newReportEntry builds a sale entry. The amount falls back to the item
// totals when zero, and an empty status is derived from paid versus amount.
func newReportEntry(storeName string, date domain.FlexDate, items []domain.LineItem, amount, paid domain.Number, status, customer, phone string) domain.ReportEntry {
	if amount.Float() == 0 {
		amount = itemsTotal(items)
	}
	if status == "" {
		status = domain.InvoiceStatusUnpaid
		if paid >= amount {
			status = domain.InvoiceStatusPaid
		}
	}
	return domain.ReportEntry{
		ID:       xid.New(xid.ReportPrefix),
		Date:     date,
		Store:    storeName,
		Items:    items,
		Amount:   amount,
		Paid:     paid,
		Due:      domain.Number(money(amount.Float()).Sub(money(paid.Float())).Round(2).InexactFloat64()),
		Status:   status,
		Type:     domain.ReportTypeSale,
		Customer: defaultString(customer, domain.DefaultCustomer),
		Phone:    defaultString(phone, domain.DefaultPhone),
	}
}

func normalizeStatus(raw string, fallback string) (string, error) {
	status := strings.ToLower(strings.TrimSpace(raw))
	switch status {
	case "":
		return fallback, nil
	case domain.InvoiceStatusPaid, domain.InvoiceStatusUnpaid:
		return status, nil
	default:
		return "", invalid("unknown status %q", raw)
	}
}

func defaultString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
