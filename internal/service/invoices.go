package service

import (
	"context"
	"strings"

	"dukaan/backend/internal/analytics"
	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/xid"
)

// ListInvoices returns the caller's invoices matching filter, newest first.
func (s *Service) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.ListInvoices(ctx, actor.Store)
	if err != nil {
		return nil, err
	}

	now := s.now()
	invoices := analytics.FilterInvoicesByPeriod(all, actor.Store, analytics.ParsePeriod(filter.Period), now)

	status := strings.ToLower(strings.TrimSpace(filter.Status))
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	matched := invoices[:0]
	for _, inv := range invoices {
		if status != "" && invoiceStatus(inv) != status {
			continue
		}
		if query != "" && !containsFold(inv.ID, query) && !containsFold(inv.Customer, query) && !containsFold(inv.Phone, query) {
			continue
		}
		matched = append(matched, inv)
	}

	sortNewestFirst(matched, func(inv domain.Invoice) domain.FlexDate { return inv.Date }, now.Location())
	return matched, nil
}

func (s *Service) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}
	inv, err := s.repo.GetInvoice(ctx, actor.Store, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	return *inv, nil
}

// CreateInvoice records a manual invoice. Its amount is the sum of the item
// totals.
func (s *Service) CreateInvoice(ctx context.Context, req domain.InvoiceRequest) (domain.Invoice, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}
	inv := domain.Invoice{ID: xid.New(xid.InvoicePrefix), Store: actor.Store}
	if err := s.applyInvoiceRequest(&inv, req); err != nil {
		return domain.Invoice{}, err
	}

	created, err := s.repo.CreateInvoice(ctx, inv)
	if err != nil {
		return domain.Invoice{}, err
	}
	s.invalidateDashboard(ctx, actor.Store)
	return *created, nil
}

func (s *Service) UpdateInvoice(ctx context.Context, id string, req domain.InvoiceRequest) (domain.Invoice, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}
	existing, err := s.repo.GetInvoice(ctx, actor.Store, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if strings.TrimSpace(req.Date) == "" {
		req.Date = existing.Date.String()
	}
	if err := s.applyInvoiceRequest(existing, req); err != nil {
		return domain.Invoice{}, err
	}

	updated, err := s.repo.UpdateInvoice(ctx, *existing)
	if err != nil {
		return domain.Invoice{}, err
	}
	s.invalidateDashboard(ctx, actor.Store)
	return *updated, nil
}

func (s *Service) DeleteInvoice(ctx context.Context, id string) error {
	actor, err := actorStore(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteInvoice(ctx, actor.Store, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx, actor.Store)
	return nil
}

// TogglePaid flips an invoice between paid and unpaid. Marking it paid keeps
// the previous partial payment so that marking it unpaid again restores it.
func (s *Service) TogglePaid(ctx context.Context, id string) (domain.Invoice, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}
	inv, err := s.repo.GetInvoice(ctx, actor.Store, id)
	if err != nil {
		return domain.Invoice{}, err
	}

	amount := domain.Number(analytics.Revenue(*inv))
	if invoiceStatus(*inv) == domain.InvoiceStatusPaid {
		restored := inv.PrevPaid
		if restored.Float() < 0 || restored >= amount {
			restored = 0
		}
		inv.Paid = restored
		inv.PrevPaid = 0
		inv.Status = domain.InvoiceStatusUnpaid
	} else {
		inv.PrevPaid = domain.Number(inv.Paid.Float())
		inv.Paid = amount
		inv.Status = domain.InvoiceStatusPaid
	}

	updated, err := s.repo.UpdateInvoice(ctx, *inv)
	if err != nil {
		return domain.Invoice{}, err
	}
	s.invalidateDashboard(ctx, actor.Store)
	return *updated, nil
}

func (s *Service) applyInvoiceRequest(inv *domain.Invoice, req domain.InvoiceRequest) error {
	items := normalizeItems(req.Items)
	for _, item := range items {
		if item.Name == "" {
			return invalid("every item needs a name")
		}
		if item.Price.Float() < 0 || item.Qty.Float() < 0 || item.Total.Float() < 0 {
			return invalid("item values must not be negative")
		}
	}
	paid := domain.Number(req.Paid.Float())
	if paid < 0 {
		return invalid("paid must not be negative")
	}
	amount := itemsTotal(items)

	status, err := normalizeStatus(req.Status, "")
	if err != nil {
		return err
	}
	switch {
	case status == "" && paid >= amount && amount > 0:
		status = domain.InvoiceStatusPaid
	case status == "":
		status = domain.InvoiceStatusUnpaid
	case status == domain.InvoiceStatusPaid && paid == 0:
		paid = amount
	}

	date, err := s.resolveDate(req.Date)
	if err != nil {
		return err
	}

	inv.Customer = defaultString(strings.TrimSpace(req.Customer), domain.DefaultCustomer)
	inv.Phone = strings.TrimSpace(req.Phone)
	inv.Date = date
	inv.Items = items
	inv.Amount = amount
	inv.Paid = paid
	inv.Status = status
	inv.Total = 0
	return nil
}

// invoiceStatus is the stored status, or one derived from the amounts for
// older records without one.
func invoiceStatus(inv domain.Invoice) string {
	status := strings.ToLower(strings.TrimSpace(inv.Status))
	if status != "" {
		return status
	}
	if analytics.Balance(inv) > 0 {
		return domain.InvoiceStatusUnpaid
	}
	return domain.InvoiceStatusPaid
}
