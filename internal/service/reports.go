package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dukaan/backend/internal/domain"
)

const (
	ReportDaily    = "daily"
	ReportWeekly   = "weekly"
	ReportMonthly  = "monthly"
	ReportYearly   = "yearly"
	ReportLifetime = "lifetime"
)

// ListReports returns the caller's report entries for filter, newest first,
// with a summary of the returned entries.
func (s *Service) ListReports(ctx context.Context, filter domain.ReportFilter) (domain.ReportListResponse, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.ReportListResponse{}, err
	}
	all, err := s.repo.ListReports(ctx, actor.Store)
	if err != nil {
		return domain.ReportListResponse{}, err
	}

	now := s.now()
	period := strings.ToLower(strings.TrimSpace(filter.Period))
	if period == "" {
		period = ReportLifetime
	}

	var (
		onDate    time.Time
		hasOnDate bool
	)
	if raw := strings.TrimSpace(filter.Date); raw != "" {
		onDate, hasOnDate = parseDate(raw, now.Location())
		if !hasOnDate {
			return domain.ReportListResponse{}, invalid("unreadable date %q", raw)
		}
	}
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	entries := make([]domain.ReportEntry, 0, len(all))
	for _, entry := range all {
		dt, ok := parseDate(entry.Date, now.Location())
		if !inReportPeriod(period, dt, ok, now) {
			continue
		}
		if hasOnDate && (!ok || !sameDay(dt, onDate)) {
			continue
		}
		if query != "" && !reportMatches(entry, query) {
			continue
		}
		entries = append(entries, entry)
	}
	sortNewestFirst(entries, func(e domain.ReportEntry) domain.FlexDate { return e.Date }, now.Location())

	return domain.ReportListResponse{
		Period:  period,
		Entries: entries,
		Summary: SummarizeReports(entries),
	}, nil
}

func inReportPeriod(period string, dt time.Time, ok bool, now time.Time) bool {
	switch period {
	case ReportDaily:
		return ok && sameDay(dt, now)
	case ReportWeekly:
		return ok && !dt.Before(now.AddDate(0, 0, -7))
	case ReportMonthly:
		return ok && dt.Year() == now.Year() && dt.Month() == now.Month()
	case ReportYearly:
		return ok && dt.Year() == now.Year()
	default:
		return true
	}
}

func reportMatches(entry domain.ReportEntry, query string) bool {
	if containsFold(entry.Customer, query) || containsFold(entry.Phone, query) || containsFold(entry.ID, query) {
		return true
	}
	for _, item := range entry.Items {
		if containsFold(item.Name, query) {
			return true
		}
	}
	return false
}

// SummarizeReports totals a list of entries. Items counts item lines.
func SummarizeReports(entries []domain.ReportEntry) domain.ReportSummary {
	amount, paid, due := decimal.Zero, decimal.Zero, decimal.Zero
	summary := domain.ReportSummary{Count: len(entries)}
	for _, entry := range entries {
		summary.Items += len(entry.Items)
		amount = amount.Add(money(entry.Amount.Float()))
		paid = paid.Add(money(entry.Paid.Float()))
		due = due.Add(money(entry.Due.Float()))
	}
	summary.Amount = amount.Round(2).InexactFloat64()
	summary.Paid = paid.Round(2).InexactFloat64()
	summary.Due = due.Round(2).InexactFloat64()
	return summary
}

// ReportStatus is the status shown for an entry in exports.
func ReportStatus(entry domain.ReportEntry) string {
	if status := strings.TrimSpace(entry.Status); status != "" {
		return status
	}
	if entry.Due.Float() > 0 {
		return "due"
	}
	return domain.InvoiceStatusPaid
}

// ReportProducts names at most two products and counts the rest.
func ReportProducts(entry domain.ReportEntry) string {
	names := make([]string, 0, len(entry.Items))
	for _, item := range entry.Items {
		if name := strings.TrimSpace(item.Name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) <= 2 {
		return strings.Join(names, ", ")
	}
	return names[0] + ", " + names[1] + " +" + strconv.Itoa(len(names)-2)
}

// ReportQty sums the item quantities of an entry.
func ReportQty(entry domain.ReportEntry) float64 {
	sum := decimal.Zero
	for _, item := range entry.Items {
		sum = sum.Add(money(item.Qty.Float()))
	}
	return sum.InexactFloat64()
}

func (s *Service) DeleteReport(ctx context.Context, id string) error {
	actor, err := actorStore(ctx)
	if err != nil {
		return err
	}
	return s.repo.DeleteReport(ctx, actor.Store, id)
}

func (s *Service) ClearReports(ctx context.Context) (int, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return 0, err
	}
	return s.repo.ClearReports(ctx, actor.Store)
}
