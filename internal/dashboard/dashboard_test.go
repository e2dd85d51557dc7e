package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dukaan/backend/internal/analytics"
	"dukaan/backend/internal/cache"
	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/metrics"
)

var testNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

type countingSource struct {
	calls    atomic.Int32
	invoices []domain.Invoice
}

func (s *countingSource) InvoicesForStore(_ context.Context, _ string) ([]domain.Invoice, error) {
	s.calls.Add(1)
	return s.invoices, nil
}

func (s *countingSource) ProductCount(_ context.Context, _ string) (int, error) {
	return 4, nil
}

func sampleInvoices() []domain.Invoice {
	return []domain.Invoice{
		{ID: "INV-1", Store: "Hodan", Date: "2024-03-15T09:00:00Z", Amount: 40, Paid: 25},
		{ID: "INV-2", Store: "hodan", Date: "2024-03-14T10:00:00Z", Amount: 10, Paid: 10},
		{ID: "INV-3", Store: "Bakaara", Date: "2024-03-15T09:00:00Z", Amount: 99, Paid: 99},
	}
}

func TestOutstandingIgnoresOverpaidInvoices(t *testing.T) {
	invoices := []domain.Invoice{
		{ID: "INV-1", Store: "Hodan", Date: "2024-03-15T09:00:00Z", Amount: 10, Paid: 4},
		{ID: "INV-2", Store: "Hodan", Date: "2024-03-15T10:00:00Z", Amount: 5, Paid: 9},
	}
	resp := Compute(invoices, "Hodan", 0, analytics.PeriodLifetime, testNow)
	if resp.Outstanding != 6 {
		t.Fatalf("expected outstanding 6 from the unpaid invoice alone, got %v", resp.Outstanding)
	}
}

func TestComputeCombinesSeriesTotalsAndAxis(t *testing.T) {
	resp := Compute(sampleInvoices(), "Hodan", 4, analytics.PeriodWeekly, testNow)

	if resp.Period != "weekly" || resp.ProductCount != 4 {
		t.Fatalf("unexpected header fields %+v", resp)
	}
	if resp.Totals.Count != 2 || resp.Totals.PaidSum != 35 || resp.Totals.RevenueSum != 50 {
		t.Fatalf("unexpected totals %+v", resp.Totals)
	}
	if resp.Outstanding != 15 {
		t.Fatalf("expected outstanding 15, got %v", resp.Outstanding)
	}
	if len(resp.Series.Labels) != 7 || resp.Series.Data[6] != 25 || resp.Series.Data[5] != 10 {
		t.Fatalf("unexpected weekly series %+v", resp.Series)
	}
	if resp.Axis.Step != 5 || resp.Axis.Max != 25 {
		t.Fatalf("unexpected axis %+v", resp.Axis)
	}
}

func TestSnapshotServesCachedPeriodsAndInvalidates(t *testing.T) {
	src := &countingSource{invoices: sampleInvoices()}
	engine := NewEngine(src, cache.NewMemoryDashboardCache(), time.Minute, metrics.New(prometheus.NewRegistry()))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := engine.Snapshot(ctx, "Hodan", analytics.PeriodWeekly, testNow); err != nil {
			t.Fatalf("snapshot: %v", err)
		}
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected one source read for cached period, got %d", got)
	}

	engine.Invalidate(ctx, "HODAN")
	if _, err := engine.Snapshot(ctx, "Hodan", analytics.PeriodWeekly, testNow); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected recompute after invalidation, got %d reads", got)
	}
}

func TestSnapshotNeverCachesIntradayOrUnknownPeriods(t *testing.T) {
	src := &countingSource{invoices: sampleInvoices()}
	engine := NewEngine(src, cache.NewMemoryDashboardCache(), time.Minute, nil)
	ctx := context.Background()

	for _, p := range []analytics.Period{analytics.PeriodToday, analytics.PeriodLive, "fortnight"} {
		_, _ = engine.Snapshot(ctx, "Hodan", p, testNow)
		_, _ = engine.Snapshot(ctx, "Hodan", p, testNow)
	}
	if got := src.calls.Load(); got != 6 {
		t.Fatalf("expected every intraday or unknown snapshot to be computed, got %d reads", got)
	}
}

func TestCacheKeyIsStoreCaseInsensitive(t *testing.T) {
	if buildCacheKey("Hodan", analytics.PeriodMonthly) != buildCacheKey("HODAN", analytics.PeriodMonthly) {
		t.Fatalf("expected store name case to be ignored")
	}
	if buildCacheKey("Hodan", analytics.PeriodMonthly) == buildCacheKey("Hodan", analytics.PeriodYearly) {
		t.Fatalf("expected period to change the key")
	}
}

type recorder struct {
	mu      sync.Mutex
	periods []string
}

func (r *recorder) update(resp domain.DashboardResponse, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.periods = append(r.periods, resp.Period)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.periods)
}

func staticCompute(_ context.Context, p analytics.Period) (domain.DashboardResponse, error) {
	return domain.DashboardResponse{Period: string(p)}, nil
}

func TestViewNonLivePeriodPublishesOnce(t *testing.T) {
	rec := &recorder{}
	view := NewView(staticCompute, 5*time.Millisecond, rec.update, nil)
	defer view.Stop()

	if err := view.SetPeriod(context.Background(), analytics.PeriodWeekly); err != nil {
		t.Fatalf("set period: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if rec.count() != 1 || view.Refreshing() {
		t.Fatalf("expected a single snapshot without refresh, got %d refreshing=%v", rec.count(), view.Refreshing())
	}
}

func TestViewLiveRefreshesTodayUntilPeriodChanges(t *testing.T) {
	rec := &recorder{}
	view := NewView(staticCompute, 5*time.Millisecond, rec.update, nil)
	defer view.Stop()

	if err := view.SetPeriod(context.Background(), analytics.PeriodLive); err != nil {
		t.Fatalf("set period: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for rec.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if rec.count() < 3 {
		t.Fatalf("expected live refreshes, got %d updates", rec.count())
	}

	if err := view.SetPeriod(context.Background(), analytics.PeriodMonthly); err != nil {
		t.Fatalf("set period: %v", err)
	}
	if view.Refreshing() {
		t.Fatalf("expected refresh to stop after leaving live")
	}
	settled := rec.count()
	time.Sleep(30 * time.Millisecond)
	if rec.count() != settled {
		t.Fatalf("expected no updates after leaving live, got %d more", rec.count()-settled)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.periods[0] != "live" || rec.periods[1] != "today" || rec.periods[len(rec.periods)-1] != "monthly" {
		t.Fatalf("unexpected update sequence %v", rec.periods)
	}
}

func TestViewStopEndsRefreshAndRejectsChanges(t *testing.T) {
	rec := &recorder{}
	view := NewView(staticCompute, 5*time.Millisecond, rec.update, nil)

	_ = view.SetPeriod(context.Background(), analytics.PeriodLive)
	view.Stop()
	view.Stop()

	if view.Refreshing() {
		t.Fatalf("expected refresh stopped")
	}
	if err := view.SetPeriod(context.Background(), analytics.PeriodToday); err != ErrViewStopped {
		t.Fatalf("expected ErrViewStopped, got %v", err)
	}
}
