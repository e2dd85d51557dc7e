package dashboard

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"

	"dukaan/backend/internal/analytics"
	"dukaan/backend/internal/cache"
	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/logger"
	"dukaan/backend/internal/metrics"
	"dukaan/backend/internal/store"
)

// Source supplies the records a dashboard is computed from.
type Source interface {
	InvoicesForStore(ctx context.Context, storeName string) ([]domain.Invoice, error)
	ProductCount(ctx context.Context, storeName string) (int, error)
}

type repoSource struct {
	repo store.Repository
}

// FromRepository adapts a repository to a Source.
func FromRepository(repo store.Repository) Source {
	return repoSource{repo: repo}
}

func (r repoSource) InvoicesForStore(ctx context.Context, storeName string) ([]domain.Invoice, error) {
	return r.repo.ListInvoices(ctx, storeName)
}

func (r repoSource) ProductCount(ctx context.Context, storeName string) (int, error) {
	products, err := r.repo.ListProducts(ctx, storeName)
	if err != nil {
		return 0, err
	}
	return len(products), nil
}

type Engine struct {
	source   Source
	cache    cache.DashboardCache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func NewEngine(source Source, cacheStore cache.DashboardCache, cacheTTL time.Duration, m *metrics.Metrics) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopDashboardCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Second
	}

	return &Engine{
		source:   source,
		cache:    cacheStore,
		cacheTTL: cacheTTL,
		metrics:  m,
		log:      logger.WithComponent("dashboard"),
	}
}

// Snapshot returns the dashboard of storeName for period as seen at now.
// Cache failures are logged and the snapshot is computed directly.
func (e *Engine) Snapshot(ctx context.Context, storeName string, period analytics.Period, now time.Time) (domain.DashboardResponse, error) {
	cacheable := Cacheable(period)
	key := buildCacheKey(storeName, period)
	if cacheable {
		cached, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			e.log.Warn().Err(err).Str("store", storeName).Msg("dashboard cache read failed")
		}
		if err == nil && ok {
			e.metrics.DashboardServed(string(period), metrics.CacheHit)
			return *cached, nil
		}
	}

	invoices, err := e.source.InvoicesForStore(ctx, storeName)
	if err != nil {
		return domain.DashboardResponse{}, err
	}
	productCount, err := e.source.ProductCount(ctx, storeName)
	if err != nil {
		return domain.DashboardResponse{}, err
	}

	resp := Compute(invoices, storeName, productCount, period, now)
	if cacheable {
		e.metrics.DashboardServed(string(period), metrics.CacheMiss)
		if err := e.cache.Set(ctx, key, &resp, e.cacheTTL); err != nil {
			e.log.Warn().Err(err).Str("store", storeName).Msg("dashboard cache write failed")
		}
	} else {
		e.metrics.DashboardServed(string(period), metrics.CacheBypass)
	}
	return resp, nil
}

// Invalidate drops every cached period of storeName.
func (e *Engine) Invalidate(ctx context.Context, storeName string) {
	keys := make([]string, 0, len(analytics.Periods))
	for _, p := range analytics.Periods {
		if Cacheable(p) {
			keys = append(keys, buildCacheKey(storeName, p))
		}
	}
	if err := e.cache.Delete(ctx, keys...); err != nil {
		e.log.Warn().Err(err).Str("store", storeName).Msg("dashboard cache invalidation failed")
	}
}

// Compute builds a dashboard from an invoice snapshot. It never fails.
func Compute(invoices []domain.Invoice, storeName string, productCount int, period analytics.Period, now time.Time) domain.DashboardResponse {
	filtered := analytics.FilterInvoicesByPeriod(invoices, storeName, period, now)
	series := analytics.ComputeSeries(filtered, period, now)
	totals := analytics.ComputeTotals(filtered)

	return domain.DashboardResponse{
		Period:       string(period),
		Series:       series,
		Axis:         analytics.ChartAxis(series.Data),
		Totals:       totals,
		ProductCount: productCount,
		Outstanding:  outstanding(filtered),
		GeneratedAt:  now.Format(time.RFC3339),
	}
}

// outstanding sums the per-invoice balances, so an overpaid invoice does not
// offset what other customers owe.
func outstanding(invoices []domain.Invoice) float64 {
	var sum float64
	for _, inv := range invoices {
		sum += analytics.Balance(inv)
	}
	return sum
}

// Cacheable reports whether snapshots of p may be served from cache. The
// intraday periods change too often and unknown tokens are not stored.
func Cacheable(p analytics.Period) bool {
	return p.Known() && p != analytics.PeriodLive && p != analytics.PeriodToday
}

func buildCacheKey(storeName string, period analytics.Period) string {
	sum := sha1.Sum([]byte(store.StoreKey(storeName) + "|" + string(period)))
	return "dukaan:dashboard:" + hex.EncodeToString(sum[:])
}
