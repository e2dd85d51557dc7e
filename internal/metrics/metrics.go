package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dukaan"

const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups the service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	dashboards     *prometheus.CounterVec
	liveRefreshes  prometheus.Counter
	liveViewers    prometheus.Gauge
	checkouts      *prometheus.CounterVec
	backups        *prometheus.CounterVec
	remindersBuilt prometheus.Counter
}

func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		dashboards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_snapshots_total",
			Help:      "Dashboard snapshots served, by period and cache result.",
		}, []string{"period", "cache"}),
		liveRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_refreshes_total",
			Help:      "Recomputations performed by live dashboard views.",
		}),
		liveViewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_viewers",
			Help:      "Live dashboard views currently open.",
		}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Cart checkouts by mode and outcome.",
		}, []string{"mode", "outcome"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Backups written by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		remindersBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_built_total",
			Help:      "Customer payment reminders composed.",
		}),
	}

	registerer.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.dashboards,
		m.liveRefreshes,
		m.liveViewers,
		m.checkouts,
		m.backups,
		m.remindersBuilt,
	)
	return m
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) DashboardServed(period, cacheResult string) {
	if m == nil {
		return
	}
	m.dashboards.WithLabelValues(period, cacheResult).Inc()
}

func (m *Metrics) LiveRefreshed() {
	if m == nil {
		return
	}
	m.liveRefreshes.Inc()
}

func (m *Metrics) LiveViewerOpened() {
	if m == nil {
		return
	}
	m.liveViewers.Inc()
}

func (m *Metrics) LiveViewerClosed() {
	if m == nil {
		return
	}
	m.liveViewers.Dec()
}

func (m *Metrics) CheckoutDone(mode string, err error) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(mode, outcome(err)).Inc()
}

func (m *Metrics) BackupDone(trigger string, err error) {
	if m == nil {
		return
	}
	m.backups.WithLabelValues(trigger, outcome(err)).Inc()
}

func (m *Metrics) RemindersBuilt(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.remindersBuilt.Add(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
