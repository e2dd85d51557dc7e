package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"dukaan/backend/internal/analytics"
	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/metrics"
)

var ErrViewStopped = errors.New("dashboard view stopped")

const DefaultRefreshInterval = 5 * time.Second

// ComputeFunc produces a snapshot for one period.
type ComputeFunc func(ctx context.Context, period analytics.Period) (domain.DashboardResponse, error)

// UpdateFunc receives every snapshot a view produces. It must not call back
// into the view.
type UpdateFunc func(resp domain.DashboardResponse, err error)

// View owns the selected period of one dashboard and, while that period is
// live, the refresh loop that recomputes today's figures.
type View struct {
	compute  ComputeFunc
	interval time.Duration
	onUpdate UpdateFunc
	metrics  *metrics.Metrics

	mu      sync.Mutex
	period  analytics.Period
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

func NewView(compute ComputeFunc, interval time.Duration, onUpdate UpdateFunc, m *metrics.Metrics) *View {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if onUpdate == nil {
		onUpdate = func(domain.DashboardResponse, error) {}
	}
	return &View{compute: compute, interval: interval, onUpdate: onUpdate, metrics: m}
}

func (v *View) Period() analytics.Period {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.period
}

// Refreshing reports whether a live refresh loop is running.
func (v *View) Refreshing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cancel != nil
}

// SetPeriod cancels any running refresh, publishes one snapshot for p and,
// when p is live, starts refreshing every interval until the period changes
// or the view stops.
func (v *View) SetPeriod(ctx context.Context, p analytics.Period) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stopped {
		return ErrViewStopped
	}
	v.stopRefreshLocked()
	v.period = p

	v.onUpdate(v.compute(ctx, p))

	if p == analytics.PeriodLive {
		loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		done := make(chan struct{})
		v.cancel = cancel
		v.done = done
		go v.refresh(loopCtx, done)
	}
	return nil
}

// Stop ends the view. It is safe to call more than once.
func (v *View) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopped = true
	v.stopRefreshLocked()
}

func (v *View) stopRefreshLocked() {
	if v.cancel == nil {
		return
	}
	v.cancel()
	<-v.done
	v.cancel = nil
	v.done = nil
}

func (v *View) refresh(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resp, err := v.compute(ctx, analytics.PeriodToday)
			if ctx.Err() != nil {
				return
			}
			v.metrics.LiveRefreshed()
			v.onUpdate(resp, err)
		}
	}
}
