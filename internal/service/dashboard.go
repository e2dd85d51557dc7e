package service

import (
	"context"

	"dukaan/backend/internal/analytics"
	"dukaan/backend/internal/dashboard"
	"dukaan/backend/internal/domain"
)

// Dashboard returns the caller's dashboard for a period token.
func (s *Service) Dashboard(ctx context.Context, periodToken string) (domain.DashboardResponse, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.DashboardResponse{}, err
	}
	return s.dashboard.Snapshot(ctx, actor.Store, analytics.ParsePeriod(periodToken), s.now())
}

// LiveView opens a dashboard view for the caller. The caller selects a
// period with SetPeriod and must Stop the view when done.
func (s *Service) LiveView(ctx context.Context, onUpdate dashboard.UpdateFunc) (*dashboard.View, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return nil, err
	}
	compute := func(ctx context.Context, p analytics.Period) (domain.DashboardResponse, error) {
		return s.dashboard.Snapshot(ctx, actor.Store, p, s.now())
	}
	return dashboard.NewView(compute, s.liveEvery, onUpdate, s.metrics), nil
}
