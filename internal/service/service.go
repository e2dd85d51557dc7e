package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dukaan/backend/internal/dashboard"
	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/logger"
	"dukaan/backend/internal/metrics"
	"dukaan/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo      store.Repository
	dashboard *dashboard.Engine
	metrics   *metrics.Metrics
	now       func() time.Time
	liveEvery time.Duration
	log       zerolog.Logger
}

func New(repo store.Repository, engine *dashboard.Engine, m *metrics.Metrics) *Service {
	if engine == nil {
		engine = dashboard.NewEngine(dashboard.FromRepository(repo), nil, 0, m)
	}

	return &Service{
		repo:      repo,
		dashboard: engine,
		metrics:   m,
		now:       time.Now,
		liveEvery: dashboard.DefaultRefreshInterval,
		log:       logger.WithComponent("service"),
	}
}

// SetClock replaces the time source. Period math uses the location of the
// returned time.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) SetLiveInterval(d time.Duration) {
	if d > 0 {
		s.liveEvery = d
	}
}

func (s *Service) Now() time.Time {
	return s.now()
}

func actorStore(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || strings.TrimSpace(actor.Store) == "" {
		return domain.Actor{}, store.ErrUnauthorized
	}
	return actor, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// invalidateDashboard drops cached dashboards after an invoice or product
// write.
func (s *Service) invalidateDashboard(ctx context.Context, storeName string) {
	s.dashboard.Invalidate(ctx, storeName)
}

// resolveDate turns a client supplied date into the stored RFC3339 form,
// defaulting to now.
func (s *Service) resolveDate(raw string) (domain.FlexDate, error) {
	now := s.now()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.FlexDate(now.Format(time.RFC3339)), nil
	}
	dt, ok := parseDate(raw, now.Location())
	if !ok {
		return "", invalid("unreadable date %q", raw)
	}
	return domain.FlexDate(dt.Format(time.RFC3339)), nil
}
