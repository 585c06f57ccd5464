package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-drainage-service/internal/domain"
	"github.com/couchcryptid/storm-drainage-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Fallback component names, used as plan keys and metric labels.
const (
	componentTerrain  = "terrain"
	componentOutlet   = "outlet"
	componentRainfall = "rainfall"
)

// PlanPublisher receives every completed plan.
type PlanPublisher interface {
	PublishPlan(ctx context.Context, plan domain.DrainagePlan) error
}

// Deps are the upstream collaborators of a Service. Any of them may be nil:
// a nil lookup always takes its fallback and a nil publisher is skipped.
type Deps struct {
	Terrain   domain.TerrainSampler
	Water     domain.WaterSource
	Rainfall  domain.RainfallProvider
	Publisher PlanPublisher
	Clock     clockwork.Clock

	// ProviderErr is the geospatial bootstrap error, reported by CheckReadiness.
	ProviderErr error
}

// Timeouts bound each upstream lookup. Zero means no extra bound.
type Timeouts struct {
	Geospatial time.Duration
	Rainfall   time.Duration
}

// Service runs drainage analyses. It holds no per-request state and is safe
// for concurrent use.
type Service struct {
	deps     Deps
	timeouts Timeouts
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Service.
func New(deps Deps, timeouts Timeouts, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	return &Service{
		deps:     deps,
		timeouts: timeouts,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns the geospatial bootstrap error, if any.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.deps.ProviderErr != nil {
		return fmt.Errorf("geospatial provider unavailable: %w", s.deps.ProviderErr)
	}
	return nil
}

// Analyze validates the catchment, runs the terrain, outlet and rainfall
// lookups concurrently, and composes the plan. Upstream failures never fail
// the analysis; they are recorded in the plan's Fallbacks instead. The only
// errors are an invalid catchment and a cancelled context.
func (s *Service) Analyze(ctx context.Context, c domain.Catchment) (domain.DrainagePlan, error) {
	start := s.deps.Clock.Now()
	if err := c.Validate(); err != nil {
		s.metrics.AnalysesTotal.WithLabelValues("invalid").Inc()
		return domain.DrainagePlan{}, err
	}

	var (
		terrain  domain.Result[domain.TerrainSample]
		outlet   domain.Result[domain.WaterOutlet]
		rainfall domain.Result[[]float64]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lctx, cancel := withTimeout(gctx, s.timeouts.Geospatial)
		defer cancel()
		terrain = domain.SampleTerrain(lctx, s.deps.Terrain, c)
		return nil
	})
	g.Go(func() error {
		lctx, cancel := withTimeout(gctx, s.timeouts.Geospatial)
		defer cancel()
		outlet = domain.LocateOutlet(lctx, s.deps.Water, c.Center, domain.DefaultSearchRadiusM)
		return nil
	})
	g.Go(func() error {
		lctx, cancel := withTimeout(gctx, s.timeouts.Rainfall)
		defer cancel()
		rainfall = domain.FetchRainfall(lctx, s.deps.Rainfall, c.Center)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		s.metrics.AnalysesTotal.WithLabelValues("error").Inc()
		return domain.DrainagePlan{}, fmt.Errorf("analyze %s: %w", c.ID(), err)
	}

	fallbacks := make(map[string]domain.FallbackReason)
	s.noteFallback(fallbacks, componentTerrain, terrain.Fallback, terrain.Err)
	s.noteFallback(fallbacks, componentOutlet, outlet.Fallback, outlet.Err)
	s.noteFallback(fallbacks, componentRainfall, rainfall.Fallback, rainfall.Err)

	plan := domain.ComposePlan(c, terrain.Value, outlet.Value, rainfall.Value, s.deps.Clock.Now().UTC())
	if len(fallbacks) > 0 {
		plan.Fallbacks = fallbacks
	}

	s.metrics.AnalysesTotal.WithLabelValues("success").Inc()
	s.metrics.AnalysisDuration.Observe(s.deps.Clock.Since(start).Seconds())
	s.logger.Info("analysis complete",
		"id", plan.ID,
		"pattern", plan.Hydraulics.Pattern,
		"q_flow", plan.Hydraulics.PeakFlowM3s,
		"diameter_mm", plan.Hydraulics.PipeDiameterMM,
		"fallbacks", len(fallbacks),
	)

	s.publish(ctx, plan)
	return plan, nil
}

func (s *Service) noteFallback(into map[string]domain.FallbackReason, component string, reason domain.FallbackReason, err error) {
	if reason == domain.FallbackNone {
		return
	}
	into[component] = reason
	s.metrics.Fallbacks.WithLabelValues(component, string(reason)).Inc()
	s.logger.Warn("lookup fell back", "component", component, "reason", reason, "error", err)
}

// publish hands the plan to the publisher. Failures are logged only.
func (s *Service) publish(ctx context.Context, plan domain.DrainagePlan) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.PublishPlan(ctx, plan); err != nil {
		s.metrics.PlansPublished.WithLabelValues("error").Inc()
		s.logger.Error("publish plan failed", "id", plan.ID, "error", err)
		return
	}
	s.metrics.PlansPublished.WithLabelValues("success").Inc()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
