package distance

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"entregas/internal/maps"
	"entregas/internal/types"
)

// Router returns an actual road route between two points.
type Router interface {
	Route(ctx context.Context, from, to types.Point) (maps.Route, error)
}

// Routed asks an external routing provider for true distance and duration.
type Routed struct {
	router Router
}

func NewRouted(router Router) *Routed {
	return &Routed{router: router}
}

func (r *Routed) ComputeDistance(ctx context.Context, a, b types.Point) (Result, error) {
	if err := validatePair(a, b); err != nil {
		return Result{}, err
	}
	route, err := r.router.Route(ctx, a, b)
	if err != nil {
		return Result{}, err
	}
	return Result{
		DistanceKm:       types.Round2(math.Max(route.DistanceMeters, 0) / 1000),
		EstimatedMinutes: int(math.Ceil(math.Max(route.Duration.Minutes(), 0))),
		Source:           SourceRouted,
		Polyline:         route.Polyline,
	}, nil
}

// Fallback prefers Primary and falls back to the haversine estimate when the
// routing provider is unavailable or cannot find a route.
type Fallback struct {
	Primary   Calculator
	Secondary *Haversine
	logger    *zap.Logger
}

func NewFallback(primary Calculator, secondary *Haversine, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{Primary: primary, Secondary: secondary, logger: logger}
}

func (f *Fallback) ComputeDistance(ctx context.Context, a, b types.Point) (Result, error) {
	res, err := f.Primary.ComputeDistance(ctx, a, b)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, maps.ErrTransport) && !errors.Is(err, maps.ErrNotFound) {
		return Result{}, err
	}
	f.logger.Warn("routing unavailable, using haversine estimate", zap.Error(err))
	res, err = f.Secondary.ComputeDistance(ctx, a, b)
	if err != nil {
		return Result{}, err
	}
	res.Source = SourceFallback
	return res, nil
}
