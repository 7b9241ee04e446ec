// README: Distance engine; haversine estimate and routed strategies behind one Calculator contract.
package distance

import (
	"context"

	"entregas/internal/types"
)

// Source values reported in Result.Source.
const (
	SourceHaversine = "haversine"
	SourceRouted    = "routed"
	SourceFallback  = "haversine_fallback"
)

// Result is the outcome of a distance computation. Both figures are never negative.
type Result struct {
	DistanceKm       float64 `json:"distance_km"`
	EstimatedMinutes int     `json:"duration_minutes"`
	Source           string  `json:"source"`
	Polyline         string  `json:"polyline,omitempty"`
}

// Calculator computes distance and travel time between two coordinates.
type Calculator interface {
	ComputeDistance(ctx context.Context, a, b types.Point) (Result, error)
}

func validatePair(a, b types.Point) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return b.Validate()
}
