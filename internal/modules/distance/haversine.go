package distance

import (
	"context"
	"math"

	"entregas/internal/types"
)

const earthRadiusKm = 6371.0

// Defaults for the haversine estimate. They are heuristics for urban delivery,
// not measured traffic data, and can be overridden per deployment.
const (
	DefaultRoadFactor  = 1.3
	DefaultSpeedKmh    = 25.0
	DefaultBufferPerKm = 2.0
	DefaultMaxBuffer   = 15.0
)

// GreatCircleKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func GreatCircleKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Haversine estimates road distance as the great-circle distance times RoadFactor.
// Duration is travel at SpeedKmh plus BufferPerKm minutes per km of
// pickup/drop-off friction, capped at MaxBuffer minutes.
type Haversine struct {
	RoadFactor  float64
	SpeedKmh    float64
	BufferPerKm float64
	MaxBuffer   float64
}

// NewHaversine returns a Haversine calculator with the default heuristics.
func NewHaversine() *Haversine {
	return &Haversine{
		RoadFactor:  DefaultRoadFactor,
		SpeedKmh:    DefaultSpeedKmh,
		BufferPerKm: DefaultBufferPerKm,
		MaxBuffer:   DefaultMaxBuffer,
	}
}

func (h *Haversine) ComputeDistance(_ context.Context, a, b types.Point) (Result, error) {
	if err := validatePair(a, b); err != nil {
		return Result{}, err
	}
	km := types.Round2(GreatCircleKm(a, b) * h.RoadFactor)
	return Result{
		DistanceKm:       km,
		EstimatedMinutes: h.EstimateMinutes(km),
		Source:           SourceHaversine,
	}, nil
}

// EstimateMinutes converts a road distance into whole minutes, rounded up.
func (h *Haversine) EstimateMinutes(km float64) int {
	if km <= 0 || h.SpeedKmh <= 0 {
		return 0
	}
	travel := km / h.SpeedKmh * 60
	buffer := math.Min(h.BufferPerKm*km, h.MaxBuffer)
	// Round to cents of a minute first so float noise does not push 3.0 to 4.
	return int(math.Ceil(math.Round((travel+buffer)*100) / 100))
}
