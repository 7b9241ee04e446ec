package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"entregas/internal/types"
)

// Route is a provider-neutral road route.
type Route struct {
	DistanceMeters float64
	Duration       time.Duration
	Polyline       string
}

// RouteService handles interactions with the Google Directions API.
type RouteService struct {
	client   *maps.Client
	language string
	region   string
}

// NewRouteService creates a new RouteService with the given options.
func NewRouteService(opts Options) (*RouteService, error) {
	client, err := newClient(opts)
	if err != nil {
		return nil, err
	}
	return &RouteService{client: client, language: opts.Language, region: opts.Region}, nil
}

// Route returns the driving route between origin and destination, summed over all legs.
func (s *RouteService) Route(ctx context.Context, origin, destination types.Point) (Route, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin.String(),
		Destination: destination.String(),
		Mode:        maps.TravelModeDriving,
		Language:    s.language,
		Region:      s.region,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return Route{}, classify("directions", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Route{}, fmt.Errorf("directions: %w", ErrNotFound)
	}

	var out Route
	for _, leg := range routes[0].Legs {
		out.DistanceMeters += float64(leg.Distance.Meters)
		out.Duration += leg.Duration
	}
	out.Polyline = routes[0].OverviewPolyline.Points
	return out, nil
}
