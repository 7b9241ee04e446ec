package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"entregas/internal/types"
)

// GeocodeService resolves addresses through the Google Geocoding API.
type GeocodeService struct {
	client   *maps.Client
	language string
	region   string
}

// NewGeocodeService creates a GeocodeService with the given options.
func NewGeocodeService(opts Options) (*GeocodeService, error) {
	client, err := newClient(opts)
	if err != nil {
		return nil, err
	}
	return &GeocodeService{client: client, language: opts.Language, region: opts.Region}, nil
}

// Geocode returns the coordinate of the best match for address.
func (s *GeocodeService) Geocode(ctx context.Context, address string) (types.Point, error) {
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{
		Address:  address,
		Language: s.language,
		Region:   s.region,
	})
	if err != nil {
		return types.Point{}, classify("geocode", err)
	}
	if len(results) == 0 {
		return types.Point{}, fmt.Errorf("geocode: %w", ErrNotFound)
	}
	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// ReverseGeocode returns the formatted address closest to p.
func (s *GeocodeService) ReverseGeocode(ctx context.Context, p types.Point) (string, error) {
	results, err := s.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
		Language: s.language,
	})
	if err != nil {
		return "", classify("reverse geocode", err)
	}
	if len(results) == 0 || results[0].FormattedAddress == "" {
		return "", fmt.Errorf("reverse geocode: %w", ErrNotFound)
	}
	return results[0].FormattedAddress, nil
}
