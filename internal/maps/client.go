package maps

import (
	"fmt"

	"googlemaps.github.io/maps"
)

// Options configures the Google Maps clients.
type Options struct {
	APIKey   string
	Language string
	Region   string
	// BaseURL overrides the Google endpoint; empty means the public API.
	BaseURL string
}

func newClient(opts Options) (*maps.Client, error) {
	clientOpts := []maps.ClientOption{maps.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(opts.BaseURL))
	}
	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}
