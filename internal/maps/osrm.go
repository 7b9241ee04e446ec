package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"entregas/internal/types"
)

// OSRMRouter performs route lookups against an OSRM HTTP server.
type OSRMRouter struct {
	endpoint string
	client   *http.Client
}

func NewOSRMRouter(endpoint string, timeout time.Duration) *OSRMRouter {
	return &OSRMRouter{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

// Route queries /route/v1/driving/{lon1},{lat1};{lon2},{lat2}.
func (o *OSRMRouter) Route(ctx context.Context, from, to types.Point) (Route, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=polyline",
		o.endpoint, from.Lng, from.Lat, to.Lng, to.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Route{}, fmt.Errorf("osrm: %w: %v", ErrTransport, err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("osrm: %w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Route{}, fmt.Errorf("osrm: %w: status %d", ErrTransport, resp.StatusCode)
	}
	var out osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Route{}, fmt.Errorf("osrm: %w: decode: %v", ErrTransport, err)
	}
	switch {
	case out.Code == "NoRoute" || out.Code == "NoSegment":
		return Route{}, fmt.Errorf("osrm %s: %w", out.Code, ErrNotFound)
	case out.Code != "Ok":
		return Route{}, fmt.Errorf("osrm: %w: code %q", ErrTransport, out.Code)
	case len(out.Routes) == 0:
		return Route{}, fmt.Errorf("osrm: %w", ErrNotFound)
	}

	r := out.Routes[0]
	return Route{
		DistanceMeters: r.Distance,
		Duration:       time.Duration(r.Duration * float64(time.Second)),
		Polyline:       r.Geometry,
	}, nil
}
