// README: Geocoding service; address normalization, locale completion, bounded retry and memoization.
package geocoding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"entregas/internal/maps"
	"entregas/internal/modules/settings"
	"entregas/internal/observability"
	"entregas/internal/types"
)

var (
	ErrEmptyAddress    = errors.New("address is required")
	ErrAddressNotFound = errors.New("address not found")
	ErrTransport       = errors.New("geocoding provider unavailable, try again")
)

// Setting keys for locale completion.
const (
	KeyDefaultCity  = "default_city"
	KeyDefaultState = "default_state"
)

// Provider is the external geocoder. It reports maps.ErrNotFound or maps.ErrTransport.
type Provider interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
	ReverseGeocode(ctx context.Context, p types.Point) (string, error)
}

// Locale holds the completion tokens used when settings do not override them.
type Locale struct {
	City    string
	State   string
	Country string
}

type Options struct {
	Locale   Locale
	Timeout  time.Duration
	CacheTTL time.Duration
	// Retries is the number of extra attempts after a transport failure.
	Retries int
}

type Service struct {
	provider Provider
	cache    Cache
	settings settings.Store
	opts     Options
	logger   *zap.Logger
}

func NewService(provider Provider, cache Cache, store settings.Store, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &Service{provider: provider, cache: cache, settings: store, opts: opts, logger: logger}
}

// Geocode resolves a free-text address to a coordinate.
func (s *Service) Geocode(ctx context.Context, address string) (types.Point, error) {
	normalized := normalize(address)
	if normalized == "" {
		return types.Point{}, ErrEmptyAddress
	}
	query := complete(normalized, s.locale(ctx))

	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx, cacheKey(query))
		if err != nil {
			s.logger.Warn("geocode cache read failed", zap.String("address", query), zap.Error(err))
		} else if ok {
			observability.GeocodeRequests.WithLabelValues("cache_hit").Inc()
			return p, nil
		}
	}

	var p types.Point
	err := s.withRetry(ctx, "geocode", func(ctx context.Context) error {
		var err error
		p, err = s.provider.Geocode(ctx, query)
		return err
	})
	if err != nil {
		return types.Point{}, s.translate(query, err)
	}
	if err := p.Validate(); err != nil {
		observability.GeocodeRequests.WithLabelValues("error").Inc()
		return types.Point{}, fmt.Errorf("%w: provider returned %v", ErrTransport, err)
	}
	observability.GeocodeRequests.WithLabelValues("resolved").Inc()

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(query), p, s.opts.CacheTTL); err != nil {
			s.logger.Warn("geocode cache write failed", zap.String("address", query), zap.Error(err))
		}
	}
	return p, nil
}

// ReverseGeocode returns a human-readable address for p.
func (s *Service) ReverseGeocode(ctx context.Context, p types.Point) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	var address string
	err := s.withRetry(ctx, "reverse_geocode", func(ctx context.Context) error {
		var err error
		address, err = s.provider.ReverseGeocode(ctx, p)
		return err
	})
	if err != nil {
		return "", s.translate(p.String(), err)
	}
	return address, nil
}

// withRetry bounds every attempt by the provider timeout and retries transport
// failures only. "Not found" is an answer, not a failure.
func (s *Service) withRetry(ctx context.Context, op string, call func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		start := time.Now()
		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		err = call(attemptCtx)
		cancel()
		observability.ProviderLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

		if err == nil || errors.Is(err, maps.ErrNotFound) || ctx.Err() != nil {
			return err
		}
		s.logger.Warn("geocoding provider call failed",
			zap.String("op", op), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return err
}

func (s *Service) translate(query string, err error) error {
	if errors.Is(err, maps.ErrNotFound) {
		observability.GeocodeRequests.WithLabelValues("not_found").Inc()
		return fmt.Errorf("%w: %q", ErrAddressNotFound, query)
	}
	observability.GeocodeRequests.WithLabelValues("error").Inc()
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// locale merges settings-store overrides onto the configured defaults.
func (s *Service) locale(ctx context.Context) Locale {
	loc := s.opts.Locale
	if s.settings == nil {
		return loc
	}
	for _, f := range []struct {
		key string
		dst *string
	}{
		{KeyDefaultCity, &loc.City},
		{KeyDefaultState, &loc.State},
	} {
		v, ok, err := s.settings.Get(ctx, f.key)
		if err != nil {
			s.logger.Warn("locale setting unavailable", zap.String("key", f.key), zap.Error(err))
			continue
		}
		if v = strings.TrimSpace(v); ok && v != "" {
			*f.dst = v
		}
	}
	return loc
}

func normalize(address string) string {
	return strings.Join(strings.Fields(address), " ")
}

// complete appends each locale token the address does not already mention.
func complete(address string, loc Locale) string {
	lower := strings.ToLower(address)
	for _, token := range []string{loc.City, loc.State, loc.Country} {
		token = strings.TrimSpace(token)
		if token == "" || strings.Contains(lower, strings.ToLower(token)) {
			continue
		}
		address += ", " + token
		lower = strings.ToLower(address)
	}
	return address
}

func cacheKey(query string) string {
	return strings.ToLower(query)
}
