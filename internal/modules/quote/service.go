// README: Quote service composes geocoding, distance, pricing, surge and zone into one preview.
package quote

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"entregas/internal/events"
	"entregas/internal/modules/distance"
	"entregas/internal/modules/pricing"
	"entregas/internal/modules/surge"
	"entregas/internal/modules/zone"
	"entregas/internal/observability"
	"entregas/internal/realtime"
	"entregas/internal/types"
)

type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type ConfigSource interface {
	PricingConfig(ctx context.Context) (pricing.Config, error)
}

type Broadcaster interface {
	Publish(topic string, v any) error
}

type Options struct {
	// Location is the timezone surge windows are evaluated in.
	Location       *time.Location
	SurgeByDefault bool
	TTL            time.Duration
	// MaxPendingEvents bounds quote events being published in the background.
	// Events beyond it are dropped with a warning.
	MaxPendingEvents int
}

type Deps struct {
	Geocoder Geocoder
	Quick    distance.Calculator
	// Precise may be nil, in which case precise requests use Quick.
	Precise  distance.Calculator
	Config   ConfigSource
	Store    Store
	Events   events.Publisher
	Realtime Broadcaster
	Logger   *zap.Logger
}

type Service struct {
	geocoder Geocoder
	quick    distance.Calculator
	precise  distance.Calculator
	config   ConfigSource
	store    Store
	events   events.Publisher
	realtime Broadcaster
	logger   *zap.Logger
	opts     Options
	now      func() time.Time

	inflight chan struct{}
	pending  sync.WaitGroup
}

func NewService(deps Deps, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	if opts.MaxPendingEvents <= 0 {
		opts.MaxPendingEvents = 256
	}
	s := &Service{
		geocoder: deps.Geocoder,
		quick:    deps.Quick,
		precise:  deps.Precise,
		config:   deps.Config,
		store:    deps.Store,
		events:   deps.Events,
		realtime: deps.Realtime,
		logger:   deps.Logger,
		opts:     opts,
		now:      time.Now,
		inflight: make(chan struct{}, opts.MaxPendingEvents),
	}
	if s.precise == nil {
		s.precise = s.quick
	}
	if s.events == nil {
		s.events = events.NopPublisher{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Preview prices a delivery and locks the result in for the configured TTL.
// Surge is evaluated at preview time; Get returns the same fee until expiry.
func (s *Service) Preview(ctx context.Context, req Request) (*Quote, error) {
	calc, mode, err := s.calculator(req.Mode)
	if err != nil {
		return nil, err
	}

	var pickup, delivery Stop
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		pickup, err = s.resolve(gctx, "pickup", req.PickupAddress, req.PickupCoordinates)
		return err
	})
	g.Go(func() (err error) {
		delivery, err = s.resolve(gctx, "delivery", req.DeliveryAddress, req.DeliveryCoordinates)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	route, err := calc.ComputeDistance(ctx, pickup.Location, delivery.Location)
	if err != nil {
		return nil, err
	}

	cfg, err := s.config.PricingConfig(ctx)
	if err != nil {
		return nil, err
	}
	if err := applyOverride("base_fare", req.BaseFare, &cfg.BaseFee); err != nil {
		return nil, err
	}
	if err := applyOverride("fare_per_km", req.FarePerKm, &cfg.PerKmRate); err != nil {
		return nil, err
	}

	fee, err := pricing.PriceFee(route.DistanceKm, cfg)
	if err != nil {
		return nil, err
	}

	now := s.now()
	q := &Quote{
		ID:        uuid.NewString(),
		Mode:      mode,
		Pickup:    pickup,
		Delivery:  delivery,
		Route:     route,
		Pricing:   fee,
		Zone:      zone.Classify(route.DistanceKm),
		ETA:       route.EstimatedMinutes,
		FinalFee:  fee.TotalFare,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.TTL),
	}

	applySurge := s.opts.SurgeByDefault
	if req.ApplySurge != nil {
		applySurge = *req.ApplySurge
	}
	if applySurge {
		adj, err := surge.Apply(fee.TotalFare, surge.WhenAt(now, s.opts.Location))
		if err != nil {
			return nil, err
		}
		q.Surge = &adj
		q.FinalFee = adj.AdjustedFee
		observability.SurgeApplied.WithLabelValues(adj.Reason).Inc()
	}
	q.Summary = summarize(q)

	if err := s.store.Save(ctx, q, s.opts.TTL); err != nil {
		s.logger.Warn("quote lock-in failed", zap.String("quote_id", q.ID), zap.Error(err))
	}
	s.announce(ctx, q)

	observability.QuotesTotal.WithLabelValues(string(mode), route.Source).Inc()
	observability.QuoteFee.Observe(q.FinalFee)
	return q, nil
}

// Get returns a previously previewed quote that has not expired.
func (s *Service) Get(ctx context.Context, id string) (*Quote, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrQuoteNotFound
	}
	return s.store.Get(ctx, id)
}

func (s *Service) calculator(mode Mode) (distance.Calculator, Mode, error) {
	switch mode {
	case "", ModeQuick:
		return s.quick, ModeQuick, nil
	case ModePrecise:
		return s.precise, ModePrecise, nil
	default:
		return nil, "", fmt.Errorf("%w: unknown mode %q", ErrBadRequest, mode)
	}
}

func (s *Service) resolve(ctx context.Context, label, address string, coords *types.Point) (Stop, error) {
	if coords != nil {
		if err := coords.Validate(); err != nil {
			return Stop{}, fmt.Errorf("%s: %w", label, err)
		}
		return Stop{Address: address, Location: *coords}, nil
	}
	if address == "" {
		return Stop{}, fmt.Errorf("%w: %s address or coordinates required", ErrBadRequest, label)
	}
	p, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return Stop{}, fmt.Errorf("%s: %w", label, err)
	}
	return Stop{Address: address, Location: p}, nil
}

// announce publishes the quote event in the background so a slow or
// unreachable broker never delays the preview, then relays the summary.
func (s *Service) announce(ctx context.Context, q *Quote) {
	e := events.Event{
		Type:       events.TypeQuoteCreated,
		Key:        q.ID,
		OccurredAt: q.CreatedAt,
		Payload:    q,
	}
	select {
	case s.inflight <- struct{}{}:
		s.pending.Add(1)
		go func() {
			defer func() {
				<-s.inflight
				s.pending.Done()
			}()
			if err := s.events.Publish(context.WithoutCancel(ctx), e); err != nil {
				s.logger.Warn("quote event not published", zap.String("quote_id", e.Key), zap.Error(err))
			}
		}()
	default:
		s.logger.Warn("quote event dropped, publisher backlog full", zap.String("quote_id", q.ID))
	}

	if s.realtime == nil {
		return
	}
	if err := s.realtime.Publish(realtime.TopicQuotes, q.Summary); err != nil {
		s.logger.Debug("quote not relayed", zap.String("quote_id", q.ID), zap.Error(err))
	}
}

// Drain waits for background event publishing to finish or ctx to end.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func applyOverride(name string, v *float64, dst *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return fmt.Errorf("%w: %s must be a non-negative number", ErrBadRequest, name)
	}
	*dst = *v
	return nil
}

func summarize(q *Quote) Summary {
	s := Summary{
		Pickup:          label(q.Pickup),
		Delivery:        label(q.Delivery),
		DistanceKm:      q.Route.DistanceKm,
		DurationMinutes: q.Route.EstimatedMinutes,
		Fee:             q.FinalFee,
		Zone:            q.Zone.Name + " - " + q.Zone.Description,
	}
	if q.Surge != nil && q.Surge.Multiplier != 1 {
		s.SurgeReason = q.Surge.Reason
	}
	return s
}

func label(s Stop) string {
	if s.Address != "" {
		return s.Address
	}
	return s.Location.String()
}
