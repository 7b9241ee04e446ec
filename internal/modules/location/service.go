// README: Location service ranks deliverers by distance and records live positions.
package location

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"entregas/internal/modules/distance"
	"entregas/internal/observability"
	"entregas/internal/realtime"
	"entregas/internal/types"
)

type Broadcaster interface {
	Publish(topic string, v any) error
}

type Service struct {
	store    Store
	calc     *distance.Haversine
	realtime Broadcaster
	radiusKm float64
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store Store, calc *distance.Haversine, relay Broadcaster, radiusKm float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, calc: calc, realtime: relay, radiusKm: radiusKm, logger: logger, now: time.Now}
}

// Rank orders candidates by distance from pickup. Ties keep input order.
func (s *Service) Rank(ctx context.Context, pickup types.Point, candidates []Deliverer) ([]Match, error) {
	if err := pickup.Validate(); err != nil {
		return nil, fmt.Errorf("pickup: %w", err)
	}
	matches := make([]Match, 0, len(candidates))
	for _, d := range candidates {
		res, err := s.calc.ComputeDistance(ctx, pickup, d.Location)
		if err != nil {
			return nil, fmt.Errorf("deliverer %s: %w", d.ID, err)
		}
		matches = append(matches, Match{Deliverer: d, Distance: res.DistanceKm, ETA: res.EstimatedMinutes})
	}
	sortByDistance(matches, func(m Match) float64 { return m.Distance })
	return matches, nil
}

// Nearest picks the closest candidate. With no candidates it falls back to
// tracked deliverers within the configured radius.
func (s *Service) Nearest(ctx context.Context, pickup types.Point, candidates []Deliverer) (Match, error) {
	if len(candidates) == 0 && s.store != nil && s.radiusKm > 0 {
		if err := pickup.Validate(); err != nil {
			return Match{}, fmt.Errorf("pickup: %w", err)
		}
		tracked, err := s.store.Within(ctx, pickup, s.radiusKm)
		if err != nil {
			return Match{}, fmt.Errorf("tracked deliverers: %w", err)
		}
		candidates = tracked
	}
	if len(candidates) == 0 {
		return Match{}, ErrNoDeliverers
	}
	matches, err := s.Rank(ctx, pickup, candidates)
	if err != nil {
		return Match{}, err
	}
	return matches[0], nil
}

// UpdatePosition records a deliverer's position and relays it to tracking subscribers.
func (s *Service) UpdatePosition(ctx context.Context, u Update) (Update, error) {
	if u.DelivererID == "" {
		return Update{}, fmt.Errorf("%w: deliverer id is required", ErrBadRequest)
	}
	if err := u.Position.Validate(); err != nil {
		return Update{}, err
	}
	if u.RecordedAt.IsZero() {
		u.RecordedAt = s.now().UTC()
	}
	if err := s.store.SetPosition(ctx, Deliverer{ID: u.DelivererID, Name: u.Name, Location: u.Position}); err != nil {
		return Update{}, fmt.Errorf("record position: %w", err)
	}
	observability.PositionUpdates.Inc()

	if s.realtime != nil {
		if err := s.realtime.Publish(realtime.TopicTracking, u); err != nil {
			s.logger.Debug("position not relayed", zap.String("deliverer_id", string(u.DelivererID)), zap.Error(err))
		}
	}
	return u, nil
}
