// README: Deliverer position store backed by Redis GEO, with an in-memory fallback.
package location

import (
	"context"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"

	"entregas/internal/modules/distance"
	"entregas/internal/types"
)

const (
	delivererGeoKey   = "tracking:deliverers"
	delivererNamesKey = "tracking:deliverer_names"
)

type Store interface {
	SetPosition(ctx context.Context, d Deliverer) error
	// Within returns deliverers within radiusKm of p, closest first.
	Within(ctx context.Context, p types.Point, radiusKm float64) ([]Deliverer, error)
}

type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{redis: rdb}
}

func (s *RedisStore) SetPosition(ctx context.Context, d Deliverer) error {
	pipe := s.redis.TxPipeline()
	pipe.GeoAdd(ctx, delivererGeoKey, &redis.GeoLocation{
		Name:      string(d.ID),
		Longitude: d.Location.Lng,
		Latitude:  d.Location.Lat,
	})
	if d.Name != "" {
		pipe.HSet(ctx, delivererNamesKey, string(d.ID), d.Name)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Within(ctx context.Context, p types.Point, radiusKm float64) ([]Deliverer, error) {
	results, err := s.redis.GeoSearchLocation(ctx, delivererGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  p.Lng,
			Latitude:   p.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Name
	}
	names, err := s.redis.HMGet(ctx, delivererNamesKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]Deliverer, len(results))
	for i, r := range results {
		out[i] = Deliverer{
			ID:       types.ID(r.Name),
			Location: types.Point{Lat: r.Latitude, Lng: r.Longitude},
		}
		if name, ok := names[i].(string); ok {
			out[i].Name = name
		}
	}
	return out, nil
}

// MemoryStore is used when Redis is not configured.
type MemoryStore struct {
	mu         sync.RWMutex
	deliverers map[types.ID]Deliverer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{deliverers: make(map[types.ID]Deliverer)}
}

func (s *MemoryStore) SetPosition(_ context.Context, d Deliverer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Name == "" {
		d.Name = s.deliverers[d.ID].Name
	}
	s.deliverers[d.ID] = d
	return nil
}

func (s *MemoryStore) Within(_ context.Context, p types.Point, radiusKm float64) ([]Deliverer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type ranked struct {
		d  Deliverer
		km float64
	}
	var hits []ranked
	for _, d := range s.deliverers {
		if km := distance.GreatCircleKm(p, d.Location); km <= radiusKm {
			hits = append(hits, ranked{d, km})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].km == hits[j].km {
			return hits[i].d.ID < hits[j].d.ID
		}
		return hits[i].km < hits[j].km
	})
	out := make([]Deliverer, len(hits))
	for i, h := range hits {
		out[i] = h.d
	}
	return out, nil
}
