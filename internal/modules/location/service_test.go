package location

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entregas/internal/modules/distance"
	"entregas/internal/realtime"
	"entregas/internal/types"
)

var pickup = types.Point{Lat: -7.119, Lng: -34.908}

type recordingBroadcaster struct {
	topics []string
	values []any
}

func (b *recordingBroadcaster) Publish(topic string, v any) error {
	b.topics = append(b.topics, topic)
	b.values = append(b.values, v)
	return nil
}

func TestNearest_LinearScan(t *testing.T) {
	svc := NewService(NewMemoryStore(), distance.NewHaversine(), nil, 5, nil)

	got, err := svc.Nearest(context.Background(), pickup, []Deliverer{
		{ID: "far", Name: "Ana", Location: types.Point{Lat: -7.150, Lng: -34.880}},
		{ID: "near", Name: "Bruno", Location: types.Point{Lat: -7.115, Lng: -34.905}},
		{ID: "mid", Name: "Carla", Location: types.Point{Lat: -7.130, Lng: -34.900}},
	})
	require.NoError(t, err)
	assert.Equal(t, types.ID("near"), got.Deliverer.ID)
	assert.Equal(t, "Bruno", got.Deliverer.Name)
	assert.Equal(t, 0.72, got.Distance)
	assert.Equal(t, 4, got.ETA)
}

func TestNearest_TieKeepsFirst(t *testing.T) {
	svc := NewService(nil, distance.NewHaversine(), nil, 0, nil)
	spot := types.Point{Lat: -7.115, Lng: -34.905}

	got, err := svc.Nearest(context.Background(), pickup, []Deliverer{
		{ID: "first", Location: spot},
		{ID: "second", Location: spot},
	})
	require.NoError(t, err)
	assert.Equal(t, types.ID("first"), got.Deliverer.ID)
}

func TestNearest_EmptyWithoutTrackedDeliverers(t *testing.T) {
	svc := NewService(NewMemoryStore(), distance.NewHaversine(), nil, 5, nil)
	_, err := svc.Nearest(context.Background(), pickup, nil)
	assert.ErrorIs(t, err, ErrNoDeliverers)
}

func TestNearest_FallsBackToTrackedDeliverers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, distance.NewHaversine(), nil, 5, nil)

	_, err := svc.UpdatePosition(ctx, Update{DelivererID: "d-1", Name: "Ana", Position: types.Point{Lat: -7.130, Lng: -34.900}})
	require.NoError(t, err)
	_, err = svc.UpdatePosition(ctx, Update{DelivererID: "d-2", Name: "Bruno", Position: types.Point{Lat: -7.115, Lng: -34.905}})
	require.NoError(t, err)
	_, err = svc.UpdatePosition(ctx, Update{DelivererID: "d-far", Position: types.Point{Lat: -8.05, Lng: -34.90}})
	require.NoError(t, err)

	got, err := svc.Nearest(ctx, pickup, nil)
	require.NoError(t, err)
	assert.Equal(t, types.ID("d-2"), got.Deliverer.ID)
	assert.Equal(t, "Bruno", got.Deliverer.Name)
}

func TestNearest_InvalidCoordinates(t *testing.T) {
	svc := NewService(nil, distance.NewHaversine(), nil, 0, nil)

	_, err := svc.Nearest(context.Background(), types.Point{Lat: 100}, []Deliverer{{ID: "a", Location: pickup}})
	assert.ErrorIs(t, err, types.ErrInvalidCoordinate)

	_, err = svc.Nearest(context.Background(), pickup, []Deliverer{{ID: "a", Location: types.Point{Lng: 200}}})
	assert.ErrorIs(t, err, types.ErrInvalidCoordinate)
}

func TestRank(t *testing.T) {
	svc := NewService(nil, distance.NewHaversine(), nil, 0, nil)
	got, err := svc.Rank(context.Background(), pickup, []Deliverer{
		{ID: "b", Location: types.Point{Lat: -7.130, Lng: -34.900}},
		{ID: "a", Location: types.Point{Lat: -7.115, Lng: -34.905}},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.ID("a"), got[0].Deliverer.ID)
	assert.LessOrEqual(t, got[0].Distance, got[1].Distance)
}

func TestUpdatePosition(t *testing.T) {
	relay := &recordingBroadcaster{}
	svc := NewService(NewMemoryStore(), distance.NewHaversine(), relay, 5, nil)
	fixed := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	got, err := svc.UpdatePosition(context.Background(), Update{DelivererID: "d-1", Position: pickup})
	require.NoError(t, err)
	assert.Equal(t, fixed, got.RecordedAt)
	assert.Equal(t, []string{realtime.TopicTracking}, relay.topics)
	assert.Equal(t, got, relay.values[0])

	_, err = svc.UpdatePosition(context.Background(), Update{Position: pickup})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.UpdatePosition(context.Background(), Update{DelivererID: "d-1", Position: types.Point{Lat: -95}})
	assert.ErrorIs(t, err, types.ErrInvalidCoordinate)
	assert.Len(t, relay.topics, 1)
}

func TestMemoryStore_KeepsNameOnAnonymousUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.SetPosition(ctx, Deliverer{ID: "d-1", Name: "Ana", Location: pickup}))
	require.NoError(t, s.SetPosition(ctx, Deliverer{ID: "d-1", Location: types.Point{Lat: -7.118, Lng: -34.907}}))

	got, err := s.Within(ctx, pickup, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ana", got[0].Name)
}

func TestRedisStore(t *testing.T) {
	redisAddr := os.Getenv("ENTREGAS_TEST_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("ENTREGAS_TEST_REDIS_ADDR not set; skipping integration test")
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	ctx := context.Background()
	store := NewRedisStore(rdb)
	id := types.ID(fmt.Sprintf("deliverer_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		rdb.ZRem(context.Background(), delivererGeoKey, string(id))
		rdb.HDel(context.Background(), delivererNamesKey, string(id))
	})

	require.NoError(t, store.SetPosition(ctx, Deliverer{ID: id, Name: "Teste", Location: types.Point{Lat: -7.115, Lng: -34.905}}))

	got, err := store.Within(ctx, pickup, 2)
	require.NoError(t, err)

	var found *Deliverer
	for i := range got {
		if got[i].ID == id {
			found = &got[i]
		}
	}
	require.NotNil(t, found, "tracked deliverer not returned by GEO search")
	assert.Equal(t, "Teste", found.Name)
	assert.InDelta(t, -7.115, found.Location.Lat, 1e-4)
	assert.InDelta(t, -34.905, found.Location.Lng, 1e-4)
}
