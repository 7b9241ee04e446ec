package quote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entregas/internal/events"
	"entregas/internal/maps"
	"entregas/internal/modules/distance"
	"entregas/internal/modules/pricing"
	"entregas/internal/modules/settings"
	"entregas/internal/realtime"
	"entregas/internal/types"
)

var (
	pickupPoint    = types.Point{Lat: -7.119, Lng: -34.908}
	deliveryPoint  = types.Point{Lat: -7.115, Lng: -34.905}
	// Monday 2026-03-02 09:00 UTC, outside every surge window.
	mondayMorning  = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	// Friday 2026-03-06 20:00 UTC.
	fridayEvening  = time.Date(2026, 3, 6, 20, 0, 0, 0, time.UTC)
	errNoSuchPlace = errors.New("no such place")
)

type stubGeocoder map[string]types.Point

func (g stubGeocoder) Geocode(_ context.Context, address string) (types.Point, error) {
	if p, ok := g[address]; ok {
		return p, nil
	}
	return types.Point{}, errNoSuchPlace
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingBroadcaster struct {
	topics []string
}

func (b *recordingBroadcaster) Publish(topic string, _ any) error {
	b.topics = append(b.topics, topic)
	return nil
}

type failingRouter struct{}

func (failingRouter) Route(context.Context, types.Point, types.Point) (maps.Route, error) {
	return maps.Route{}, maps.ErrTransport
}

type fixture struct {
	svc      *Service
	settings *settings.MemoryStore
	store    *MemoryStore
	events   *recordingPublisher
	relay    *recordingBroadcaster
}

func newFixture(t *testing.T, now time.Time, surgeByDefault bool) *fixture {
	t.Helper()
	haversine := distance.NewHaversine()
	f := &fixture{
		settings: settings.NewMemoryStore(nil),
		store:    NewMemoryStore(),
		events:   &recordingPublisher{},
		relay:    &recordingBroadcaster{},
	}
	f.store.now = func() time.Time { return now }
	f.svc = NewService(Deps{
		Geocoder: stubGeocoder{"Av. Epitácio Pessoa, 1000": pickupPoint, "Rua das Trincheiras, 50": deliveryPoint},
		Quick:    haversine,
		Precise:  distance.NewFallback(distance.NewRouted(failingRouter{}), haversine, nil),
		Config:   pricing.NewProvider(f.settings),
		Store:    f.store,
		Events:   f.events,
		Realtime: f.relay,
	}, Options{Location: time.UTC, SurgeByDefault: surgeByDefault, TTL: 15 * time.Minute})
	f.svc.now = func() time.Time { return now }
	return f
}

func boolPtr(b bool) *bool                { return &b }
func floatPtr(f float64) *float64         { return &f }
func pointPtr(p types.Point) *types.Point { return &p }

func TestPreview_EndToEndMinimumFee(t *testing.T) {
	f := newFixture(t, mondayMorning, false)

	q, err := f.svc.Preview(context.Background(), Request{
		PickupCoordinates:   pointPtr(pickupPoint),
		DeliveryCoordinates: pointPtr(deliveryPoint),
	})
	require.NoError(t, err)

	assert.Equal(t, ModeQuick, q.Mode)
	assert.Equal(t, 0.72, q.Route.DistanceKm)
	assert.Equal(t, distance.SourceHaversine, q.Route.Source)
	assert.Equal(t, 4, q.ETA)
	assert.InDelta(t, 5.00, q.Pricing.BaseFare, 1e-9)
	assert.InDelta(t, 1.80, q.Pricing.DistanceFare, 1e-9)
	assert.InDelta(t, 6.80, q.Pricing.Subtotal, 1e-9)
	assert.Equal(t, pricing.ClampMinimum, q.Pricing.Clamp)
	assert.InDelta(t, 7.00, q.Pricing.TotalFare, 1e-9)
	assert.InDelta(t, 7.00, q.FinalFee, 1e-9)
	assert.Nil(t, q.Surge)
	assert.Equal(t, 1, q.Zone.Number)
	assert.Equal(t, mondayMorning.Add(15*time.Minute), q.ExpiresAt)
	assert.Equal(t, "Zone 1 - central area, fast delivery", q.Summary.Zone)
	assert.Equal(t, pickupPoint.String(), q.Summary.Pickup)
}

func TestPreview_ResolvesAddresses(t *testing.T) {
	f := newFixture(t, mondayMorning, false)

	q, err := f.svc.Preview(context.Background(), Request{
		PickupAddress:   "Av. Epitácio Pessoa, 1000",
		DeliveryAddress: "Rua das Trincheiras, 50",
	})
	require.NoError(t, err)
	assert.Equal(t, pickupPoint, q.Pickup.Location)
	assert.Equal(t, deliveryPoint, q.Delivery.Location)
	assert.Equal(t, "Av. Epitácio Pessoa, 1000", q.Summary.Pickup)
	assert.Equal(t, 0.72, q.Route.DistanceKm)
}

func TestPreview_GeocodeFailurePropagates(t *testing.T) {
	f := newFixture(t, mondayMorning, false)
	_, err := f.svc.Preview(context.Background(), Request{
		PickupAddress:       "Somewhere unknown",
		DeliveryCoordinates: pointPtr(deliveryPoint),
	})
	assert.ErrorIs(t, err, errNoSuchPlace)
}

func TestPreview_SurgeOnFridayEvening(t *testing.T) {
	f := newFixture(t, fridayEvening, true)

	q, err := f.svc.Preview(context.Background(), Request{
		PickupCoordinates:   pointPtr(pickupPoint),
		DeliveryCoordinates: pointPtr(deliveryPoint),
	})
	require.NoError(t, err)
	require.NotNil(t, q.Surge)
	assert.Equal(t, 1.5, q.Surge.Multiplier)
	assert.Equal(t, "weekend high demand", q.Surge.Reason)
	assert.InDelta(t, 7.00, q.Pricing.TotalFare, 1e-9)
	assert.InDelta(t, 10.50, q.FinalFee, 1e-9)
	assert.Equal(t, "weekend high demand", q.Summary.SurgeReason)

	q, err = f.svc.Preview(context.Background(), Request{
		PickupCoordinates:   pointPtr(pickupPoint),
		DeliveryCoordinates: pointPtr(deliveryPoint),
		ApplySurge:          boolPtr(false),
	})
	require.NoError(t, err)
	assert.Nil(t, q.Surge)
	assert.InDelta(t, 7.00, q.FinalFee, 1e-9)
}

func TestPreview_Overrides(t *testing.T) {
	f := newFixture(t, mondayMorning, false)

	q, err := f.svc.Preview(context.Background(), Request{
		PickupCoordinates:   pointPtr(pickupPoint),
		DeliveryCoordinates: pointPtr(deliveryPoint),
		BaseFare:            floatPtr(10),
		FarePerKm:           floatPtr(1),
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.72, q.Pricing.TotalFare, 1e-9)
	assert.Equal(t, pricing.ClampNone, q.Pricing.Clamp)

	_, err = f.svc.Preview(context.Background(), Request{
		PickupCoordinates:   pointPtr(pickupPoint),
		DeliveryCoordinates: pointPtr(deliveryPoint),
		FarePerKm:           floatPtr(-1),
	})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestPreview_RejectsBadInput(t *testing.T) {
	f := newFixture(t, mondayMorning, false)
	ctx := context.Background()

	_, err := f.svc.Preview(ctx, Request{DeliveryCoordinates: pointPtr(deliveryPoint)})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = f.svc.Preview(ctx, Request{
		PickupCoordinates:   pointPtr(types.Point{Lat: 91}),
		DeliveryCoordinates: pointPtr(deliveryPoint),
	})
	assert.ErrorIs(t, err, types.ErrInvalidCoordinate)

	_, err = f.svc.Preview(ctx, Request{
		PickupCoordinates:   pointPtr(pickupPoint),
		DeliveryCoordinates: pointPtr(deliveryPoint),
		Mode:                "teleport",
	})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestPreview_InvalidStoredScheduleFailsFast(t *testing.T) {
	f := newFixture(t, mondayMorning, false)
	require.NoError(t, f.settings.Set(context.Background(), pricing.KeyMinimumFee, "40"))

	_, err := f.svc.Preview(context.Background(), Request{
		PickupCoordinates:   pointPtr(pickupPoint),
		DeliveryCoordinates: pointPtr(deliveryPoint),
	})
	assert.ErrorIs(t, err, pricing.ErrInvalidConfig)
}

func TestPreview_PreciseFallsBackToHaversine(t *testing.T) {
	f := newFixture(t, mondayMorning, false)

	q, err := f.svc.Preview(context.Background(), Request{
		PickupCoordinates:   pointPtr(pickupPoint),
		DeliveryCoordinates: pointPtr(deliveryPoint),
		Mode:                ModePrecise,
	})
	require.NoError(t, err)
	assert.Equal(t, ModePrecise, q.Mode)
	assert.Equal(t, distance.SourceFallback, q.Route.Source)
	assert.Equal(t, 0.72, q.Route.DistanceKm)
}

func TestPreview_LockInAndAnnounce(t *testing.T) {
	f := newFixture(t, fridayEvening, true)
	ctx := context.Background()

	q, err := f.svc.Preview(ctx, Request{
		PickupCoordinates:   pointPtr(pickupPoint),
		DeliveryCoordinates: pointPtr(deliveryPoint),
	})
	require.NoError(t, err)

	// A schedule change after the preview must not alter the locked quote.
	require.NoError(t, f.settings.Set(ctx, pricing.KeyMinimumFee, "9.00"))

	locked, err := f.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10.50, locked.FinalFee, 1e-9)
	assert.Equal(t, q.ID, locked.ID)

	require.NoError(t, f.svc.Drain(ctx))
	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.TypeQuoteCreated, f.events.events[0].Type)
	assert.Equal(t, q.ID, f.events.events[0].Key)
	assert.Equal(t, []string{realtime.TopicQuotes}, f.relay.topics)
}

func TestGet_ExpiredOrUnknown(t *testing.T) {
	f := newFixture(t, mondayMorning, false)
	ctx := context.Background()

	q, err := f.svc.Preview(ctx, Request{
		PickupCoordinates:   pointPtr(pickupPoint),
		DeliveryCoordinates: pointPtr(deliveryPoint),
	})
	require.NoError(t, err)

	f.store.now = func() time.Time { return mondayMorning.Add(16 * time.Minute) }
	_, err = f.svc.Get(ctx, q.ID)
	assert.ErrorIs(t, err, ErrQuoteNotFound)

	_, err = f.svc.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

// blockingPublisher holds every Publish until release is closed.
type blockingPublisher struct {
	release   chan struct{}
	published chan string
}

func (p *blockingPublisher) Publish(_ context.Context, e events.Event) error {
	<-p.release
	p.published <- e.Key
	return nil
}

func (p *blockingPublisher) Close() error { return nil }

func TestPreview_DoesNotWaitForEventPublisher(t *testing.T) {
	pub := &blockingPublisher{release: make(chan struct{}), published: make(chan string, 4)}
	svc := NewService(Deps{
		Quick:  distance.NewHaversine(),
		Config: pricing.NewProvider(settings.NewMemoryStore(nil)),
		Store:  NewMemoryStore(),
		Events: pub,
	}, Options{Location: time.UTC, MaxPendingEvents: 1})

	previewed := make(chan *Quote, 2)
	go func() {
		for i := 0; i < 2; i++ {
			q, err := svc.Preview(context.Background(), Request{
				PickupCoordinates:   pointPtr(pickupPoint),
				DeliveryCoordinates: pointPtr(deliveryPoint),
			})
			assert.NoError(t, err)
			previewed <- q
		}
	}()

	var first *Quote
	for i := 0; i < 2; i++ {
		select {
		case q := <-previewed:
			if first == nil {
				first = q
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Preview blocked on the event publisher")
		}
	}

	close(pub.release)
	require.NoError(t, svc.Drain(context.Background()))
	close(pub.published)

	var keys []string
	for k := range pub.published {
		keys = append(keys, k)
	}
	// The backlog holds one event; the second preview's event is dropped.
	assert.Equal(t, []string{first.ID}, keys)
}

func TestDrain_HonorsContext(t *testing.T) {
	pub := &blockingPublisher{release: make(chan struct{}), published: make(chan string, 1)}
	svc := NewService(Deps{
		Quick:  distance.NewHaversine(),
		Config: pricing.NewProvider(settings.NewMemoryStore(nil)),
		Store:  NewMemoryStore(),
		Events: pub,
	}, Options{Location: time.UTC})

	_, err := svc.Preview(context.Background(), Request{
		PickupCoordinates:   pointPtr(pickupPoint),
		DeliveryCoordinates: pointPtr(deliveryPoint),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Drain(ctx), context.DeadlineExceeded)

	close(pub.release)
	require.NoError(t, svc.Drain(context.Background()))
}
