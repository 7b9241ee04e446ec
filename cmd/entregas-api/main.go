// README: Entry point; loads config, wires stores and services, serves HTTP until SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"entregas/internal/config"
	"entregas/internal/events"
	httptransport "entregas/internal/http"
	"entregas/internal/infra"
	"entregas/internal/maps"
	"entregas/internal/modules/distance"
	"entregas/internal/modules/geocoding"
	"entregas/internal/modules/location"
	"entregas/internal/modules/pricing"
	"entregas/internal/modules/quote"
	"entregas/internal/modules/settings"
	"entregas/internal/realtime"
	"entregas/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("entregas-api stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	var settingsStore settings.Store = settings.NewMemoryStore(nil)
	if cfg.DB.DSN != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer dbPool.Close()
		pgStore := settings.NewPostgresStore(dbPool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return err
		}
		settingsStore = pgStore
	} else {
		logger.Warn("ENTREGAS_DB_DSN not set, pricing settings are kept in memory")
	}

	var (
		geocodeCache geocoding.Cache = geocoding.NewMemoryCache()
		quoteStore   quote.Store     = quote.NewMemoryStore()
		trackStore   location.Store  = location.NewMemoryStore()
	)
	if cfg.Redis.Addr != "" {
		rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer func(c *redis.Client) { _ = c.Close() }(rdb)
		geocodeCache = geocoding.NewRedisCache(rdb)
		quoteStore = quote.NewRedisStore(rdb)
		trackStore = location.NewRedisStore(rdb)
	} else {
		logger.Warn("ENTREGAS_REDIS_ADDR not set, caches and tracking are kept in memory")
	}

	haversine := &distance.Haversine{
		RoadFactor:  cfg.Distance.RoadFactor,
		SpeedKmh:    cfg.Distance.SpeedKmh,
		BufferPerKm: cfg.Distance.BufferPerKm,
		MaxBuffer:   cfg.Distance.MaxBuffer,
	}

	mapsOpts := maps.Options{APIKey: cfg.Maps.APIKey, Language: cfg.Maps.Language, Region: cfg.Maps.Region}
	var provider geocoding.Provider = unconfiguredProvider{}
	if cfg.Maps.APIKey != "" {
		gs, err := maps.NewGeocodeService(mapsOpts)
		if err != nil {
			return err
		}
		provider = gs
	} else {
		logger.Warn("ENTREGAS_MAPS_API_KEY not set, address lookups are disabled")
	}

	var precise distance.Calculator
	switch cfg.Maps.Router {
	case "osrm":
		precise = distance.NewFallback(distance.NewRouted(maps.NewOSRMRouter(cfg.Maps.OSRMURL, cfg.Maps.Timeout)), haversine, logger)
	case "google":
		if cfg.Maps.APIKey != "" {
			rs, err := maps.NewRouteService(mapsOpts)
			if err != nil {
				return err
			}
			precise = distance.NewFallback(distance.NewRouted(rs), haversine, logger)
		}
	}

	publisher := events.Publisher(events.NopPublisher{})
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = kp.Close() }()
		publisher = kp
	}

	loc, err := time.LoadLocation(cfg.Pricing.Timezone)
	if err != nil {
		return err
	}

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	geocoder := geocoding.NewService(provider, geocodeCache, settingsStore, geocoding.Options{
		Locale:   geocoding.Locale{City: cfg.Geocoding.City, State: cfg.Geocoding.State, Country: cfg.Geocoding.Country},
		Timeout:  cfg.Maps.Timeout,
		CacheTTL: cfg.Geocoding.CacheTTL,
		Retries:  cfg.Geocoding.Retries,
	}, logger)
	pricingProvider := pricing.NewProvider(settingsStore)

	quoteSvc := quote.NewService(quote.Deps{
		Geocoder: geocoder,
		Quick:    haversine,
		Precise:  precise,
		Config:   pricingProvider,
		Store:    quoteStore,
		Events:   publisher,
		Realtime: hub,
		Logger:   logger,
	}, quote.Options{Location: loc, SurgeByDefault: cfg.Pricing.SurgeByDefault, TTL: cfg.Pricing.QuoteTTL})

	locationSvc := location.NewService(trackStore, haversine, hub, cfg.Tracking.RadiusKm, logger)

	server := httptransport.NewServer(httptransport.ServerDeps{
		Quotes:   quoteSvc,
		Geocoder: geocoder,
		Location: locationSvc,
		Pricing:  pricingProvider,
		Hub:      hub,
		Logger:   logger,
	}, httptransport.ServerOptions{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})
	err = server.Run(ctx)

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if drainErr := quoteSvc.Drain(drainCtx); drainErr != nil {
		logger.Warn("quote events still pending at shutdown", zap.Error(drainErr))
	}
	return err
}

// unconfiguredProvider answers every lookup with a transport error so
// coordinate-only previews keep working without a maps key.
type unconfiguredProvider struct{}

func (unconfiguredProvider) Geocode(context.Context, string) (types.Point, error) {
	return types.Point{}, fmt.Errorf("%w: no maps api key configured", maps.ErrTransport)
}

func (unconfiguredProvider) ReverseGeocode(context.Context, types.Point) (string, error) {
	return "", fmt.Errorf("%w: no maps api key configured", maps.ErrTransport)
}
