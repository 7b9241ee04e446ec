// README: Config loader; environment (ENTREGAS_*) and optional .env via viper, defaults in one place.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type MapsConfig struct {
	APIKey   string
	Language string
	Region   string
	Timeout  time.Duration
	// Router selects the precise routing provider: "google", "osrm" or "none".
	Router  string
	OSRMURL string
}

type GeocodingConfig struct {
	City     string
	State    string
	Country  string
	CacheTTL time.Duration
	Retries  int
}

type DistanceConfig struct {
	RoadFactor  float64
	SpeedKmh    float64
	BufferPerKm float64
	MaxBuffer   float64
}

type PricingConfig struct {
	Timezone       string
	SurgeByDefault bool
	QuoteTTL       time.Duration
}

type Config struct {
	HTTP HTTPConfig
	DB   struct {
		DSN string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Kafka struct {
		Brokers []string
		Topic   string
	}
	Log struct {
		Level string
	}
	Maps      MapsConfig
	Geocoding GeocodingConfig
	Distance  DistanceConfig
	Pricing   PricingConfig
	Tracking  struct {
		RadiusKm float64
	}
}

var defaults = map[string]any{
	"http.addr":              ":8080",
	"http.read_timeout":      "15s",
	"http.write_timeout":     "30s",
	"http.shutdown_timeout":  "10s",
	"db.dsn":                 "",
	"redis.addr":             "",
	"redis.password":         "",
	"redis.db":               0,
	"kafka.brokers":          "",
	"kafka.topic":            "entregas.quotes",
	"log.level":              "info",
	"maps.api_key":           "",
	"maps.language":          "pt-BR",
	"maps.region":            "br",
	"maps.timeout":           "8s",
	"maps.router":            "google",
	"maps.osrm_url":          "",
	"geocoding.city":         "João Pessoa",
	"geocoding.state":        "PB",
	"geocoding.country":      "Brasil",
	"geocoding.cache_ttl":    "24h",
	"geocoding.retries":      1,
	"distance.road_factor":   1.3,
	"distance.speed_kmh":     25.0,
	"distance.buffer_per_km": 2.0,
	"distance.max_buffer":    15.0,
	"pricing.timezone":       "America/Recife",
	"pricing.surge_default":  false,
	"pricing.quote_ttl":      "15m",
	"tracking.radius_km":     5.0,
}

// Load reads ENTREGAS_* variables, e.g. ENTREGAS_HTTP_ADDR for http.addr.
// A .env file in the working directory is read first when present.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ENTREGAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := readDotEnv(v, ".env"); err != nil {
		return Config{}, err
	}

	var cfg Config
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.HTTP.ReadTimeout = v.GetDuration("http.read_timeout")
	cfg.HTTP.WriteTimeout = v.GetDuration("http.write_timeout")
	cfg.HTTP.ShutdownTimeout = v.GetDuration("http.shutdown_timeout")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")
	cfg.Kafka.Brokers = splitList(v.GetString("kafka.brokers"))
	cfg.Kafka.Topic = v.GetString("kafka.topic")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Maps = MapsConfig{
		APIKey:   v.GetString("maps.api_key"),
		Language: v.GetString("maps.language"),
		Region:   v.GetString("maps.region"),
		Timeout:  v.GetDuration("maps.timeout"),
		Router:   strings.ToLower(v.GetString("maps.router")),
		OSRMURL:  v.GetString("maps.osrm_url"),
	}
	cfg.Geocoding = GeocodingConfig{
		City:     v.GetString("geocoding.city"),
		State:    v.GetString("geocoding.state"),
		Country:  v.GetString("geocoding.country"),
		CacheTTL: v.GetDuration("geocoding.cache_ttl"),
		Retries:  v.GetInt("geocoding.retries"),
	}
	cfg.Distance = DistanceConfig{
		RoadFactor:  v.GetFloat64("distance.road_factor"),
		SpeedKmh:    v.GetFloat64("distance.speed_kmh"),
		BufferPerKm: v.GetFloat64("distance.buffer_per_km"),
		MaxBuffer:   v.GetFloat64("distance.max_buffer"),
	}
	cfg.Pricing = PricingConfig{
		Timezone:       v.GetString("pricing.timezone"),
		SurgeByDefault: v.GetBool("pricing.surge_default"),
		QuoteTTL:       v.GetDuration("pricing.quote_ttl"),
	}
	cfg.Tracking.RadiusKm = v.GetFloat64("tracking.radius_km")

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http addr must not be empty"))
	}
	if c.Maps.Timeout <= 0 {
		errs = append(errs, errors.New("maps timeout must be positive"))
	}
	switch c.Maps.Router {
	case "google", "none":
	case "osrm":
		if c.Maps.OSRMURL == "" {
			errs = append(errs, errors.New("maps osrm_url is required when router is osrm"))
		}
	default:
		errs = append(errs, fmt.Errorf("maps router %q must be google, osrm or none", c.Maps.Router))
	}
	if c.Geocoding.Retries < 0 {
		errs = append(errs, errors.New("geocoding retries must not be negative"))
	}
	if c.Distance.RoadFactor < 1 {
		errs = append(errs, errors.New("distance road_factor must be at least 1"))
	}
	if c.Distance.SpeedKmh <= 0 {
		errs = append(errs, errors.New("distance speed_kmh must be positive"))
	}
	if c.Distance.BufferPerKm < 0 || c.Distance.MaxBuffer < 0 {
		errs = append(errs, errors.New("distance buffer values must not be negative"))
	}
	if _, err := time.LoadLocation(c.Pricing.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("pricing timezone: %w", err))
	}
	if c.Pricing.QuoteTTL <= 0 {
		errs = append(errs, errors.New("pricing quote_ttl must be positive"))
	}
	if c.Tracking.RadiusKm < 0 {
		errs = append(errs, errors.New("tracking radius_km must not be negative"))
	}
	return errors.Join(errs...)
}

// readDotEnv layers ENTREGAS_* entries from path beneath the real environment.
func readDotEnv(v *viper.Viper, path string) error {
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("env")
	if err := file.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	for k := range defaults {
		envKey := "entregas_" + strings.ReplaceAll(k, ".", "_")
		if file.IsSet(envKey) {
			v.SetDefault(k, file.Get(envKey))
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
