package pricing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"entregas/internal/modules/settings"
	"entregas/internal/types"
)

// Setting keys holding the fee schedule.
const (
	KeyBaseFee    = "delivery_base_fee"
	KeyPerKmRate  = "delivery_per_km_rate"
	KeyMinimumFee = "delivery_minimum_fee"
	KeyMaximumFee = "delivery_maximum_fee"
)

// Provider reads the fee schedule from the settings store on every call.
// Nothing is cached so an admin change applies to the very next quote.
type Provider struct {
	store settings.Store
}

func NewProvider(store settings.Store) *Provider {
	return &Provider{store: store}
}

var scheduleKeys = []string{KeyBaseFee, KeyPerKmRate, KeyMinimumFee, KeyMaximumFee}

// PricingConfig returns the current schedule. Unset keys take DefaultConfig values.
func (p *Provider) PricingConfig(ctx context.Context) (Config, error) {
	values := make(map[string]string, len(scheduleKeys))
	for _, key := range scheduleKeys {
		raw, ok, err := p.store.Get(ctx, key)
		if err != nil {
			return Config{}, fmt.Errorf("read setting %s: %w", key, err)
		}
		if ok {
			values[key] = raw
		}
	}
	return parseSchedule(values)
}

func parseSchedule(values map[string]string) (Config, error) {
	cfg := DefaultConfig()
	for _, f := range cfg.fields() {
		raw := strings.TrimSpace(values[f.key])
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: setting %s=%q is not a number", ErrInvalidConfig, f.key, raw)
		}
		*f.dst = v
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type scheduleField struct {
	key string
	dst *float64
}

func (c *Config) fields() []scheduleField {
	return []scheduleField{
		{KeyBaseFee, &c.BaseFee},
		{KeyPerKmRate, &c.PerKmRate},
		{KeyMinimumFee, &c.MinimumFee},
		{KeyMaximumFee, &c.MaximumFee},
	}
}

// ConfigPatch carries the fields an administrator wants to change.
type ConfigPatch struct {
	BaseFee    *float64 `json:"base_fee"`
	PerKmRate  *float64 `json:"per_km_rate"`
	MinimumFee *float64 `json:"minimum_fee"`
	MaximumFee *float64 `json:"maximum_fee"`
}

// Update merges patch into the current schedule and persists it only if the
// result is valid. The read, check and write happen as one store operation, so
// concurrent updates cannot combine into an invalid schedule.
func (p *Provider) Update(ctx context.Context, patch ConfigPatch) (Config, error) {
	var cfg Config
	err := p.store.Modify(ctx, scheduleKeys, func(current map[string]string) (map[string]string, error) {
		var err error
		if cfg, err = parseSchedule(current); err != nil {
			return nil, err
		}
		patched := map[string]*float64{
			KeyBaseFee:    patch.BaseFee,
			KeyPerKmRate:  patch.PerKmRate,
			KeyMinimumFee: patch.MinimumFee,
			KeyMaximumFee: patch.MaximumFee,
		}
		writes := make(map[string]string, len(patched))
		for _, f := range cfg.fields() {
			if src := patched[f.key]; src != nil {
				*f.dst = types.Round2(*src)
				writes[f.key] = strconv.FormatFloat(*f.dst, 'f', 2, 64)
			}
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRejectedUpdate, err)
		}
		return writes, nil
	})
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
