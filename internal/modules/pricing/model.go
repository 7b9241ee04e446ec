// README: Fee schedule and itemized fee breakdown.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"entregas/internal/types"
)

var (
	ErrInvalidConfig   = errors.New("invalid pricing configuration")
	ErrInvalidDistance = errors.New("invalid distance")

	// ErrRejectedUpdate wraps ErrInvalidConfig when an admin change would
	// produce an invalid schedule; nothing is written in that case.
	ErrRejectedUpdate = errors.New("pricing update rejected")
)

// Config is the admin-tunable fee schedule.
type Config struct {
	BaseFee    float64 `json:"base_fee"`
	PerKmRate  float64 `json:"per_km_rate"`
	MinimumFee float64 `json:"minimum_fee"`
	MaximumFee float64 `json:"maximum_fee"`
}

// DefaultConfig is used for any setting that has never been persisted.
func DefaultConfig() Config {
	return Config{BaseFee: 5.00, PerKmRate: 2.50, MinimumFee: 7.00, MaximumFee: 25.00}
}

// Validate rejects negative or non-finite values and an inverted min/max pair.
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"base fee", c.BaseFee},
		{"per-km rate", c.PerKmRate},
		{"minimum fee", c.MinimumFee},
		{"maximum fee", c.MaximumFee},
	}
	var errs []error
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidConfig, f.name, f.value))
		}
	}
	if c.MinimumFee > c.MaximumFee {
		errs = append(errs, fmt.Errorf("%w: minimum fee %.2f exceeds maximum fee %.2f", ErrInvalidConfig, c.MinimumFee, c.MaximumFee))
	} else if minFee, maxFee := c.clampBounds(); minFee > maxFee {
		errs = append(errs, fmt.Errorf("%w: no whole-cent fee lies between minimum %v and maximum %v", ErrInvalidConfig, c.MinimumFee, c.MaximumFee))
	}
	return errors.Join(errs...)
}

// clampBounds returns the fee bounds on whole cents, rounded inward so a
// clamped total never falls outside the configured range.
func (c Config) clampBounds() (minFee, maxFee float64) {
	return types.CeilCents(c.MinimumFee), types.FloorCents(c.MaximumFee)
}

type Clamp string

const (
	ClampNone    Clamp = ""
	ClampMinimum Clamp = "minimum"
	ClampMaximum Clamp = "maximum"
)

// FeeBreakdown itemizes a priced distance.
// BaseFare + DistanceFare == Subtotal is the unclamped fee; Subtotal +
// ClampAdjustment == TotalFare is what the customer pays.
type FeeBreakdown struct {
	BaseFare        float64 `json:"base_fare"`
	DistanceFare    float64 `json:"distance_fare"`
	Subtotal        float64 `json:"subtotal"`
	ClampAdjustment float64 `json:"clamp_adjustment"`
	Clamp           Clamp   `json:"clamp,omitempty"`
	TotalFare       float64 `json:"total_fare"`
	DistanceKm      float64 `json:"distance_km"`
}
