// README: Pricing engine; turns a distance into a fee under a schedule.
package pricing

import (
	"fmt"
	"math"

	"entregas/internal/types"
)

// PriceFee applies cfg to distanceKm: base + km*rate, clamped to [min, max].
// Every component is rounded half-up to two decimals.
func PriceFee(distanceKm float64, cfg Config) (FeeBreakdown, error) {
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm < 0 {
		return FeeBreakdown{}, fmt.Errorf("%w: %v km", ErrInvalidDistance, distanceKm)
	}
	if err := cfg.Validate(); err != nil {
		return FeeBreakdown{}, err
	}

	b := FeeBreakdown{
		BaseFare:     types.Round2(cfg.BaseFee),
		DistanceFare: types.Round2(distanceKm * cfg.PerKmRate),
		DistanceKm:   types.Round2(distanceKm),
	}
	b.Subtotal = types.Round2(b.BaseFare + b.DistanceFare)

	minFee, maxFee := cfg.clampBounds()
	switch {
	case b.Subtotal < minFee:
		b.TotalFare, b.Clamp = minFee, ClampMinimum
	case b.Subtotal > maxFee:
		b.TotalFare, b.Clamp = maxFee, ClampMaximum
	default:
		b.TotalFare = b.Subtotal
	}
	b.ClampAdjustment = types.Round2(b.TotalFare - b.Subtotal)
	return b, nil
}
