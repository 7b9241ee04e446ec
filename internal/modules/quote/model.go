// README: Quote request/response shapes.
package quote

import (
	"errors"
	"time"

	"entregas/internal/modules/distance"
	"entregas/internal/modules/pricing"
	"entregas/internal/modules/surge"
	"entregas/internal/modules/zone"
	"entregas/internal/types"
)

var (
	ErrBadRequest    = errors.New("bad request")
	ErrQuoteNotFound = errors.New("quote not found or expired")
)

// Mode selects the distance strategy.
type Mode string

const (
	ModeQuick   Mode = "quick"
	ModePrecise Mode = "precise"
)

// Request asks for a fee preview. Coordinates win over addresses when both are given.
type Request struct {
	PickupAddress       string
	PickupCoordinates   *types.Point
	DeliveryAddress     string
	DeliveryCoordinates *types.Point
	// BaseFare and FarePerKm override the stored schedule for this preview only.
	BaseFare   *float64
	FarePerKm  *float64
	Mode       Mode
	ApplySurge *bool
}

type Stop struct {
	Address  string      `json:"address,omitempty"`
	Location types.Point `json:"location"`
}

type Summary struct {
	Pickup          string  `json:"pickup"`
	Delivery        string  `json:"delivery"`
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
	Fee             float64 `json:"fee"`
	Zone            string  `json:"zone"`
	SurgeReason     string  `json:"surge_reason,omitempty"`
}

// Quote is a priced preview. It is held for its TTL so the fee shown is the
// fee charged when a delivery is created from it.
type Quote struct {
	ID        string               `json:"quote_id"`
	Mode      Mode                 `json:"mode"`
	Pickup    Stop                 `json:"pickup"`
	Delivery  Stop                 `json:"delivery"`
	Route     distance.Result      `json:"route"`
	Pricing   pricing.FeeBreakdown `json:"pricing"`
	Surge     *surge.Adjustment    `json:"surge,omitempty"`
	Zone      zone.Zone            `json:"zone"`
	ETA       int                  `json:"eta"`
	FinalFee  float64              `json:"final_fee"`
	Summary   Summary              `json:"summary"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}
