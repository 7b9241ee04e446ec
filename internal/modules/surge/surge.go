// README: Time-of-day surge multipliers evaluated as a first-match rule table.
package surge

import (
	"errors"
	"fmt"
	"math"
	"time"

	"entregas/internal/types"
)

var (
	ErrInvalidTime = errors.New("invalid surge time")
	ErrInvalidFee  = errors.New("invalid fee")
)

// When is the local hour and weekday a fee is requested at. Weekday 0 is Sunday.
type When struct {
	Hour    int          `json:"hour"`
	Weekday time.Weekday `json:"weekday"`
}

func (w When) validate() error {
	if w.Hour < 0 || w.Hour > 23 {
		return fmt.Errorf("%w: hour %d must be within 0-23", ErrInvalidTime, w.Hour)
	}
	if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
		return fmt.Errorf("%w: weekday %d must be within 0-6", ErrInvalidTime, w.Weekday)
	}
	return nil
}

func (w When) weekday() bool {
	return w.Weekday >= time.Monday && w.Weekday <= time.Friday
}

// WhenAt converts t into the hour and weekday observed in loc.
func WhenAt(t time.Time, loc *time.Location) When {
	if loc != nil {
		t = t.In(loc)
	}
	return When{Hour: t.Hour(), Weekday: t.Weekday()}
}

type Rule struct {
	Multiplier float64
	Reason     string
	Match      func(When) bool
}

// Rules are evaluated in order and the first match wins.
var Rules = []Rule{
	{1.5, "weekend high demand", func(w When) bool {
		return (w.Weekday == time.Friday || w.Weekday == time.Saturday) && w.Hour >= 18 && w.Hour <= 23
	}},
	{1.2, "lunch rush", func(w When) bool { return w.weekday() && w.Hour >= 11 && w.Hour <= 14 }},
	{1.3, "dinner rush", func(w When) bool { return w.weekday() && w.Hour >= 18 && w.Hour <= 21 }},
	{1.4, "late night", func(w When) bool { return w.Hour >= 22 || w.Hour <= 6 }},
}

var standard = Rule{Multiplier: 1.0, Reason: "standard pricing"}

type Adjustment struct {
	Multiplier  float64 `json:"multiplier"`
	Reason      string  `json:"reason"`
	AdjustedFee float64 `json:"adjusted_fee"`
}

// Apply multiplies baseFee by the first rule matching when.
// It never reads the clock; callers pass the moment being priced.
func Apply(baseFee float64, when When) (Adjustment, error) {
	if math.IsNaN(baseFee) || math.IsInf(baseFee, 0) || baseFee < 0 {
		return Adjustment{}, fmt.Errorf("%w: %v", ErrInvalidFee, baseFee)
	}
	if err := when.validate(); err != nil {
		return Adjustment{}, err
	}
	rule := standard
	for _, r := range Rules {
		if r.Match(when) {
			rule = r
			break
		}
	}
	return Adjustment{
		Multiplier:  rule.Multiplier,
		Reason:      rule.Reason,
		AdjustedFee: types.Round2(baseFee * rule.Multiplier),
	}, nil
}
