// README: Deliverer positions and nearest-match results.
package location

import (
	"errors"
	"time"

	"entregas/internal/types"
)

var (
	ErrNoDeliverers = errors.New("no deliverers available")
	ErrBadRequest   = errors.New("bad request")
)

type Deliverer struct {
	ID       types.ID    `json:"id"`
	Name     string      `json:"name"`
	Location types.Point `json:"location"`
}

// Match is a deliverer ranked against a pickup point.
// Distance is the road-corrected distance in km; ETA is in minutes.
type Match struct {
	Deliverer
	Distance float64 `json:"distance"`
	ETA      int     `json:"eta"`
}

type Update struct {
	DelivererID types.ID    `json:"id"`
	Name        string      `json:"name"`
	Position    types.Point `json:"location"`
	RecordedAt  time.Time   `json:"recorded_at"`
}
