// README: Provider error taxonomy shared by the Google and OSRM clients.
package maps

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means the provider answered but had nothing for the query.
	ErrNotFound = errors.New("maps provider returned no results")
	// ErrTransport covers timeouts, non-OK statuses and malformed payloads.
	ErrTransport = errors.New("maps provider unavailable")
)

// classify maps a googlemaps client error onto ErrNotFound or ErrTransport.
func classify(op string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "ZERO_RESULTS") || strings.Contains(msg, "NOT_FOUND") {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrTransport, err)
}
