// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"entregas/internal/maps"
	"entregas/internal/modules/geocoding"
	"entregas/internal/modules/location"
	"entregas/internal/modules/pricing"
	"entregas/internal/modules/quote"
	"entregas/internal/modules/surge"
	"entregas/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors to statuses. The underlying error is
// attached to the context so the logging middleware records it.
func writeServiceError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, geocoding.ErrEmptyAddress),
		errors.Is(err, types.ErrInvalidCoordinate),
		errors.Is(err, pricing.ErrInvalidDistance),
		errors.Is(err, surge.ErrInvalidTime),
		errors.Is(err, surge.ErrInvalidFee),
		errors.Is(err, pricing.ErrRejectedUpdate),
		errors.Is(err, quote.ErrBadRequest),
		errors.Is(err, location.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, geocoding.ErrAddressNotFound), errors.Is(err, maps.ErrNotFound):
		writeError(c, http.StatusNotFound, "address not found, check the street, number and neighborhood")
	case errors.Is(err, quote.ErrQuoteNotFound), errors.Is(err, location.ErrNoDeliverers):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, geocoding.ErrTransport), errors.Is(err, maps.ErrTransport):
		writeError(c, http.StatusBadGateway, "location service temporarily unavailable, try again")
	case errors.Is(err, pricing.ErrInvalidConfig):
		writeError(c, http.StatusInternalServerError, "pricing configuration is invalid, contact an administrator")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}
