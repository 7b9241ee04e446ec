// README: Fee preview and locked quote lookup.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"entregas/internal/modules/quote"
	"entregas/internal/types"
)

type PricingHandler struct {
	quotes *quote.Service
}

func NewPricingHandler(svc *quote.Service) *PricingHandler {
	return &PricingHandler{quotes: svc}
}

type previewRequest struct {
	PickupAddress       string       `json:"pickup_address"`
	PickupCoordinates   *types.Point `json:"pickup_coordinates"`
	DeliveryAddress     string       `json:"delivery_address"`
	DeliveryCoordinates *types.Point `json:"delivery_coordinates"`
	BaseFare            *float64     `json:"base_fare"`
	FarePerKm           *float64     `json:"fare_per_km"`
	Mode                string       `json:"mode"`
	ApplySurge          *bool        `json:"apply_surge"`
}

func (h *PricingHandler) Preview(c *gin.Context) {
	var req previewRequest
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.quotes.Preview(c.Request.Context(), quote.Request{
		PickupAddress:       req.PickupAddress,
		PickupCoordinates:   req.PickupCoordinates,
		DeliveryAddress:     req.DeliveryAddress,
		DeliveryCoordinates: req.DeliveryCoordinates,
		BaseFare:            req.BaseFare,
		FarePerKm:           req.FarePerKm,
		Mode:                quote.Mode(req.Mode),
		ApplySurge:          req.ApplySurge,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}

func (h *PricingHandler) GetQuote(c *gin.Context) {
	q, err := h.quotes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}
