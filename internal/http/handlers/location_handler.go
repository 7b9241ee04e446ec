// README: Deliverer tracking and nearest-deliverer lookup.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"entregas/internal/modules/location"
	"entregas/internal/types"
)

type LocationHandler struct {
	location *location.Service
}

func NewLocationHandler(svc *location.Service) *LocationHandler {
	return &LocationHandler{location: svc}
}

type nearestRequest struct {
	PickupLocation     *types.Point         `json:"pickup_location"`
	DelivererLocations []location.Deliverer `json:"deliverer_locations"`
}

func (h *LocationHandler) Nearest(c *gin.Context) {
	var req nearestRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.PickupLocation == nil {
		writeError(c, http.StatusBadRequest, "pickup_location is required")
		return
	}
	m, err := h.location.Nearest(c.Request.Context(), *req.PickupLocation, req.DelivererLocations)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, m)
}

type positionRequest struct {
	Name     string      `json:"name"`
	Location types.Point `json:"location"`
}

func (h *LocationHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing id")
		return
	}
	var req positionRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.location.UpdatePosition(c.Request.Context(), location.Update{
		DelivererID: types.ID(id),
		Name:        req.Name,
		Position:    req.Location,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, u)
}
