package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"entregas/internal/modules/geocoding"
	"entregas/internal/types"
)

type GeocodeHandler struct {
	geocoder *geocoding.Service
}

func NewGeocodeHandler(svc *geocoding.Service) *GeocodeHandler {
	return &GeocodeHandler{geocoder: svc}
}

type geocodeResponse struct {
	Address  string      `json:"address"`
	Location types.Point `json:"location"`
}

func (h *GeocodeHandler) Geocode(c *gin.Context) {
	address := c.Query("address")
	p, err := h.geocoder.Geocode(c.Request.Context(), address)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, geocodeResponse{Address: address, Location: p})
}

func (h *GeocodeHandler) Reverse(c *gin.Context) {
	p, err := pointFromQuery(c)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	address, err := h.geocoder.ReverseGeocode(c.Request.Context(), p)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, geocodeResponse{Address: address, Location: p})
}

func pointFromQuery(c *gin.Context) (types.Point, error) {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("%w: latitude %q", types.ErrInvalidCoordinate, c.Query("latitude"))
	}
	lng, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("%w: longitude %q", types.ErrInvalidCoordinate, c.Query("longitude"))
	}
	return types.Point{Lat: lat, Lng: lng}, nil
}
