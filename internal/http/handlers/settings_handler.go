package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"entregas/internal/modules/pricing"
)

type SettingsHandler struct {
	pricing *pricing.Provider
}

func NewSettingsHandler(p *pricing.Provider) *SettingsHandler {
	return &SettingsHandler{pricing: p}
}

type pricingSettings struct {
	BaseFee    float64 `json:"base_fee"`
	PerKmRate  float64 `json:"per_km_rate"`
	MinimumFee float64 `json:"minimum_fee"`
	MaximumFee float64 `json:"maximum_fee"`
}

func toSettings(cfg pricing.Config) pricingSettings {
	return pricingSettings{
		BaseFee:    cfg.BaseFee,
		PerKmRate:  cfg.PerKmRate,
		MinimumFee: cfg.MinimumFee,
		MaximumFee: cfg.MaximumFee,
	}
}

func (h *SettingsHandler) GetPricing(c *gin.Context) {
	cfg, err := h.pricing.PricingConfig(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toSettings(cfg))
}

func (h *SettingsHandler) UpdatePricing(c *gin.Context) {
	var patch pricing.ConfigPatch
	if !bindJSON(c, &patch) {
		return
	}
	cfg, err := h.pricing.Update(c.Request.Context(), patch)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toSettings(cfg))
}
