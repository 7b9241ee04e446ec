// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"entregas/internal/http/handlers"
	"entregas/internal/http/middleware"
)

func NewRouter(deps ServerDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(deps.Logger),
		middleware.Metrics(),
		middleware.Recovery(deps.Logger),
	)

	api := r.Group("/api")

	pricingHandler := handlers.NewPricingHandler(deps.Quotes)
	api.POST("/pricing/preview", pricingHandler.Preview)
	api.GET("/quotes/:id", pricingHandler.GetQuote)

	geocodeHandler := handlers.NewGeocodeHandler(deps.Geocoder)
	api.GET("/geocode", geocodeHandler.Geocode)
	api.GET("/geocode/reverse", geocodeHandler.Reverse)

	locationHandler := handlers.NewLocationHandler(deps.Location)
	api.POST("/deliverers/nearest", locationHandler.Nearest)
	api.PUT("/deliverers/:id/location", locationHandler.Update)

	settingsHandler := handlers.NewSettingsHandler(deps.Pricing)
	api.GET("/settings/pricing", settingsHandler.GetPricing)
	api.PUT("/settings/pricing", settingsHandler.UpdatePricing)

	if deps.Hub != nil {
		r.GET("/ws", gin.WrapF(deps.Hub.ServeWS))
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
