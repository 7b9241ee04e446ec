// README: API gateway; owns the gin engine and the HTTP server lifecycle.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"entregas/internal/modules/geocoding"
	"entregas/internal/modules/location"
	"entregas/internal/modules/pricing"
	"entregas/internal/modules/quote"
	"entregas/internal/realtime"
)

type ServerDeps struct {
	Quotes   *quote.Service
	Geocoder *geocoding.Service
	Location *location.Service
	Pricing  *pricing.Provider
	Hub      *realtime.Hub
	Logger   *zap.Logger
}

type ServerOptions struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	deps ServerDeps
	opts ServerOptions
}

func NewServer(deps ServerDeps, opts ServerOptions) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{deps: deps, opts: opts}
}

func (s *Server) Routes() *gin.Engine {
	return NewRouter(s.deps)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("http server listening", zap.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.deps.Logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
