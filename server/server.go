// Package server exposes expand-and-push over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"gmaps2nav/logging"
	"gmaps2nav/pipeline"
	"gmaps2nav/service"
)

// Expander is the part of service.Service the handlers need.
type Expander interface {
	Resolve(ctx context.Context, shareURL string) (*pipeline.Result, error)
	ExpandAndPush(ctx context.Context, shareURL string, opts service.Options) (*service.Outcome, error)
}

// Config holds configuration for the HTTP server
type Config struct {
	Addr   string
	APIKey string
	// RateLimit is the sustained number of requests per second across all
	// clients; Burst is the bucket size.
	RateLimit float64
	Burst     int
}

type Server struct {
	config  Config
	svc     Expander
	limiter *rate.Limiter
	engine  *gin.Engine
	log     zerolog.Logger
}

// New builds the router. It does not start listening.
func New(config Config, svc Expander) *Server {
	s := &Server{
		config:  config,
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst),
		log:     logging.GetLogger("server"),
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(s.requestID(), s.requestLogger(), gin.Recovery())
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorBody("Method not allowed"))
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody("Not found"))
	})

	r.GET("/healthz", s.healthz)

	api := r.Group("/", s.rateLimit())
	api.POST("/push", s.push)
	api.GET("/resolve", s.resolve)

	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.config.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
