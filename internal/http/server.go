// Package http provides the HTTP API for service mode.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/logging"
	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"github.com/fyrsmithlabs/snakebot/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server provides HTTP endpoints for a running snakebot.
type Server struct {
	echo    *echo.Echo
	runner  *service.Runner
	hub     *notify.Hub
	history HistoryReader
	nc      *nats.Conn
	prefix  string
	metrics *HTTPMetrics
	baseCtx context.Context
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithNATS enables the SSE event stream backed by nc.
func WithNATS(nc *nats.Conn, subjectPrefix string) Option {
	return func(s *Server) {
		s.nc = nc
		s.prefix = subjectPrefix
	}
}

// WithHistory enables the history endpoints.
func WithHistory(h HistoryReader) Option {
	return func(s *Server) { s.history = h }
}

// WithMetrics installs the request metrics middleware.
func WithMetrics(m *HTTPMetrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithBaseContext sets the context games started over HTTP run under.
// Request contexts end with the request and must not be used for that.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Server) { s.baseCtx = ctx }
}

// NewServer creates a new HTTP server.
func NewServer(runner *service.Runner, hub *notify.Hub, logger *zap.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if hub == nil {
		return nil, fmt.Errorf("hub cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "0.0.0.0",
			Port: 5001,
		}
	}

	s := &Server{
		runner:  runner,
		hub:     hub,
		baseCtx: context.Background(),
		logger:  logger,
		config:  cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			if reqID != "" {
				c.SetRequest(c.Request().WithContext(logging.WithRequestID(c.Request().Context(), reqID)))
			}

			err := next(c)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", reqID),
			)
			return err
		}
	})
	if s.metrics != nil {
		e.Use(s.metrics.MetricsMiddleware())
	}

	s.echo = e
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/ws", s.handleWS)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/game/start", s.handleStart)
	v1.POST("/game/dice", s.handleDice)
	v1.POST("/game/collision", s.handleCollision)
	v1.GET("/game/state", s.handleState)
	v1.GET("/game/events", s.handleEvents)

	v1.GET("/history/games", s.handleRecentGames)
	v1.GET("/history/games/:id/turns", s.handleTurns)
	v1.GET("/history/stats", s.handleStats)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleWS registers a websocket client for game events.
func (s *Server) handleWS(c echo.Context) error {
	if err := s.hub.ServeWS(c.Response(), c.Request()); err != nil {
		// the upgrader has already written the error response
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
	}
	return nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	s.hub.Close()
	return s.echo.Shutdown(ctx)
}

// Echo exposes the router for additional routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
