// Package api serves trade server configurations over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"configurator/internal/metrics"
	"configurator/internal/service"
)

// Collector builds the configuration for one request.
type Collector interface {
	Collect(ctx context.Context, req service.Request) (*service.Response, error)
}

type Config struct {
	DefaultRoutesMaxLength int
	RoutesMaxLengthLimit   int
}

// Server holds the gin engine and its dependencies.
type Server struct {
	engine    *gin.Engine
	collector Collector
	metrics   *metrics.Metrics
	config    Config
	logger    zerolog.Logger
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics exposes the registry on GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

func New(collector Collector, config Config, opts ...Option) *Server {
	s := &Server{
		collector: collector,
		config:    config,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.Use(requestID(), accessLog(s.logger), recovery(s.logger))
	s.engine = engine
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/ping", s.ping)
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	s.engine.GET("/:exchange/:instance", s.getConfigs)
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}
