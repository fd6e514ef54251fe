package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/denysvitali/photowall-server/pkg/assets"
	"github.com/denysvitali/photowall-server/pkg/config"
	"github.com/denysvitali/photowall-server/pkg/telemetry"
)

// Server represents the HTTP server
type Server struct {
	config    *config.Config
	logger    *logrus.Logger
	library   *assets.Library
	tracer    trace.Tracer
	engine    *gin.Engine
	server    *http.Server
	routes    []route
	startTime time.Time
}

// New creates a new server instance
func New(cfg *config.Config, logger *logrus.Logger) *Server {
	// Set gin mode based on log level
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(telemetry.ServiceName))
	}

	engine.Use(methodGuard())

	s := &Server{
		config:    cfg,
		logger:    logger,
		library:   assets.New(cfg, logger),
		tracer:    otel.Tracer(telemetry.ServiceName),
		engine:    engine,
		startTime: time.Now(),
	}

	s.routes = s.buildRoutes()

	// No gin routes are registered, so every request lands here and goes
	// through the route table.
	engine.NoRoute(s.dispatch)

	s.server = &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: engine,
	}

	return s
}

// Start listens on the configured address and serves until Shutdown is
// called. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Infof("Starting server on %s", s.server.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Engine returns the gin engine for testing purposes
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
