package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/janhq/money-coach/internal/config"
	"github.com/janhq/money-coach/internal/infrastructure"
	middleware "github.com/janhq/money-coach/internal/interfaces/httpserver/middlewares"
	v1 "github.com/janhq/money-coach/internal/interfaces/httpserver/routes/v1"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
	readinessTimeout  = 2 * time.Second
)

type HttpServer struct {
	engine  *gin.Engine
	infra   *infrastructure.Infrastructure
	v1Route *v1.V1Route
	config  *config.Config
}

func NewHttpServer(
	v1Route *v1.V1Route,
	infra *infrastructure.Infrastructure,
	cfg *config.Config,
) *HttpServer {
	gin.SetMode(gin.ReleaseMode)
	server := HttpServer{
		gin.New(),
		infra,
		v1Route,
		cfg,
	}
	server.engine.Use(gin.Recovery())
	server.engine.Use(middleware.RequestID())
	server.engine.Use(middleware.TracingMiddleware(cfg.ServiceName))
	server.engine.Use(middleware.LoggingMiddleware(infra.Logger))
	server.engine.Use(middleware.MetricsMiddleware())

	server.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	server.engine.GET("/readyz", server.readyz)

	server.registerRoutes()
	return &server
}

// Handler exposes the engine, mainly for tests.
func (s *HttpServer) Handler() http.Handler {
	return s.engine
}

func (s *HttpServer) registerRoutes() {
	root := s.engine.Group("/")
	s.v1Route.RegisterPublicRouter(root)

	protected := s.engine.Group("/")
	protected.Use(middleware.AuthMiddleware(s.infra.JWTValidator, s.infra.Logger))
	s.v1Route.RegisterRouter(protected)
}

// readyz reports ready once the database answers and signing keys are loaded.
// The delivery cache is optional and only reported.
func (s *HttpServer) readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	checks := gin.H{"database": "ok", "jwks": "ok"}
	ready := true
	if err := s.infra.DB.Ping(ctx); err != nil {
		s.infra.Logger.Warn().Err(err).Msg("readiness: database ping failed")
		checks["database"] = "unavailable"
		ready = false
	}
	if !s.infra.JWTValidator.Ready() {
		checks["jwks"] = "unavailable"
		ready = false
	}
	if s.infra.DeliveryCache != nil {
		checks["delivery_cache"] = "ok"
		if err := s.infra.DeliveryCache.Ping(ctx); err != nil {
			checks["delivery_cache"] = "unavailable"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HttpServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.HTTPPort),
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return serve(ctx, srv, s.infra.Logger.With().Str("server", "http").Logger())
}
