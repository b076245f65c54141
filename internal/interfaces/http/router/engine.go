package router

import (
	"net/http"

	"github.com/commerce/backend/internal/infrastructure/cache"
	"github.com/commerce/backend/internal/infrastructure/config"
	"github.com/commerce/backend/internal/infrastructure/logger"
	"github.com/commerce/backend/internal/interfaces/http/dto"
	"github.com/commerce/backend/internal/interfaces/http/handler"
	"github.com/commerce/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EngineConfig holds everything the HTTP engine is built from
type EngineConfig struct {
	HTTP    config.HTTPConfig
	Logger  *zap.Logger
	Tracing middleware.TracingConfig
	// Metrics records request metrics and serves /metrics. Optional.
	Metrics interface {
		middleware.RequestRecorder
		Handler() http.Handler
	}
	// Limiter throttles every request per client IP when HTTP.RateLimitEnabled is set.
	Limiter cache.RateLimiter
	Health  *handler.HealthHandler
	// StaticDir is served under /static when set
	StaticDir string
	Routes    RoutesConfig
}

// NewEngine builds the gin engine with the middleware stack and all routes.
//
// Middleware order: request id, recovery, tracing, request logging, metrics,
// security headers, CORS, body limit and the global rate limit.
func NewEngine(cfg EngineConfig) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			cfg.Logger.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	skipPaths := []string{"/health", "/metrics"}
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(cfg.Logger))
	if cfg.Tracing.Enabled {
		cfg.Tracing.SkipPaths = append(cfg.Tracing.SkipPaths, skipPaths...)
		engine.Use(middleware.Tracing(cfg.Tracing), middleware.SpanAttributes())
	}
	engine.Use(logger.GinMiddleware(cfg.Logger))
	if cfg.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(cfg.Metrics, skipPaths...))
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	if cfg.HTTP.RateLimitEnabled && cfg.Limiter != nil {
		engine.Use(middleware.RateLimit(cfg.Limiter))
		cfg.Logger.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if cfg.Health != nil {
		engine.GET("/health", cfg.Health.Health)
	}
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.StaticDir != "" {
		engine.Static("/static", cfg.StaticDir)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(Groups(cfg.Routes)...)
	r.Setup()

	engine.NoRoute(notFound)
	engine.NoMethod(methodNotAllowed)
	return engine
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}

var base handler.BaseHandler

func notFound(c *gin.Context) {
	base.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Route not found")
}

func methodNotAllowed(c *gin.Context) {
	base.Error(c, http.StatusMethodNotAllowed, dto.ErrCodeBadRequest, "Method not allowed")
}
