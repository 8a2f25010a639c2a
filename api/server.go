// ABOUTME: Gin router configuration for the admin API
// ABOUTME: Wires CORS, request logging, rate limiting, health and metrics endpoints

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"newsfeed-canon/api/handlers"
	"newsfeed-canon/api/middleware"
	"newsfeed-canon/core/interfaces"
)

// APIConfig holds configuration for the API
type APIConfig struct {
	Logger     interfaces.Logger
	RateLimit  int           // requests per window
	RateWindow time.Duration // rate limit window

	// AllowedOrigins lists CORS origins. Empty means any origin.
	AllowedOrigins []string

	// Gatherer serves /metrics. Defaults to the prometheus default registry.
	Gatherer       prometheus.Gatherer
	DisableMetrics bool
	Version        string
}

// Router is the configured HTTP handler plus the resources it owns
type Router struct {
	http.Handler
	limiter *middleware.RateLimiter
}

// Close releases background resources held by the router
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Stop()
	}
}

// NewRouter builds the admin API around h
func NewRouter(cfg APIConfig, h *handlers.Handler) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	if cfg.Logger != nil {
		engine.Use(middleware.RequestLogging(cfg.Logger))
	}

	router := &Router{}
	if cfg.RateLimit > 0 && cfg.RateWindow > 0 {
		router.limiter = middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
		engine.Use(middleware.RateLimit(router.limiter))
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": cfg.Version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	if !cfg.DisableMetrics {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	if h != nil {
		h.RegisterRoutes(engine.Group("/api/v1"))
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})
	router.Handler = c.Handler(engine)

	return router
}
