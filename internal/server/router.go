package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lunalabs/luna/internal/session"
	"go.uber.org/zap"
)

// Config holds the router's tunables.
type Config struct {
	CORSOrigins  []string
	RateLimitRPS int
	MaxBodyBytes int64
}

// NewRouter assembles the Luna API router: shared middleware, the public
// routes, and the session-guarded routes.
func NewRouter(cfg Config, authHandler *AuthHandler, dreamsHandler *DreamsHandler, sessions session.Registry, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.Use(SecurityHeaders())
	if cfg.MaxBodyBytes > 0 {
		router.Use(BodySizeLimit(cfg.MaxBodyBytes))
	}
	if cfg.RateLimitRPS > 0 {
		router.Use(RateLimiter(cfg.RateLimitRPS, cfg.RateLimitRPS*2))
	}
	router.Use(RequestLogger(logger))
	router.Use(PrometheusMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", MetricsHandler())

	v1 := router.Group("/api/v1")
	authed := router.Group("/api/v1")
	authed.Use(RequireSession(sessions))

	authHandler.Register(v1, authed)
	dreamsHandler.Register(v1, authed)

	return router
}

// containsWildcard returns true if origins includes "*".
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}
