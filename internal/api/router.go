// Package api wires the HTTP surface of the event registry: the middleware
// stack, the public registration and leaderboard routes, the token-gated
// admin routes, and the operational health endpoints.
package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/event-registry/event-registry/internal/api/admin"
	"github.com/event-registry/event-registry/internal/api/leaderboard"
	"github.com/event-registry/event-registry/internal/api/registrations"
	"github.com/event-registry/event-registry/internal/config"
	"github.com/event-registry/event-registry/internal/middleware"
	"github.com/event-registry/event-registry/internal/storage"

	// Storage backends register themselves with the factory via init().
	_ "github.com/event-registry/event-registry/internal/storage/local"
	_ "github.com/event-registry/event-registry/internal/storage/s3"
)

// Build information, injected via -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BackgroundServices holds long-lived resources created by NewRouter that need
// an explicit shutdown. Call Stop during graceful shutdown.
type BackgroundServices struct {
	loginLimiter    *middleware.RateLimiter
	registerLimiter *middleware.RateLimiter
}

// Stop shuts down the background services
func (b *BackgroundServices) Stop() {
	b.loginLimiter.Stop()
	b.registerLimiter.Stop()
}

// NewRouter creates the Gin engine with all routes and middleware configured
func NewRouter(cfg *config.Config, database *sql.DB) (*gin.Engine, *BackgroundServices, error) {
	storageBackend, err := storage.NewStorage(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}

	router := gin.New()

	// Order matters: the request ID must exist before the logger reads it, and
	// metrics wrap everything downstream of them.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Brute-force protection on the two abuse-prone endpoints. Everything else
	// is read-only or already behind the admin token.
	loginLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	registerLimiter := middleware.NewRateLimiter(middleware.RegistrationRateLimitConfig())
	services := &BackgroundServices{
		loginLimiter:    loginLimiter,
		registerLimiter: registerLimiter,
	}

	// Operational endpoints
	router.GET("/health", healthCheckHandler(database))
	router.GET("/ready", readinessHandler(database, storageBackend))
	router.GET("/version", versionHandler)

	// Payment screenshot serving (local storage backend with serve_directly)
	router.GET("/files/*filepath", registrations.ServeFileHandler(storageBackend))

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/register",
			middleware.RateLimitMiddleware(registerLimiter),
			registrations.CreateHandler(database, storageBackend, cfg))
		apiGroup.GET("/stats", registrations.StatsHandler(database, cfg))
		apiGroup.GET("/leaderboard", leaderboard.GetHandler(database))

		adminGroup := apiGroup.Group("/admin")
		{
			adminGroup.POST("/login",
				middleware.RateLimitMiddleware(loginLimiter),
				admin.LoginHandler(cfg))

			protected := adminGroup.Group("")
			protected.Use(middleware.AdminAuthMiddleware())
			{
				protected.GET("/registrations", admin.ListHandler(database))
				protected.GET("/registrations/:id/screenshot", admin.ScreenshotURLHandler(database, storageBackend))
				protected.DELETE("/registrations/:id", admin.DeleteHandler(database, storageBackend))
				protected.POST("/leaderboard", admin.UpdateLeaderboardHandler(database))
				protected.GET("/export/registrations", admin.ExportRegistrationsHandler(database))
				protected.GET("/export/leaderboard", admin.ExportLeaderboardHandler(database))
			}
		}
	}

	return router, services, nil
}

// @Summary      Health check
// @Description  Liveness probe. Reports unhealthy when the database does not respond to a ping.
// @Tags         Operations
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Service healthy"
// @Failure      503  {object}  map[string]interface{}  "Database unreachable"
// @Router       /health [get]
// healthCheckHandler reports liveness
// GET /health
func healthCheckHandler(database *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Readiness probe. Verifies both the database and the storage backend are usable before traffic is routed here.
// @Tags         Operations
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Service ready"
// @Failure      503  {object}  map[string]interface{}  "One or more dependencies not ready"
// @Router       /ready [get]
// readinessHandler reports readiness of the database and storage backend
// GET /ready
func readinessHandler(database *sql.DB, storageBackend storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}
		ready := true

		if err := database.PingContext(c.Request.Context()); err != nil {
			checks["database"] = "unreachable"
			ready = false
		} else {
			checks["database"] = "ok"
		}

		// Exists on a key that never exists exercises the backend's listing
		// path without touching real data.
		if _, err := storageBackend.Exists(c.Request.Context(), ".readiness-probe"); err != nil {
			checks["storage"] = "unreachable"
			ready = false
		} else {
			checks["storage"] = "ok"
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ready":  ready,
			"checks": checks,
		})
	}
}

// @Summary      Build version
// @Description  Returns the running build's version, commit, and build time.
// @Tags         Operations
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /version [get]
// versionHandler returns build information
// GET /version
func versionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    Version,
		"commit":     GitCommit,
		"build_time": BuildTime,
	})
}

// LoggerMiddleware logs each HTTP request through slog in the configured
// format. The request ID set by RequestIDMiddleware is included so a log line
// can be matched to the X-Request-ID a client saw.
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	jsonFormat := cfg.Logging.Format == "json"

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		size := c.Writer.Size()
		requestID := c.GetString(middleware.RequestIDKey)

		if jsonFormat {
			logJSON(c, path, query, status, size, latency, requestID)
		} else {
			logText(c, path, query, status, size, latency, requestID)
		}
	}
}

// logLevel maps a response status to a log level: 5xx is an error, 4xx a
// warning, everything else informational.
func logLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func logJSON(c *gin.Context, path, query string, status, size int, latency time.Duration, requestID string) {
	slog.LogAttrs(c.Request.Context(), logLevel(status), "http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("query", query),
		slog.Int("status", status),
		slog.Int("size", size),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", requestID),
		slog.String("user_agent", c.Request.UserAgent()),
	)
}

func logText(c *gin.Context, path, query string, status, size int, latency time.Duration, requestID string) {
	if query != "" {
		path = path + "?" + query
	}
	slog.LogAttrs(c.Request.Context(), logLevel(status), "http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("status", strconv.Itoa(status)),
		slog.String("latency", latency.String()),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", requestID),
	)
}

// CORSMiddleware applies the configured CORS policy. The registration form and
// admin dashboard are static pages that may live on a different origin than
// this API.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := cfg.Security.CORS.AllowedOrigins

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowOrigin := ""
		for _, candidate := range allowed {
			if candidate == "*" {
				allowOrigin = "*"
				break
			}
			if candidate == origin {
				allowOrigin = origin
				break
			}
		}

		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
