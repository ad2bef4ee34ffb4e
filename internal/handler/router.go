package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/imannovv/gravitee-audit/internal/config"
	"github.com/imannovv/gravitee-audit/internal/middleware"
	"github.com/imannovv/gravitee-audit/internal/pkg/apperrors"
	"github.com/imannovv/gravitee-audit/internal/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups everything the router mounts.
type Handlers struct {
	Audits    *AuditHandler
	Stats     *StatsHandler
	Directory *DirectoryHandler
	Store     Pinger
}

// NewRouter wires middleware and routes. /api is read-only.
func NewRouter(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Warn("invalid trusted proxies, using peer address only", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.AccessLogMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))

	r.GET("/health", health(h.Store))

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.Use(middleware.ReadOnlyMiddleware())
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimitMiddleware(
			middleware.NewClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		))
	}
	{
		api.GET("/audits", h.Audits.List)
		api.GET("/audits/:id", h.Audits.Get)
		api.GET("/users", h.Audits.Users)
		api.GET("/events", h.Audits.Events)
		api.GET("/reference-types", h.Audits.ReferenceTypes)

		api.GET("/stats", h.Stats.Stats)
		api.GET("/analytics", h.Stats.Analytics)
		api.GET("/alerts", h.Stats.Alerts)

		api.GET("/apis", h.Directory.APIs)
		api.GET("/applications", h.Directory.Applications)
		api.GET("/applications/:id", h.Directory.Application)
		api.GET("/users-list", h.Directory.Users)
	}

	// Writes to known paths land here too, so the read-only gate runs first.
	r.NoRoute(middleware.ReadOnlyMiddleware(), staticFallback(cfg.Server.StaticDir))
	return r
}

func health(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": "gravitee-audit"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gravitee-audit"})
	}
}

// staticFallback serves the front-end bundle, falling back to index.html so
// client-side routes resolve. Without a directory every miss is a 404.
func staticFallback(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if dir == "" || strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.Method == http.MethodOptions {
			c.Error(apperrors.NewNotFound("not found"))
			return
		}
		path := filepath.Join(dir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			c.File(path)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	}
}
