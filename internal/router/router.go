// Package router builds the gin.Engine the server listens on,
// wiring the middleware chain and route table against a Kernel.
package router

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zfogg/sidechain/backend/internal/handlers"
	"github.com/zfogg/sidechain/backend/internal/kernel"
	"github.com/zfogg/sidechain/backend/internal/logger"
	"github.com/zfogg/sidechain/backend/internal/middleware"
)

// New builds the engine, registering middleware first and then every
// route the HTTP surface exposes.
func New(k *kernel.Kernel) *gin.Engine {
	r := gin.New()

	r.Use(corsMiddleware())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	if k.Config() != nil && k.Config().OTELEnabled {
		r.Use(middleware.TracingMiddleware("stem-separation-service"))
		logger.Log.Info("OpenTelemetry tracing middleware registered")
	}
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		"/metrics",
		"/jobs/", // streamed media should not be buffered for compression
	})))

	h := handlers.NewHandlers(k)
	rateGate := middleware.JobRateLimit(k.RateLimiter())

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jobs := r.Group("/jobs")
	{
		jobs.POST("", rateGate, h.CreateURLJob)
		jobs.POST("/upload", rateGate, h.CreateUploadJob)
		jobs.GET("", h.ListJobs)

		jobs.POST("/export", rateGate, h.ExportJobs)
		jobs.GET("/export/download/:export_id", h.DownloadExportBundle)
		jobs.POST("/import", rateGate, h.ImportBundle)
		jobs.POST("/import/resolve/:conflict_id", rateGate, h.ResolveImportConflict)

		jobs.GET("/:id", h.GetJob)
		jobs.DELETE("/:id", h.DeleteJob)
		jobs.GET("/:id/download", h.DownloadJob)
		jobs.GET("/:id/stream", h.StreamJob)
		jobs.HEAD("/:id/stream", h.StreamJob)
		jobs.GET("/:id/tracks", h.ListTracks)
		jobs.GET("/:id/tracks/:name", h.StreamTrack)
		jobs.HEAD("/:id/tracks/:name", h.StreamTrack)

		jobs.POST("/:id/mix", rateGate, h.CreateMix)
		jobs.GET("/:id/mix/:mix_id", h.GetMix)
		jobs.GET("/:id/mix/:mix_id/download", h.DownloadMix)
	}

	return r
}

// corsMiddleware mirrors the allow-list validation the teacher stack
// applies: comma-separated ALLOWED_ORIGINS, rejecting wildcard or
// schemeless entries rather than silently widening access.
func corsMiddleware() gin.HandlerFunc {
	cfg := cors.DefaultConfig()

	allowed := os.Getenv("ALLOWED_ORIGINS")
	var origins []string
	if allowed != "" {
		for _, origin := range strings.Split(allowed, ",") {
			origin = strings.TrimSpace(origin)
			if origin == "" || origin == "*" || strings.Contains(origin, "*") {
				continue
			}
			if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
				continue
			}
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	cfg.AllowOrigins = origins
	cfg.AllowMethods = []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Range", "Accept"}
	cfg.ExposeHeaders = []string{"Content-Range", "Accept-Ranges", "Content-Disposition"}
	cfg.AllowCredentials = false
	cfg.MaxAge = 86400

	return cors.New(cfg)
}
