package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zfogg/sidechain/backend/internal/acquire"
	"github.com/zfogg/sidechain/backend/internal/bundle"
	"github.com/zfogg/sidechain/backend/internal/cache"
	"github.com/zfogg/sidechain/backend/internal/config"
	"github.com/zfogg/sidechain/backend/internal/kernel"
	"github.com/zfogg/sidechain/backend/internal/logger"
	"github.com/zfogg/sidechain/backend/internal/mediatool"
	"github.com/zfogg/sidechain/backend/internal/pipeline"
	"github.com/zfogg/sidechain/backend/internal/ratelimit"
	"github.com/zfogg/sidechain/backend/internal/registry"
	"github.com/zfogg/sidechain/backend/internal/remix"
	"github.com/zfogg/sidechain/backend/internal/router"
	"github.com/zfogg/sidechain/backend/internal/separator"
	"github.com/zfogg/sidechain/backend/internal/storage"
	"github.com/zfogg/sidechain/backend/internal/store"
	"github.com/zfogg/sidechain/backend/internal/telemetry"
)

func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFile := os.Getenv("LOG_FILE")

	if err := logger.Initialize(logLevel, logFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== stem-separation server starting ===")

	if err := godotenv.Load(); err != nil {
		logger.Log.Warn("no .env file found, using system environment variables")
	}

	cfg := config.Load()

	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		tCfg := telemetry.Config{
			ServiceName:  "stem-separation-service",
			Environment:  getEnvOrDefault("OTEL_ENVIRONMENT", "development"),
			OTLPEndpoint: cfg.OTELEndpoint,
			Enabled:      true,
			SamplingRate: 1.0,
		}
		tp, err := telemetry.InitTracer(tCfg)
		if err != nil {
			logger.Log.Warn("failed to initialize OpenTelemetry", zap.Error(err))
		} else if tp != nil {
			tracerProvider = tp
			logger.Log.Info("OpenTelemetry tracing enabled",
				zap.String("endpoint", tCfg.OTLPEndpoint))
		}
	}
	if tracerProvider != nil {
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Log.Error("failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	k := buildKernel(cfg)
	if err := k.Validate(); err != nil {
		logger.Log.Fatal("kernel validation failed", zap.Error(err))
	}

	r := router.New(k)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	go func() {
		logger.Log.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	k.Pipeline().Stop()

	if err := k.Cleanup(ctx); err != nil {
		logger.Log.Error("error during kernel cleanup", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("server forced to shutdown", err)
	}

	logger.Log.Info("server exited")
}

// buildKernel wires every service the HTTP surface dispatches to.
func buildKernel(cfg *config.Config) *kernel.Kernel {
	st, err := store.New(cfg.ResultsDir, cfg.UploadsDir)
	if err != nil {
		logger.Log.Fatal("failed to initialize store", zap.Error(err))
	}

	tc := mediatool.New(cfg.FFmpegPath, cfg.FFprobePath)

	var sep separator.Separator
	if cfg.SeparatorScriptPath != "" {
		sep = separator.NewModelSeparator(cfg.SeparatorScriptPath)
	} else {
		logger.Log.Warn("SEPARATOR_SCRIPT_PATH not set, falling back to fixture-backed separator",
			zap.String("fixture_dir", cfg.SeparatorFixtureDir))
		sep = &separator.FakeSeparator{FixtureDir: cfg.SeparatorFixtureDir, SampleRate: 44100}
	}

	reg := registry.New(cfg.MaxConcurrentJobs)
	urlAcq := acquire.NewURLAcquirer(tc, cfg.MaxVideoDuration, cfg.AcquireFallbackAPIURL)
	uploadAcq := acquire.NewUploadAcquirer(tc, cfg.MaxVideoDuration)

	tempDir := cfg.UploadsDir + "/.tmp"
	p := pipeline.New(reg, st, tc, sep, urlAcq, uploadAcq, tempDir, cfg.MaxConcurrentJobs)

	remixEngine := remix.New(st, tc)
	exporter := bundle.NewExporter(st)
	if cfg.ExportS3Bucket != "" {
		mirror, err := storage.NewS3Uploader(cfg.ExportS3Region, cfg.ExportS3Bucket)
		if err != nil {
			logger.Log.Warn("failed to initialize S3 export mirror, continuing without it", zap.Error(err))
		} else {
			exporter.Mirror = mirror
		}
	}
	importer := bundle.NewImporter(st, reg)

	var limiter ratelimit.Limiter
	var redisClient *cache.RedisClient
	if cfg.RedisAddr != "" {
		host, port := splitHostPort(cfg.RedisAddr)
		client, err := cache.NewRedisClient(host, port, os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			logger.Log.Warn("failed to connect to redis, falling back to in-process rate limiting", zap.Error(err))
			limiter = ratelimit.NewInProcess(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindowSeconds)*time.Second)
		} else {
			redisClient = client
			limiter = ratelimit.NewRedis(client, cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindowSeconds)*time.Second)
		}
	} else {
		limiter = ratelimit.NewInProcess(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindowSeconds)*time.Second)
	}

	k := kernel.New().
		SetConfig(cfg).
		SetLogger(logger.Log).
		SetStore(st).
		SetToolchain(tc).
		SetRegistry(reg).
		SetPipeline(p).
		SetRemixEngine(remixEngine).
		SetExporter(exporter).
		SetImporter(importer).
		SetURLAcquirer(urlAcq).
		SetUploadAcquirer(uploadAcq).
		SetRateLimiter(limiter)

	if redisClient != nil {
		k.SetCache(redisClient)
		k.OnCleanup(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}

	return k
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitHostPort splits "host:port" into its parts; if addr carries no
// port, the caller's default (applied by cache.NewRedisClient) stands.
func splitHostPort(addr string) (host, port string) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return addr, ""
	}
	return addr[:idx], addr[idx+1:]
}
