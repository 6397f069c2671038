package config

import (
	"os"
	"strconv"
)

// Config holds every tunable the service reads at startup. Every value
// has a sensible default; nothing here is required to be set.
type Config struct {
	ResultsDir string
	UploadsDir string

	MaxConcurrentJobs int
	MaxVideoDuration  int // seconds
	MaxFileSizeMB     int

	RateLimitRequests      int
	RateLimitWindowSeconds int

	FFmpegPath  string
	FFprobePath string

	ListenAddr string
	LogLevel   string
	LogFile    string

	RedisAddr string

	ExportS3Bucket string
	ExportS3Region string

	OTELEnabled  bool
	OTELEndpoint string

	SeparatorScriptPath   string
	SeparatorFixtureDir   string
	AcquireFallbackAPIURL string
}

// Load reads configuration from the environment, falling back to
// defaults for anything unset. It never fails — there are no required
// variables in this service.
func Load() *Config {
	return &Config{
		ResultsDir: getEnvOrDefault("RESULTS_DIR", "./data/results"),
		UploadsDir: getEnvOrDefault("UPLOADS_DIR", "./data/uploads"),

		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", 2),
		MaxVideoDuration:  getEnvInt("MAX_VIDEO_DURATION", 600),
		MaxFileSizeMB:     getEnvInt("MAX_FILE_SIZE_MB", 500),

		RateLimitRequests:      getEnvInt("RATE_LIMIT_REQUESTS", 12),
		RateLimitWindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 3600),

		FFmpegPath:  getEnvOrDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getEnvOrDefault("FFPROBE_PATH", "ffprobe"),

		ListenAddr: getEnvOrDefault("LISTEN_ADDR", ":8080"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:    getEnvOrDefault("LOG_FILE", ""),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		ExportS3Bucket: os.Getenv("EXPORT_S3_BUCKET"),
		ExportS3Region: getEnvOrDefault("EXPORT_S3_REGION", "us-east-1"),

		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		SeparatorScriptPath:   os.Getenv("SEPARATOR_SCRIPT_PATH"),
		SeparatorFixtureDir:   getEnvOrDefault("SEPARATOR_FIXTURE_DIR", "./fixtures/stems"),
		AcquireFallbackAPIURL: os.Getenv("ACQUIRE_FALLBACK_API_URL"),
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
