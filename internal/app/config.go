package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr               string
	MongoURI               string
	MongoDatabase          string
	VideosCollection       string
	WatchHistoryCollection string
	LogLevel               string
	LogFormat              string
	MediaDir               string
	FFMPEGPath             string
	FFProbePath            string
	TranscodeMode          string // "background" or "sync"
	EncodeTimeout          time.Duration
	ValidationTTL          time.Duration
	RateLimitRPS           int
	RateLimitBurst         int
	CORSAllowedOrigins     string
	OTLPEndpoint           string
	TraceSampleRate        float64
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		MongoURI:               getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:          getEnv("MONGO_DB", "vodstream"),
		VideosCollection:       getEnv("MONGO_VIDEOS_COLLECTION", "videos"),
		WatchHistoryCollection: getEnv("MONGO_WATCH_HISTORY_COLLECTION", "watch_history"),
		LogLevel:               strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:              strings.ToLower(getEnv("LOG_FORMAT", "text")),
		MediaDir:               getEnv("MEDIA_DIR", "media"),
		FFMPEGPath:             getEnv("FFMPEG_PATH", "ffmpeg"),
		FFProbePath:            getEnv("FFPROBE_PATH", "ffprobe"),
		TranscodeMode:          strings.ToLower(getEnv("TRANSCODE_MODE", "background")),
		EncodeTimeout:          getEnvDuration("ENCODE_TIMEOUT", 2*time.Hour),
		ValidationTTL:          getEnvDuration("ARTIFACT_VALIDATION_TTL", 5*time.Minute),
		RateLimitRPS:           int(getEnvInt64("RATE_LIMIT_RPS", 50)),
		RateLimitBurst:         int(getEnvInt64("RATE_LIMIT_BURST", 100)),
		CORSAllowedOrigins:     getEnv("CORS_ALLOWED_ORIGINS", "*"),
		OTLPEndpoint:           getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TraceSampleRate:        getEnvFloat("TRACE_SAMPLE_RATE", 0.1),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	if parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	if parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	if parsed <= 0 {
		return fallback
	}
	return parsed
}
