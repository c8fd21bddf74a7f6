package app

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Clear all env vars that LoadConfig reads so we get pure defaults.
	envVars := []string{
		"HTTP_ADDR", "MONGO_URI", "MONGO_DB",
		"MONGO_VIDEOS_COLLECTION", "MONGO_WATCH_HISTORY_COLLECTION",
		"LOG_LEVEL", "LOG_FORMAT", "MEDIA_DIR",
		"FFMPEG_PATH", "FFPROBE_PATH", "TRANSCODE_MODE",
		"ENCODE_TIMEOUT", "ARTIFACT_VALIDATION_TTL",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"CORS_ALLOWED_ORIGINS",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "TRACE_SAMPLE_RATE",
	}
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg := LoadConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"HTTPAddr", cfg.HTTPAddr, ":8080"},
		{"MongoURI", cfg.MongoURI, "mongodb://localhost:27017"},
		{"MongoDatabase", cfg.MongoDatabase, "vodstream"},
		{"VideosCollection", cfg.VideosCollection, "videos"},
		{"WatchHistoryCollection", cfg.WatchHistoryCollection, "watch_history"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFormat", cfg.LogFormat, "text"},
		{"MediaDir", cfg.MediaDir, "media"},
		{"FFMPEGPath", cfg.FFMPEGPath, "ffmpeg"},
		{"FFProbePath", cfg.FFProbePath, "ffprobe"},
		{"TranscodeMode", cfg.TranscodeMode, "background"},
		{"EncodeTimeout", cfg.EncodeTimeout, 2 * time.Hour},
		{"ValidationTTL", cfg.ValidationTTL, 5 * time.Minute},
		{"RateLimitRPS", cfg.RateLimitRPS, 50},
		{"RateLimitBurst", cfg.RateLimitBurst, 100},
		{"CORSAllowedOrigins", cfg.CORSAllowedOrigins, "*"},
		{"OTLPEndpoint", cfg.OTLPEndpoint, ""},
		{"TraceSampleRate", cfg.TraceSampleRate, 0.1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("MONGO_DB", "videolib")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("TRANSCODE_MODE", "SYNC")
	t.Setenv("ENCODE_TIMEOUT", "30m")
	t.Setenv("ARTIFACT_VALIDATION_TTL", "90s")
	t.Setenv("RATE_LIMIT_RPS", "10")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")
	t.Setenv("TRACE_SAMPLE_RATE", "0.25")

	cfg := LoadConfig()

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.MongoDatabase != "videolib" {
		t.Errorf("MongoDatabase = %q", cfg.MongoDatabase)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want lowercased", cfg.LogLevel)
	}
	if cfg.TranscodeMode != "sync" {
		t.Errorf("TranscodeMode = %q, want lowercased", cfg.TranscodeMode)
	}
	if cfg.EncodeTimeout != 30*time.Minute {
		t.Errorf("EncodeTimeout = %v", cfg.EncodeTimeout)
	}
	if cfg.ValidationTTL != 90*time.Second {
		t.Errorf("ValidationTTL = %v", cfg.ValidationTTL)
	}
	if cfg.RateLimitRPS != 10 {
		t.Errorf("RateLimitRPS = %d", cfg.RateLimitRPS)
	}
	if cfg.OTLPEndpoint != "http://collector:4318" {
		t.Errorf("OTLPEndpoint = %q", cfg.OTLPEndpoint)
	}
	if cfg.TraceSampleRate != 0.25 {
		t.Errorf("TraceSampleRate = %v", cfg.TraceSampleRate)
	}
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	t.Setenv("ENCODE_TIMEOUT", "soon")
	t.Setenv("ARTIFACT_VALIDATION_TTL", "-5m")
	t.Setenv("RATE_LIMIT_RPS", "many")
	t.Setenv("TRACE_SAMPLE_RATE", "-1")

	cfg := LoadConfig()

	if cfg.EncodeTimeout != 2*time.Hour {
		t.Errorf("EncodeTimeout = %v, want default", cfg.EncodeTimeout)
	}
	if cfg.ValidationTTL != 5*time.Minute {
		t.Errorf("ValidationTTL = %v, want default", cfg.ValidationTTL)
	}
	if cfg.RateLimitRPS != 50 {
		t.Errorf("RateLimitRPS = %d, want default", cfg.RateLimitRPS)
	}
	if cfg.TraceSampleRate != 0.1 {
		t.Errorf("TraceSampleRate = %v, want default", cfg.TraceSampleRate)
	}
}
