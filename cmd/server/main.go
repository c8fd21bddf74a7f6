package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apihttp "vodstream/internal/api/http"
	"vodstream/internal/app"
	"vodstream/internal/domain"
	"vodstream/internal/domain/ports"
	"vodstream/internal/hls"
	"vodstream/internal/media"
	"vodstream/internal/metrics"
	mongorepo "vodstream/internal/repository/mongo"
	"vodstream/internal/telemetry"
	"vodstream/internal/transcode"
	"vodstream/internal/usecase"

	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "vod-server", cfg.OTLPEndpoint, cfg.TraceSampleRate)
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "vod-server"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("mediaDir", cfg.MediaDir),
		slog.String("transcodeMode", cfg.TranscodeMode),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	defer cancel()

	mongoMonitor := otelmongo.NewMonitor()
	mongoClient, err := mongorepo.Connect(ctx, cfg.MongoURI, options.Client().SetMonitor(mongoMonitor))
	if err != nil {
		logger.Error("mongo connect failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("mongo ping failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repo := mongorepo.NewRepository(mongoClient, cfg.MongoDatabase, cfg.VideosCollection)
	watchHistoryRepo := mongorepo.NewWatchHistoryRepository(mongoClient, cfg.MongoDatabase, cfg.WatchHistoryCollection)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn("mongo ensure indexes failed", slog.String("error", err.Error()))
	}

	prober := media.New(cfg.FFProbePath)
	encoder := media.NewFFmpeg(cfg.FFMPEGPath, cfg.EncodeTimeout, logger)

	validator := transcode.NewValidator(prober, cfg.ValidationTTL, logger)
	cache := transcode.NewArtifactCache(validator, logger)
	resolver := transcode.NewResolver(prober, logger)
	coordinator := transcode.NewCoordinator(cache, encoder, logger)
	pipeline := hls.NewPipeline(encoder, logger)

	mode := transcode.ModeBackground
	if cfg.TranscodeMode == string(transcode.ModeSync) {
		mode = transcode.ModeSync
	}

	streamUC := usecase.StreamVideo{Repo: repo, Resolver: resolver, Artifacts: coordinator}
	qualitiesUC := usecase.ListQualities{Repo: repo, Cache: cache}
	convertUC := usecase.ConvertHLS{Repo: repo, Pipeline: pipeline}
	listUC := usecase.ListVideos{Repo: repo}
	getUC := usecase.GetVideo{Repo: repo}
	deleteUC := usecase.DeleteVideo{
		Repo:        repo,
		History:     watchHistoryRepo,
		Coordinator: coordinator,
		Artifacts:   cache,
		HLS:         pipeline,
	}
	saveUC := usecase.SaveWatchPosition{Repo: repo, History: watchHistoryRepo, Now: time.Now}
	getPosUC := usecase.GetWatchPosition{History: watchHistoryRepo}
	listHistUC := usecase.ListWatchHistory{History: watchHistoryRepo}

	handler := apihttp.NewServer(streamUC,
		apihttp.WithLogger(logger),
		apihttp.WithListQualities(qualitiesUC),
		apihttp.WithConvertHLS(convertUC),
		apihttp.WithListVideos(listUC),
		apihttp.WithGetVideo(getUC),
		apihttp.WithDeleteVideo(deleteUC),
		apihttp.WithWatchHistory(saveUC, getPosUC, listHistUC),
		apihttp.WithViewCounter(repo),
		apihttp.WithTranscodeMode(mode),
		apihttp.WithRateLimit(float64(cfg.RateLimitRPS), cfg.RateLimitBurst),
		apihttp.WithAllowedOrigins(parseOrigins(cfg.CORSAllowedOrigins)),
	)

	// Push conversion progress and encode completions to connected players.
	pipeline.OnProgress(handler.BroadcastConversionProgress)
	coordinator.OnComplete(handler.BroadcastTranscodeComplete)

	// Register library files not yet in the catalog (in background so the
	// HTTP server starts immediately).
	go scanLibrary(rootCtx, repo, prober, cfg.MediaDir, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("server started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	coordinator.CancelAll()
	pipeline.CancelAll()
	handler.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", slog.String("error", err.Error()))
	}
	if err := mongoClient.Disconnect(context.Background()); err != nil {
		logger.Warn("mongo disconnect error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

var mediaExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".mov":  true,
	".m4v":  true,
}

// scanLibrary walks the media directory and creates catalog entries for
// files that are not registered yet. Derived artifacts (the _hls trees and
// _{quality}.mp4 renditions) are skipped.
func scanLibrary(ctx context.Context, repo ports.VideoRepository, prober ports.Prober, mediaDir string, logger *slog.Logger) {
	entries := discoverMediaFiles(mediaDir)
	if len(entries) == 0 {
		return
	}

	logger.Info("scanning media library", slog.Int("files", len(entries)), slog.String("dir", mediaDir))

	registered := 0
	for _, path := range entries {
		if ctx.Err() != nil {
			return
		}

		id := libraryID(path)
		if _, err := repo.Get(ctx, id); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("scan: lookup failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}

		record := domain.VideoRecord{
			ID:        id,
			Title:     titleFromPath(path),
			FilePath:  path,
			Status:    domain.VideoReady,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if info, err := os.Stat(path); err == nil {
			record.FileSize = info.Size()
		}
		if probed, err := prober.Probe(ctx, path); err != nil {
			logger.Warn("scan: probe failed", slog.String("path", path), slog.String("error", err.Error()))
			record.Status = domain.VideoError
		} else {
			record.Width = probed.Width
			record.Height = probed.Height
			record.Duration = probed.Duration
		}

		if err := repo.Create(ctx, record); err != nil {
			if !errors.Is(err, domain.ErrAlreadyExists) {
				logger.Warn("scan: create failed", slog.String("path", path), slog.String("error", err.Error()))
			}
			continue
		}
		registered++
	}

	if registered > 0 {
		logger.Info("library scan complete", slog.Int("registered", registered))
	}
}

func discoverMediaFiles(mediaDir string) []string {
	var files []string
	_ = filepath.WalkDir(mediaDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			// Derived HLS trees live next to their originals.
			if strings.HasSuffix(d.Name(), "_hls") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !mediaExtensions[ext] {
			return nil
		}
		if isDerivedRendition(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files
}

// isDerivedRendition reports whether a filename looks like a cached
// transcode output rather than a library original.
func isDerivedRendition(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, q := range domain.TranscodableQualities {
		if strings.HasSuffix(stem, "_"+string(q)) {
			return true
		}
	}
	return false
}

func libraryID(path string) domain.VideoID {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return domain.VideoID(strings.ToLower(strings.ReplaceAll(stem, " ", "-")))
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(stem, "_", " ")
}

func parseOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "*" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
