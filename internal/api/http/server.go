package apihttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"vodstream/internal/domain"
	"vodstream/internal/transcode"
	"vodstream/internal/usecase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type StreamVideoUseCase interface {
	Execute(ctx context.Context, id domain.VideoID, requested domain.Quality, mode transcode.Mode) (usecase.StreamVideoResult, error)
}

type ListQualitiesUseCase interface {
	Execute(ctx context.Context, id domain.VideoID) (usecase.ListQualitiesResult, error)
}

type ConvertHLSUseCase interface {
	Execute(ctx context.Context, id domain.VideoID, qualities []domain.Quality) (domain.ConversionProgress, bool, error)
	Progress(ctx context.Context, id domain.VideoID) (domain.ConversionProgress, error)
}

type ListVideosUseCase interface {
	Execute(ctx context.Context, limit, offset int) ([]domain.VideoRecord, error)
}

type GetVideoUseCase interface {
	Execute(ctx context.Context, id domain.VideoID) (domain.VideoRecord, error)
}

type DeleteVideoUseCase interface {
	Execute(ctx context.Context, id domain.VideoID, deleteOriginal bool) error
}

type SaveWatchPositionUseCase interface {
	Execute(ctx context.Context, wp domain.WatchPosition) error
}

type GetWatchPositionUseCase interface {
	Execute(ctx context.Context, id domain.VideoID) (domain.WatchPosition, error)
}

type ListWatchHistoryUseCase interface {
	Execute(ctx context.Context, limit int) ([]domain.WatchPosition, error)
}

// ViewCounter records one playback start per full (non-range) request.
type ViewCounter interface {
	IncrementViewCount(ctx context.Context, id domain.VideoID) error
}

type Server struct {
	streamVideo    StreamVideoUseCase
	listQualities  ListQualitiesUseCase
	convertHLS     ConvertHLSUseCase
	listVideos     ListVideosUseCase
	getVideo       GetVideoUseCase
	deleteVideo    DeleteVideoUseCase
	savePosition   SaveWatchPositionUseCase
	getPosition    GetWatchPositionUseCase
	listHistory    ListWatchHistoryUseCase
	views          ViewCounter
	transcodeMode  transcode.Mode
	rateLimitRPS   float64
	rateLimitBurst int
	allowedOrigins []string
	logger         *slog.Logger
	handler        http.Handler
	wsHub          *wsHub
}

type ServerOption func(*Server)

func WithListQualities(uc ListQualitiesUseCase) ServerOption {
	return func(s *Server) { s.listQualities = uc }
}

func WithConvertHLS(uc ConvertHLSUseCase) ServerOption {
	return func(s *Server) { s.convertHLS = uc }
}

func WithListVideos(uc ListVideosUseCase) ServerOption {
	return func(s *Server) { s.listVideos = uc }
}

func WithGetVideo(uc GetVideoUseCase) ServerOption {
	return func(s *Server) { s.getVideo = uc }
}

func WithDeleteVideo(uc DeleteVideoUseCase) ServerOption {
	return func(s *Server) { s.deleteVideo = uc }
}

func WithWatchHistory(save SaveWatchPositionUseCase, get GetWatchPositionUseCase, list ListWatchHistoryUseCase) ServerOption {
	return func(s *Server) {
		s.savePosition = save
		s.getPosition = get
		s.listHistory = list
	}
}

func WithViewCounter(views ViewCounter) ServerOption {
	return func(s *Server) { s.views = views }
}

// WithTranscodeMode sets the default obtain mode for stream requests that do
// not pass ?mode= explicitly.
func WithTranscodeMode(mode transcode.Mode) ServerOption {
	return func(s *Server) { s.transcodeMode = mode }
}

func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		s.rateLimitRPS = rps
		s.rateLimitBurst = burst
	}
}

// WithAllowedOrigins configures the CORS allowed origins whitelist.
// When empty (default), any origin is permitted (development mode).
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) { s.allowedOrigins = origins }
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

func NewServer(stream StreamVideoUseCase, opts ...ServerOption) *Server {
	s := &Server{
		streamVideo:    stream,
		transcodeMode:  transcode.ModeBackground,
		rateLimitRPS:   100,
		rateLimitBurst: 200,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.wsHub = newWSHub(s.logger)
	go s.wsHub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/videos", s.handleVideos)
	mux.HandleFunc("/videos/", s.handleVideoByID)
	mux.HandleFunc("/watch-history", s.handleWatchHistory)
	mux.HandleFunc("/watch-history/", s.handleWatchHistoryByID)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/ws", s.handleWS)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "vod-server",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/healthz"
		}),
	)
	s.handler = recoveryMiddleware(s.logger, rateLimitMiddleware(s.rateLimitRPS, s.rateLimitBurst, metricsMiddleware(corsMiddleware(s.allowedOrigins, traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.wsHub == nil {
		http.Error(w, "websocket not available", http.StatusServiceUnavailable)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.wsHub.register <- client
	go client.writePump()
	go client.readPump()
}

// BroadcastConversionProgress pushes an HLS job snapshot to all connected
// WebSocket clients. Wired as the pipeline's progress callback.
func (s *Server) BroadcastConversionProgress(progress domain.ConversionProgress) {
	if s.wsHub != nil {
		s.wsHub.Broadcast("hls_progress", progress)
	}
}

// BroadcastTranscodeComplete announces a finished on-demand encode. Wired as
// the coordinator's completion callback. The payload carries only the asset
// and quality; filesystem paths are not exposed to clients.
func (s *Server) BroadcastTranscodeComplete(key domain.QualityKey) {
	if s.wsHub == nil {
		return
	}
	s.wsHub.Broadcast("transcode_complete", map[string]string{
		"videoId": string(key.VideoID),
		"quality": string(key.Quality),
	})
}

// splitVideoPath splits "/videos/{id}/..." into the id and the remaining
// segments.
func splitVideoPath(path string) (string, []string) {
	trimmed := strings.Trim(strings.TrimPrefix(path, "/videos/"), "/")
	if trimmed == "" {
		return "", nil
	}
	parts := strings.Split(trimmed, "/")
	return parts[0], parts[1:]
}

// Close shuts down the WebSocket hub, disconnecting all clients.
func (s *Server) Close() {
	if s.wsHub != nil {
		s.wsHub.Close()
	}
}
