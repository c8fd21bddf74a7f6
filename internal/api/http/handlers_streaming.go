package apihttp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vodstream/internal/domain"
	"vodstream/internal/metrics"
	"vodstream/internal/transcode"
)

const fullStreamChunkBytes = 1 << 20

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if s.streamVideo == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "stream use case not configured")
		return
	}

	quality := domain.Quality(strings.TrimSpace(r.URL.Query().Get("quality")))
	if quality == "" {
		quality = domain.QualityOriginal
	}

	mode := s.transcodeMode
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("mode"))) {
	case "":
	case string(transcode.ModeSync):
		mode = transcode.ModeSync
	case string(transcode.ModeBackground):
		mode = transcode.ModeBackground
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid mode")
		return
	}

	result, err := s.streamVideo.Execute(r.Context(), domain.VideoID(id), quality, mode)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	file, err := os.Open(result.Path)
	if err != nil {
		s.logger.Error("stream open failed",
			slog.String("videoId", id),
			slog.String("path", result.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to open media file")
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to stat media file")
		return
	}
	size := info.Size()

	ext := strings.ToLower(filepath.Ext(result.Path))
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = fallbackContentType(ext)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Disposition", contentDisposition(result.Video.Title, ext))

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		return
	}

	rangeHeader := r.Header.Get("Range")
	if rangeHeader != "" {
		metrics.StreamRequestsTotal.WithLabelValues(string(result.Quality), "range").Inc()
		s.serveRange(w, r, file, size, rangeHeader, id)
		return
	}

	// A full-file request marks a playback start; range requests are seeks
	// and retries within the same playback.
	metrics.StreamRequestsTotal.WithLabelValues(string(result.Quality), "full").Inc()
	if s.views != nil {
		if err := s.views.IncrementViewCount(r.Context(), result.Video.ID); err != nil {
			s.logger.Debug("view count increment failed",
				slog.String("videoId", id),
				slog.String("error", err.Error()),
			)
		}
	}

	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)
	buf := make([]byte, fullStreamChunkBytes)
	if _, err := io.CopyBuffer(w, file, buf); err != nil {
		s.logger.Debug("stream copy interrupted",
			slog.String("videoId", id),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Server) serveRange(w http.ResponseWriter, r *http.Request, file *os.File, size int64, rangeHeader, id string) {
	start, end, err := parseByteRange(rangeHeader, size)
	if errors.Is(err, errRangeNotSatisfiable) {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid range")
		return
	}

	if _, err := file.Seek(start, io.SeekStart); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to seek media file")
		return
	}
	length := end - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)
	if _, err := io.CopyN(w, file, length); err != nil {
		s.logger.Debug("stream range copy interrupted",
			slog.String("videoId", id),
			slog.String("range", rangeHeader),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Server) handleQualities(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if s.listQualities == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "qualities use case not configured")
		return
	}

	result, err := s.listQualities.Execute(r.Context(), domain.VideoID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	available := make([]domain.Quality, 0, len(result.Qualities))
	for _, q := range result.Qualities {
		if q.Available {
			available = append(available, q.Quality)
		}
	}
	writeJSON(w, http.StatusOK, available)
}
