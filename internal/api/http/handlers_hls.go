package apihttp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"vodstream/internal/domain"
	"vodstream/internal/hls"
)

type convertHLSRequest struct {
	Qualities []domain.Quality `json:"qualities,omitempty"`
}

type convertHLSResponse struct {
	Started  bool                      `json:"started"`
	Progress domain.ConversionProgress `json:"progress"`
}

// handleHLS dispatches /videos/{id}/hls and everything under it.
func (s *Server) handleHLS(w http.ResponseWriter, r *http.Request, id string, tail []string) {
	if s.convertHLS == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "hls not configured")
		return
	}

	switch {
	case len(tail) == 0:
		s.handleHLSConvert(w, r, id)
	case len(tail) == 1 && tail[0] == "progress":
		s.handleHLSProgress(w, r, id)
	case len(tail) == 1 && tail[0] == "master.m3u8":
		s.serveHLSFile(w, r, id, func(originalPath string) string {
			return hls.MasterPath(originalPath)
		})
	case len(tail) == 2 && tail[1] == "playlist.m3u8":
		quality, err := domain.ParseQuality(tail[0])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid quality")
			return
		}
		s.serveHLSFile(w, r, id, func(originalPath string) string {
			return hls.PlaylistPath(originalPath, quality)
		})
	case len(tail) == 2 && isSegmentName(tail[1]):
		quality, err := domain.ParseQuality(tail[0])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid quality")
			return
		}
		segment := tail[1]
		s.serveHLSFile(w, r, id, func(originalPath string) string {
			return filepath.Join(hls.QualityDir(originalPath, quality), segment)
		})
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleHLSConvert(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var req convertHLSRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	progress, started, err := s.convertHLS.Execute(r.Context(), domain.VideoID(id), req.Qualities)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusAccepted
	if !started && progress.Status == domain.ConversionCompleted {
		status = http.StatusOK
	}
	writeJSON(w, status, convertHLSResponse{Started: started, Progress: progress})
}

func (s *Server) handleHLSProgress(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	progress, err := s.convertHLS.Progress(r.Context(), domain.VideoID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// serveHLSFile resolves the asset, maps its original path to a file inside
// the HLS tree and serves it from disk.
func (s *Server) serveHLSFile(w http.ResponseWriter, r *http.Request, id string, resolve func(originalPath string) string) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if s.getVideo == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "video lookup not configured")
		return
	}

	record, err := s.getVideo.Execute(r.Context(), domain.VideoID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	path := resolve(record.FilePath)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "not_found", "hls file not found")
		return
	}

	if strings.HasSuffix(path, ".m3u8") {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	} else if strings.HasSuffix(path, ".ts") {
		w.Header().Set("Content-Type", "video/mp2t")
	}
	http.ServeFile(w, r, path)
}

// isSegmentName accepts only the flat segment names the pipeline writes,
// keeping request paths from escaping the HLS tree.
func isSegmentName(name string) bool {
	if !strings.HasPrefix(name, "segment") || !strings.HasSuffix(name, ".ts") {
		return false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, "segment"), ".ts")
	if digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
