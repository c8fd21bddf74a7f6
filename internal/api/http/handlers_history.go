package apihttp

import (
	"encoding/json"
	"net/http"
	"strings"

	"vodstream/internal/domain"
)

type watchPositionRequest struct {
	Position float64 `json:"position"`
	Duration float64 `json:"duration,omitempty"`
}

func (s *Server) handleWatchHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if s.listHistory == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "watch history not configured")
		return
	}

	limit, err := parseOptionalIntQuery(r.URL.Query().Get("limit"), 0)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}

	items, err := s.listHistory.Execute(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []domain.WatchPosition{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleWatchHistoryByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/watch-history/"), "/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	s.handleVideoPosition(w, r, id)
}

// handleVideoPosition serves the per-video position routes. The legacy
// /watch-history/{id} routes share it.
func (s *Server) handleVideoPosition(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetWatchPosition(w, r, id)
	case http.MethodPut:
		s.handleSaveWatchPosition(w, r, id)
	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func (s *Server) handleGetWatchPosition(w http.ResponseWriter, r *http.Request, id string) {
	if s.getPosition == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "watch history not configured")
		return
	}

	wp, err := s.getPosition.Execute(r.Context(), domain.VideoID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wp)
}

func (s *Server) handleSaveWatchPosition(w http.ResponseWriter, r *http.Request, id string) {
	if s.savePosition == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "watch history not configured")
		return
	}

	var req watchPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := s.savePosition.Execute(r.Context(), domain.WatchPosition{
		VideoID:  domain.VideoID(id),
		Position: req.Position,
		Duration: req.Duration,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
