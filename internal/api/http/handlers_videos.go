package apihttp

import (
	"net/http"

	"vodstream/internal/domain"
)

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if s.listVideos == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "list use case not configured")
		return
	}

	limit, err := parseOptionalIntQuery(r.URL.Query().Get("limit"), 0)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}
	offset, err := parseOptionalIntQuery(r.URL.Query().Get("offset"), 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid offset")
		return
	}

	videos, err := s.listVideos.Execute(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if videos == nil {
		videos = []domain.VideoRecord{}
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleVideoByID(w http.ResponseWriter, r *http.Request) {
	id, tail := splitVideoPath(r.URL.Path)
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(tail) == 0 {
		switch r.Method {
		case http.MethodGet:
			s.handleGetVideo(w, r, id)
		case http.MethodDelete:
			s.handleDeleteVideo(w, r, id)
		default:
			w.Header().Set("Allow", "GET, DELETE")
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		}
		return
	}

	switch tail[0] {
	case "stream":
		if len(tail) == 1 {
			s.handleStream(w, r, id)
			return
		}
	case "qualities":
		if len(tail) == 1 {
			s.handleQualities(w, r, id)
			return
		}
	case "hls":
		s.handleHLS(w, r, id, tail[1:])
		return
	case "position":
		if len(tail) == 1 {
			s.handleVideoPosition(w, r, id)
			return
		}
	}
	http.NotFound(w, r)
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request, id string) {
	if s.getVideo == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "video lookup not configured")
		return
	}

	record, err := s.getVideo.Execute(r.Context(), domain.VideoID(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request, id string) {
	if s.deleteVideo == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "delete use case not configured")
		return
	}

	deleteOriginal, err := parseBoolQuery(r.URL.Query().Get("deleteFile"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid deleteFile")
		return
	}

	if err := s.deleteVideo.Execute(r.Context(), domain.VideoID(id), deleteOriginal); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
