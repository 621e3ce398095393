package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// getInterview handles GET /api/v1/interviews/{id}
func (s *Server) getInterview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	iv, err := s.repo.GetInterviewByID(r.Context(), id)
	if err != nil {
		s.logger.Error("get interview failed", "interview_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load interview")
		return
	}
	if iv == nil {
		writeError(w, http.StatusNotFound, "interview not found")
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

// userInterviews handles GET /api/v1/users/{userId}/interviews
func (s *Server) userInterviews(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !canActFor(r, userID) {
		writeError(w, http.StatusForbidden, "cannot list another user's interviews")
		return
	}
	list, err := s.repo.GetInterviewsByUserID(r.Context(), userID)
	if err != nil {
		s.logger.Error("list interviews failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list interviews")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"interviews": list})
}

// latestInterviews handles GET /api/v1/interviews/latest
func (s *Server) latestInterviews(w http.ResponseWriter, r *http.Request) {
	exclude := r.URL.Query().Get("user_id")
	if p, ok := PrincipalFrom(r.Context()); ok && !p.Service {
		exclude = p.UserID
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = n
	}

	list, err := s.repo.GetLatestInterviews(r.Context(), exclude, limit)
	if err != nil {
		s.logger.Error("latest interviews failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list interviews")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"interviews": list})
}
