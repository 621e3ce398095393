package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/mockview/internal/feedback"
)

const maxRequestBytes = 1 << 20

type submitResponse struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId"`
}

// submitFeedback handles POST /api/v1/feedback
func (s *Server) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedback.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if !canActFor(r, strings.TrimSpace(req.UserID)) {
		writeError(w, http.StatusForbidden, "cannot submit feedback for another user")
		return
	}
	if !s.ownsInterview(w, r, strings.TrimSpace(req.InterviewID)) {
		return
	}

	id, err := s.feedback.Submit(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Success: true, FeedbackID: id})
}

// ownsInterview checks that a user principal submits only for its own
// interview. Service callers, unauthenticated requests and blank ids pass;
// Submit rejects the latter. It writes the error response when it fails.
func (s *Server) ownsInterview(w http.ResponseWriter, r *http.Request, interviewID string) bool {
	p, ok := PrincipalFrom(r.Context())
	if !ok || p.Service || interviewID == "" {
		return true
	}
	iv, err := s.repo.GetInterviewByID(r.Context(), interviewID)
	if err != nil {
		s.logger.Error("get interview failed", "interview_id", interviewID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load interview")
		return false
	}
	if iv == nil {
		writeError(w, http.StatusNotFound, "interview not found")
		return false
	}
	if iv.UserID != p.UserID {
		writeError(w, http.StatusForbidden, "interview belongs to another user")
		return false
	}
	return true
}

// feedbackPing handles GET /api/v1/feedback
func (s *Server) feedbackPing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "feedback API is running",
	})
}

// getFeedback handles GET /api/v1/interviews/{id}/feedback
func (s *Server) getFeedback(w http.ResponseWriter, r *http.Request) {
	fb, err := s.feedback.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if fb != nil && !canActFor(r, fb.UserID) {
		writeError(w, http.StatusForbidden, "feedback belongs to another user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": fb})
}

// userFeedback handles GET /api/v1/users/{userId}/feedback
func (s *Server) userFeedback(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !canActFor(r, userID) {
		writeError(w, http.StatusForbidden, "cannot list another user's feedback")
		return
	}
	list, err := s.repo.ListFeedbackByUser(r.Context(), userID)
	if err != nil {
		s.logger.Error("list feedback failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": list})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, feedback.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, feedback.ErrOwnershipConflict):
		return http.StatusConflict
	case errors.Is(err, feedback.ErrGenerationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, feedback.ErrInvalidOutput),
		errors.Is(err, feedback.ErrScoreOutOfBand),
		errors.Is(err, feedback.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
