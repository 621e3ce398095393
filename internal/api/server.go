package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/mockview/internal/feedback"
	"github.com/MikeSquared-Agency/mockview/internal/store"
)

// FeedbackService generates and reads interview feedback.
type FeedbackService interface {
	Submit(ctx context.Context, req feedback.Request) (string, error)
	Get(ctx context.Context, interviewID string) (*feedback.Feedback, error)
}

// Repository serves the read side of interviews and per-user feedback.
type Repository interface {
	GetInterviewByID(ctx context.Context, id string) (*store.Interview, error)
	GetInterviewsByUserID(ctx context.Context, userID string) ([]store.Interview, error)
	GetLatestInterviews(ctx context.Context, excludeUserID string, limit int) ([]store.Interview, error)
	ListFeedbackByUser(ctx context.Context, userID string) ([]feedback.Feedback, error)
}

type Deps struct {
	Feedback FeedbackService
	Repo     Repository
	Auth     *Authenticator
	// Status adds fields to GET /api/v1/status. Optional.
	Status func() map[string]any
	Logger *slog.Logger
}

type Server struct {
	router   *chi.Mux
	http     *http.Server
	feedback FeedbackService
	repo     Repository
	auth     *Authenticator
	statusFn func() map[string]any
	logger   *slog.Logger
}

func NewServer(port int, deps Deps) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	auth := deps.Auth
	if auth == nil {
		auth = NewAuthenticator("", "", "")
	}

	s := &Server{
		router:   router,
		feedback: deps.Feedback,
		repo:     deps.Repo,
		auth:     auth,
		statusFn: deps.Status,
		logger:   deps.Logger,
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Get("/feedback", s.feedbackPing)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)
			r.Post("/feedback", s.submitFeedback)
			r.Get("/interviews/latest", s.latestInterviews)
			r.Get("/interviews/{id}", s.getInterview)
			r.Get("/interviews/{id}/feedback", s.getFeedback)
			r.Get("/users/{userId}/interviews", s.userInterviews)
			r.Get("/users/{userId}/feedback", s.userFeedback)
		})
	})

	return s
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"service": "mockview",
		"auth":    s.auth.Enabled(),
	}
	if s.statusFn != nil {
		for k, v := range s.statusFn() {
			body[k] = v
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
