package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MikeSquared-Agency/mockview/internal/feedback"
	"github.com/MikeSquared-Agency/mockview/internal/llm"
	"github.com/MikeSquared-Agency/mockview/internal/store"
)

type fakeFeedback struct {
	submitted []feedback.Request
	id        string
	err       error
	stored    map[string]*feedback.Feedback
}

func (f *fakeFeedback) Submit(_ context.Context, req feedback.Request) (string, error) {
	f.submitted = append(f.submitted, req)
	return f.id, f.err
}

func (f *fakeFeedback) Get(_ context.Context, interviewID string) (*feedback.Feedback, error) {
	return f.stored[interviewID], nil
}

type fakeRepo struct {
	interviews     map[string]*store.Interview
	latestExclude  string
	latestLimit    int
	listedForUsers []string
}

func (f *fakeRepo) GetInterviewByID(_ context.Context, id string) (*store.Interview, error) {
	return f.interviews[id], nil
}

func (f *fakeRepo) GetInterviewsByUserID(_ context.Context, userID string) ([]store.Interview, error) {
	f.listedForUsers = append(f.listedForUsers, userID)
	return []store.Interview{}, nil
}

func (f *fakeRepo) GetLatestInterviews(_ context.Context, exclude string, limit int) ([]store.Interview, error) {
	f.latestExclude = exclude
	f.latestLimit = limit
	return []store.Interview{}, nil
}

func (f *fakeRepo) ListFeedbackByUser(_ context.Context, userID string) ([]feedback.Feedback, error) {
	f.listedForUsers = append(f.listedForUsers, userID)
	return []feedback.Feedback{}, nil
}

// stubModel returns a fixed in-band result for a two-answer transcript.
type stubModel struct{}

func (stubModel) GenerateObject(context.Context, llm.Request) (json.RawMessage, error) {
	return json.RawMessage(`{"totalScore":30,` +
		`"categoryScores":[{"name":"Communication Skills","score":3,"comment":"clear"}],` +
		`"strengths":["Specific"],"areasForImprovement":["More depth"],"finalAssessment":"Short call."}`), nil
}

// mapStore mirrors the ownership rules of the Postgres store.
type mapStore struct {
	docs map[string]feedback.Feedback
}

func newMapStore() *mapStore {
	return &mapStore{docs: map[string]feedback.Feedback{}}
}

func (m *mapStore) UpsertFeedback(_ context.Context, id string, rec feedback.Feedback) (string, error) {
	if cur, ok := m.docs[id]; ok && (cur.InterviewID != rec.InterviewID || cur.UserID != rec.UserID) {
		return "", feedback.ErrOwnershipConflict
	}
	rec.ID = id
	m.docs[id] = rec
	return id, nil
}

func (m *mapStore) PutFeedbackForInterview(ctx context.Context, rec feedback.Feedback) (string, error) {
	for id, d := range m.docs {
		if d.InterviewID == rec.InterviewID {
			return m.UpsertFeedback(ctx, id, rec)
		}
	}
	return m.UpsertFeedback(ctx, rec.ID, rec)
}

func (m *mapStore) GetFeedbackByInterviewID(_ context.Context, interviewID string) (*feedback.Feedback, error) {
	for _, d := range m.docs {
		if d.InterviewID == interviewID {
			return &d, nil
		}
	}
	return nil, nil
}

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func newTestServer(fb *fakeFeedback, repo *fakeRepo, auth *Authenticator) *Server {
	if fb == nil {
		fb = &fakeFeedback{}
	}
	if repo == nil {
		repo = &fakeRepo{}
	}
	return NewServer(8760, Deps{
		Feedback: fb,
		Repo:     repo,
		Auth:     auth,
		Status:   func() map[string]any { return map[string]any{"active_calls": 2} },
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func signToken(t *testing.T, sub, issuer string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func do(srv *Server, method, path, body, token string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	w := do(srv, "GET", "/health", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if body := decode(t, w); body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	w := do(srv, "GET", "/api/v1/status", "", "")
	body := decode(t, w)
	if body["service"] != "mockview" {
		t.Errorf("expected service mockview, got %v", body["service"])
	}
	if body["active_calls"] != float64(2) {
		t.Errorf("expected active_calls from status hook, got %v", body["active_calls"])
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	w := do(srv, "GET", "/nonexistent", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestFeedbackPing(t *testing.T) {
	srv := newTestServer(nil, nil, NewAuthenticator(testSecret, "", ""))

	w := do(srv, "GET", "/api/v1/feedback", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected ping to bypass auth, got %d", w.Code)
	}
	if body := decode(t, w); body["success"] != true {
		t.Errorf("expected success true, got %v", body)
	}
}

func TestSubmitFeedback_Success(t *testing.T) {
	fb := &fakeFeedback{id: "fb-123"}
	srv := newTestServer(fb, nil, nil)

	w := do(srv, "POST", "/api/v1/feedback",
		`{"interviewId":"int-1","userId":"user-1","transcript":"user: hello there friend"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["success"] != true || body["feedbackId"] != "fb-123" {
		t.Errorf("unexpected body %v", body)
	}
	if len(fb.submitted) != 1 || fb.submitted[0].InterviewID != "int-1" {
		t.Errorf("expected request forwarded, got %+v", fb.submitted)
	}
}

func TestSubmitFeedback_ErrorStatuses(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: interview id", feedback.ErrInvalidRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: schema", feedback.ErrInvalidOutput), http.StatusBadGateway},
		{fmt.Errorf("%w: total 60", feedback.ErrScoreOutOfBand), http.StatusBadGateway},
		{fmt.Errorf("%w: 503", feedback.ErrGeneration), http.StatusBadGateway},
		{fmt.Errorf("%w after 60s", feedback.ErrGenerationTimeout), http.StatusGatewayTimeout},
		{fmt.Errorf("%w: conn refused", feedback.ErrStorage), http.StatusInternalServerError},
		{fmt.Errorf("upsert feedback x: %w", feedback.ErrOwnershipConflict), http.StatusConflict},
	}

	for _, tt := range tests {
		srv := newTestServer(&fakeFeedback{err: tt.err}, nil, nil)
		w := do(srv, "POST", "/api/v1/feedback", `{"interviewId":"i","userId":"u","transcript":"t"}`, "")
		if w.Code != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, w.Code)
		}
		body := decode(t, w)
		if body["success"] != false || body["error"] != tt.err.Error() {
			t.Errorf("%v: unexpected body %v", tt.err, body)
		}
	}
}

func TestSubmitFeedback_MalformedJSON(t *testing.T) {
	fb := &fakeFeedback{}
	srv := newTestServer(fb, nil, nil)

	w := do(srv, "POST", "/api/v1/feedback", `{"interviewId":`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if len(fb.submitted) != 0 {
		t.Error("expected no submission for malformed body")
	}
}

func TestSubmitFeedback_Auth(t *testing.T) {
	auth := NewAuthenticator(testSecret, "https://id.example.com", "service-token")
	body := `{"interviewId":"int-1","userId":"user-1","transcript":"user: hi"}`

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"expired", signToken(t, "user-1", "https://id.example.com", -time.Minute), http.StatusUnauthorized},
		{"wrong issuer", signToken(t, "user-1", "https://evil.example.com", time.Hour), http.StatusUnauthorized},
		{"other user", signToken(t, "user-2", "https://id.example.com", time.Hour), http.StatusForbidden},
		{"same user", signToken(t, "user-1", "https://id.example.com", time.Hour), http.StatusOK},
		{"service token", "service-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{interviews: map[string]*store.Interview{
				"int-1": {ID: "int-1", UserID: "user-1"},
			}}
			srv := newTestServer(&fakeFeedback{id: "fb"}, repo, auth)
			w := do(srv, "POST", "/api/v1/feedback", body, tt.token)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestSubmitFeedback_InterviewOwnership(t *testing.T) {
	auth := NewAuthenticator(testSecret, "", "service-token")
	repo := &fakeRepo{interviews: map[string]*store.Interview{
		"iv-alice":   {ID: "iv-alice", UserID: "alice"},
		"iv-mallory": {ID: "iv-mallory", UserID: "mallory"},
	}}
	mallory := signToken(t, "mallory", "", time.Hour)

	tests := []struct {
		name  string
		body  string
		token string
		want  int
	}{
		{"other user's interview", `{"interviewId":"iv-alice","userId":"mallory","transcript":"user: hi"}`, mallory, http.StatusForbidden},
		{"unknown interview", `{"interviewId":"iv-ghost","userId":"mallory","transcript":"user: hi"}`, mallory, http.StatusNotFound},
		{"own interview", `{"interviewId":"iv-mallory","userId":"mallory","transcript":"user: hi"}`, mallory, http.StatusOK},
		{"service acts for owner", `{"interviewId":"iv-alice","userId":"alice","transcript":"user: hi"}`, "service-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeFeedback{id: "fb"}
			srv := newTestServer(fb, repo, auth)
			w := do(srv, "POST", "/api/v1/feedback", tt.body, tt.token)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if tt.want != http.StatusOK && len(fb.submitted) != 0 {
				t.Errorf("expected rejected request not to reach generation, got %+v", fb.submitted)
			}
		})
	}
}

func TestSubmitFeedback_TakeoverLeavesOwnerReadable(t *testing.T) {
	auth := NewAuthenticator(testSecret, "", "")
	repo := &fakeRepo{interviews: map[string]*store.Interview{
		"iv-alice": {ID: "iv-alice", UserID: "alice"},
	}}
	gen := feedback.New(stubModel{}, newMapStore(), time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := NewServer(8760, Deps{Feedback: gen, Repo: repo, Auth: auth, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	alice := signToken(t, "alice", "", time.Hour)
	mallory := signToken(t, "mallory", "", time.Hour)
	transcript := `user: I built the billing service in Go\nuser: We sharded the database by tenant id`

	w := do(srv, "POST", "/api/v1/feedback", `{"interviewId":"iv-alice","userId":"alice","transcript":"`+transcript+`"}`, alice)
	if w.Code != http.StatusOK {
		t.Fatalf("owner submit: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(srv, "POST", "/api/v1/feedback", `{"interviewId":"iv-alice","userId":"mallory","transcript":"`+transcript+`"}`, mallory)
	if w.Code != http.StatusForbidden {
		t.Errorf("takeover: expected 403, got %d", w.Code)
	}
	w = do(srv, "POST", "/api/v1/feedback",
		`{"interviewId":"iv-alice","userId":"mallory","feedbackId":"`+feedback.DeterministicFeedbackID("iv-alice")+`","transcript":"`+transcript+`"}`, mallory)
	if w.Code != http.StatusForbidden {
		t.Errorf("takeover with feedback id: expected 403, got %d", w.Code)
	}

	w = do(srv, "GET", "/api/v1/interviews/iv-alice/feedback", "", alice)
	if w.Code != http.StatusOK {
		t.Fatalf("owner read: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decode(t, w)["feedback"].(map[string]any)
	if got["userId"] != "alice" {
		t.Errorf("expected feedback still owned by alice, got %v", got["userId"])
	}
}

func TestAuth_RejectsOtherSigningMethods(t *testing.T) {
	auth := NewAuthenticator(testSecret, "", "")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "user-1"}).
		SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := auth.authenticate(token); err == nil {
		t.Error("expected HS512 token to be rejected")
	}
}

func TestGetFeedback(t *testing.T) {
	fb := &fakeFeedback{stored: map[string]*feedback.Feedback{
		"int-1": {ID: "fb-1", InterviewID: "int-1", UserID: "user-1", TotalScore: 20},
	}}
	srv := newTestServer(fb, nil, nil)

	w := do(srv, "GET", "/api/v1/interviews/int-1/feedback", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decode(t, w)["feedback"].(map[string]any)
	if got["id"] != "fb-1" || got["totalScore"] != float64(20) {
		t.Errorf("unexpected feedback %v", got)
	}

	w = do(srv, "GET", "/api/v1/interviews/int-none/feedback", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for missing feedback, got %d", w.Code)
	}
	if v, ok := decode(t, w)["feedback"]; !ok || v != nil {
		t.Errorf("expected feedback null, got %v", v)
	}
}

func TestGetFeedback_OtherUserForbidden(t *testing.T) {
	fb := &fakeFeedback{stored: map[string]*feedback.Feedback{
		"int-1": {ID: "fb-1", InterviewID: "int-1", UserID: "user-1"},
	}}
	srv := newTestServer(fb, nil, NewAuthenticator(testSecret, "", ""))

	w := do(srv, "GET", "/api/v1/interviews/int-1/feedback", "", signToken(t, "user-2", "", time.Hour))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestGetInterview(t *testing.T) {
	repo := &fakeRepo{interviews: map[string]*store.Interview{
		"int-1": {ID: "int-1", UserID: "user-1", Role: "Backend Engineer"},
	}}
	srv := newTestServer(nil, repo, nil)

	w := do(srv, "GET", "/api/v1/interviews/int-1", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decode(t, w); body["role"] != "Backend Engineer" {
		t.Errorf("unexpected interview %v", body)
	}

	w = do(srv, "GET", "/api/v1/interviews/missing", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestLatestInterviews(t *testing.T) {
	t.Run("auth disabled uses query param", func(t *testing.T) {
		repo := &fakeRepo{}
		srv := newTestServer(nil, repo, nil)

		w := do(srv, "GET", "/api/v1/interviews/latest?user_id=user-9&limit=5", "", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if repo.latestExclude != "user-9" || repo.latestLimit != 5 {
			t.Errorf("unexpected args exclude=%q limit=%d", repo.latestExclude, repo.latestLimit)
		}
	})

	t.Run("authenticated user is excluded", func(t *testing.T) {
		repo := &fakeRepo{}
		srv := newTestServer(nil, repo, NewAuthenticator(testSecret, "", ""))

		w := do(srv, "GET", "/api/v1/interviews/latest?user_id=someone-else", "", signToken(t, "user-1", "", time.Hour))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if repo.latestExclude != "user-1" {
			t.Errorf("expected token subject excluded, got %q", repo.latestExclude)
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		srv := newTestServer(nil, &fakeRepo{}, nil)
		w := do(srv, "GET", "/api/v1/interviews/latest?limit=ten", "", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestUserScopedLists(t *testing.T) {
	repo := &fakeRepo{}
	srv := newTestServer(nil, repo, NewAuthenticator(testSecret, "", ""))
	token := signToken(t, "user-1", "", time.Hour)

	for _, path := range []string{"/api/v1/users/user-1/interviews", "/api/v1/users/user-1/feedback"} {
		if w := do(srv, "GET", path, "", token); w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
	for _, path := range []string{"/api/v1/users/user-2/interviews", "/api/v1/users/user-2/feedback"} {
		if w := do(srv, "GET", path, "", token); w.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", path, w.Code)
		}
	}
	if len(repo.listedForUsers) != 2 {
		t.Errorf("expected only own lists to reach the repository, got %v", repo.listedForUsers)
	}
}
