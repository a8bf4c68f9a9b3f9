package roadmap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gurukul-ai/backend/internal/middleware"
	tutorModel "github.com/gurukul-ai/backend/internal/model/tutor"
	"github.com/gurukul-ai/backend/internal/model/user"
	"github.com/gurukul-ai/backend/internal/service/ai"
	authService "github.com/gurukul-ai/backend/internal/service/auth"
	roadmapService "github.com/gurukul-ai/backend/internal/service/roadmap"
	tutorService "github.com/gurukul-ai/backend/internal/service/tutor"
	"github.com/gurukul-ai/backend/internal/store"
)

const planResponse = `{
  "subject": "Physics",
  "roadmap": {
    "overview": "A focused two-week sprint through mechanics.",
    "key_topics": [],
    "weekly_study_plans": [],
    "daily_study_plan": [
      {"date": "2027-03-14", "tasks": [
        {"title": "Read kinematics notes", "description": "Chapter 1", "estimated_time": "30m"}
      ]}
    ],
    "learning_strategies": {},
    "progress_tracking": {}
  }
}`

// planGateway serves one canned plan through the single-shot call.
type planGateway struct {
	response string
}

func (g *planGateway) NewConversation(context.Context, string, map[string]any) (ai.Conversation, error) {
	return nil, context.Canceled
}

func (g *planGateway) GenerateOnce(context.Context, string, map[string]any) (string, error) {
	return g.response, nil
}

func newTestRouter(t *testing.T, gateway ai.Gateway) (http.Handler, string, string) {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "roadmaph.db"))
	if err != nil {
		t.Fatalf("NewSQLite err: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	authSvc := authService.NewService(repo, "test-secret")
	u, token, err := authSvc.Register(context.Background(), authService.RegisterInput{
		Name: "Asha", Email: "asha@example.com", Password: "pw123456", Role: user.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}

	if err := repo.CreateTutor(context.Background(), &tutorModel.Tutor{
		ID: "tut1", StudentID: u.ID, Name: "Pixel", Subject: "Physics",
		Pace: tutorModel.PaceMedium, CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("CreateTutor err: %v", err)
	}

	h := New(
		roadmapService.NewService(repo, gateway, zap.NewNop()),
		tutorService.NewService(repo),
	)

	r := chi.NewRouter()
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(authSvc))
		h.RegisterRoutes(protected)
	})
	return r, token, u.ID
}

func doRequest(t *testing.T, router http.Handler, token, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func generateBody() string {
	syllabus := strings.Repeat("Mechanics, kinematics, dynamics, energy and momentum. ", 4)
	payload, _ := json.Marshal(map[string]string{
		"tutorId":      "tut1",
		"deadline":     "2027-06-01",
		"syllabusText": syllabus,
	})
	return string(payload)
}

func TestGenerateReturnsDraft(t *testing.T) {
	router, token, _ := newTestRouter(t, &planGateway{response: planResponse})

	rec := doRequest(t, router, token, http.MethodPost, "/roadmaps/generate", generateBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Read kinematics notes") {
		t.Fatalf("draft missing planned task: %s", rec.Body.String())
	}
}

func TestGenerateValidation(t *testing.T) {
	router, token, _ := newTestRouter(t, &planGateway{response: planResponse})

	rec := doRequest(t, router, token, http.MethodPost, "/roadmaps/generate",
		`{"deadline":"2027-06-01","syllabusText":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing tutorId, got %d", rec.Code)
	}

	rec = doRequest(t, router, token, http.MethodPost, "/roadmaps/generate",
		`{"tutorId":"tut1","deadline":"2020-01-01","syllabusText":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for past deadline, got %d", rec.Code)
	}

	rec = doRequest(t, router, token, http.MethodPost, "/roadmaps/generate",
		`{"tutorId":"tut1","deadline":"2027-06-01","syllabusText":"too short"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short syllabus, got %d", rec.Code)
	}
}

func TestGenerateBadModelOutputIsBadGateway(t *testing.T) {
	router, token, _ := newTestRouter(t, &planGateway{response: "I cannot produce a plan right now."})

	rec := doRequest(t, router, token, http.MethodPost, "/roadmaps/generate", generateBody())
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for unparseable plan, got %d", rec.Code)
	}
}

func TestConfirmThenFetchAndConflict(t *testing.T) {
	router, token, _ := newTestRouter(t, &planGateway{response: planResponse})

	gen := doRequest(t, router, token, http.MethodPost, "/roadmaps/generate", generateBody())
	if gen.Code != http.StatusOK {
		t.Fatalf("generate: expected 200, got %d", gen.Code)
	}

	confirmBody := `{"tutorId":"tut1","roadmap":` + gen.Body.String() + `}`
	rec := doRequest(t, router, token, http.MethodPost, "/roadmaps/confirm", confirmBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("confirm: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var confirmed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &confirmed); err != nil {
		t.Fatalf("decode confirm response: %v", err)
	}

	rec = doRequest(t, router, token, http.MethodGet, "/roadmaps/"+confirmed.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, router, token, http.MethodPost, "/roadmaps/confirm", confirmBody)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second confirm: expected 409, got %d", rec.Code)
	}
}

func TestGetUnknownRoadmap(t *testing.T) {
	router, token, _ := newTestRouter(t, &planGateway{response: planResponse})

	rec := doRequest(t, router, token, http.MethodGet, "/roadmaps/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
