package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gurukul-ai/backend/internal/model/user"
	authService "github.com/gurukul-ai/backend/internal/service/auth"
	"github.com/gurukul-ai/backend/internal/store"
)

func newAuthService(t *testing.T) *authService.Service {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "mw.db"))
	if err != nil {
		t.Fatalf("NewSQLite err: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return authService.NewService(repo, "test-secret")
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	svc := newAuthService(t)
	handler := RequireAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	svc := newAuthService(t)
	handler := RequireAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthInjectsIdentity(t *testing.T) {
	svc := newAuthService(t)

	u, token, err := svc.Register(context.Background(), authService.RegisterInput{
		Name: "Asha", Email: "asha@example.com", Password: "pw123456", Role: user.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}

	var got Identity
	handler := RequireAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.UserID != u.ID || got.Role != "student" {
		t.Fatalf("unexpected identity: %+v", got)
	}
}
