package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldops/fieldops/internal/auth"
	"github.com/fieldops/fieldops/internal/domain"
	"github.com/fieldops/fieldops/internal/relay"
	"github.com/fieldops/fieldops/internal/store"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	repo    store.Repository
	guard   *auth.Guard
	relay   *relay.Relay
	handler *Handler
	router  *chi.Mux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})

	guard := auth.NewGuard("test-secret", time.Hour)
	rly := relay.New(repo, relay.NewHub())
	handler := NewHandler(repo, guard, rly, false)

	router := chi.NewRouter()
	handler.RegisterRoutes(router, guard, NewWSHandler(handler, "", true))

	return &testEnv{repo: repo, guard: guard, relay: rly, handler: handler, router: router}
}

// createUser registers a user with the given password and roles and
// returns it with a valid session token.
func (env *testEnv) createUser(t *testing.T, identifiant, password string, roles ...string) (*domain.User, string) {
	t.Helper()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	user := &domain.User{
		Identifiant:  identifiant,
		Nom:          "Martin",
		Prenom:       "Luc",
		Email:        identifiant + "@example.com",
		PasswordHash: string(hash),
	}
	if err := env.repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	for _, name := range roles {
		role := env.findOrCreateRole(t, name)
		if err := env.repo.AssignRole(ctx, user.ID, role.ID); err != nil {
			t.Fatalf("AssignRole failed: %v", err)
		}
	}
	user.Roles = roles

	token, err := env.guard.Issue(user, roles)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return user, token
}

func (env *testEnv) findOrCreateRole(t *testing.T, name string) *domain.Role {
	t.Helper()
	roles, err := env.repo.ListRoles(context.Background())
	if err != nil {
		t.Fatalf("ListRoles failed: %v", err)
	}
	for _, r := range roles {
		if r.Nom == name {
			return r
		}
	}
	role := &domain.Role{Nom: name}
	if err := env.repo.CreateRole(context.Background(), role); err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}
	return role
}

func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, "bad input")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["error"] != "bad input" {
		t.Errorf("Expected error message, got %v", got)
	}
}
