package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	appMiddleware "github.com/FACorreiaa/go-todo-auth/app/middleware"
	"github.com/FACorreiaa/go-todo-auth/internal/api/auth"
	"github.com/FACorreiaa/go-todo-auth/internal/api/todo"
	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

const goodToken = "good-token"

// stubAuth accepts a single fixed token.
type stubAuth struct{}

func (stubAuth) Register(context.Context, types.RegisterRequest) (*types.AuthResult, error) {
	return &types.AuthResult{}, nil
}

func (stubAuth) Login(context.Context, types.LoginRequest) (*types.AuthResult, error) {
	return nil, types.ErrInvalidCredentials
}

func (stubAuth) GetCurrentUser(_ context.Context, identity *types.Identity) (*types.ProfileView, error) {
	return identity.User.Profile(), nil
}

func (stubAuth) Logout(context.Context, *types.Identity) {}

func (stubAuth) Authenticate(_ context.Context, token string) (*types.Identity, error) {
	if token != goodToken {
		return nil, types.NewError(types.ErrAuthenticationFailed, "Invalid or expired token")
	}
	return &types.Identity{User: &types.User{Username: "alice", Enabled: true}, Token: token}, nil
}

type stubTodos struct{ todo.TodoService }

func (stubTodos) ListAll(context.Context) ([]types.TodoView, error) {
	return []types.TodoView{}, nil
}

func (stubTodos) Stats(context.Context) (*types.TodoStats, error) {
	return &types.TodoStats{}, nil
}

func newTestRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := stubAuth{}
	return SetupRouter(&Config{
		AuthHandler:            auth.NewAuthHandler(svc, logger),
		TodoHandler:            todo.NewTodoHandler(stubTodos{}, "todo-api", "1.0.0", logger),
		AuthenticateMiddleware: appMiddleware.Authenticate(logger, svc),
		AllowedOrigins:         []string{"http://localhost:3000"},
	})
}

func TestRoutes(t *testing.T) {
	h := newTestRouter()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"Ping", http.MethodGet, "/ping", "", http.StatusOK},
		{"HealthIsPublic", http.MethodGet, "/api/todos/health", "", http.StatusOK},
		{"LoginIsPublic", http.MethodPost, "/api/auth/login", "", http.StatusBadRequest},
		{"TodosNeedToken", http.MethodGet, "/api/todos", "", http.StatusUnauthorized},
		{"TodosRejectBadToken", http.MethodGet, "/api/todos", "nope", http.StatusUnauthorized},
		{"TodosWithToken", http.MethodGet, "/api/todos", goodToken, http.StatusOK},
		{"StatsWithToken", http.MethodGet, "/api/todos/stats", goodToken, http.StatusOK},
		{"MeNeedsToken", http.MethodGet, "/api/auth/me", "", http.StatusUnauthorized},
		{"MeWithToken", http.MethodGet, "/api/auth/me", goodToken, http.StatusOK},
		{"LogoutWithToken", http.MethodPost, "/api/auth/logout", goodToken, http.StatusOK},
		{"UnknownRoute", http.MethodGet, "/api/nothing", goodToken, http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/todos", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rr := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestAuthRateLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := stubAuth{}
	h := SetupRouter(&Config{
		AuthHandler:            auth.NewAuthHandler(svc, logger),
		TodoHandler:            todo.NewTodoHandler(stubTodos{}, "todo-api", "1.0.0", logger),
		AuthenticateMiddleware: appMiddleware.Authenticate(logger, svc),
		AuthRateLimit:          2,
	})

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)

	health := httptest.NewRecorder()
	h.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/api/todos/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}
