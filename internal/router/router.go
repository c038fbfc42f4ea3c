package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/FACorreiaa/go-todo-auth/internal/api/auth"
	"github.com/FACorreiaa/go-todo-auth/internal/api/todo"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler            *auth.AuthHandler
	TodoHandler            *todo.TodoHandler
	AuthenticateMiddleware func(http.Handler) http.Handler
	AllowedOrigins         []string
	// AuthRateLimit is the per-IP budget for register and login per minute.
	AuthRateLimit int
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are applied in main.go
// before mounting this router.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong")) //nolint:errcheck
	})

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Get("/todos/health", cfg.TodoHandler.Health)
		r.Group(func(r chi.Router) {
			if cfg.AuthRateLimit > 0 {
				r.Use(httprate.LimitByIP(cfg.AuthRateLimit, time.Minute))
			}
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
		})

		// Bearer token required
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Get("/auth/me", cfg.AuthHandler.Me)
			r.Post("/auth/logout", cfg.AuthHandler.Logout)

			r.Get("/todos", cfg.TodoHandler.ListTodos)
			r.Post("/todos", cfg.TodoHandler.CreateTodo)
			r.Get("/todos/search", cfg.TodoHandler.SearchTodos)
			r.Get("/todos/stats", cfg.TodoHandler.GetStats)
			r.Get("/todos/{id}", cfg.TodoHandler.GetTodo)
			r.Put("/todos/{id}", cfg.TodoHandler.UpdateTodo)
			r.Patch("/todos/{id}/toggle", cfg.TodoHandler.ToggleTodo)
			r.Delete("/todos/{id}", cfg.TodoHandler.DeleteTodo)
		})
	})

	return r
}
