package todo

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-todo-auth/internal/api"
	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

// TodoHandler handles HTTP requests for todos.
type TodoHandler struct {
	todoService TodoService
	logger      *slog.Logger
	serviceName string
	version     string
}

func NewTodoHandler(todoService TodoService, serviceName, version string, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{
		todoService: todoService,
		logger:      logger,
		serviceName: serviceName,
		version:     version,
	}
}

func (h *TodoHandler) span(r *http.Request, name, route string) (*http.Request, trace.Span) {
	ctx, span := otel.Tracer("TodoHandler").Start(r.Context(), name, trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(route),
	))
	return r.WithContext(ctx), span
}

func (h *TodoHandler) fail(w http.ResponseWriter, r *http.Request, span trace.Span, err error, fallback string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, fallback)
	if api.StatusFromError(err) == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), fallback, slog.Any("error", err))
	}
	api.WriteError(w, r, err, fallback)
}

// ListTodos godoc
// @Summary      List todos
// @Tags         Todos
// @Produce      json
// @Success      200 {array} types.TodoView
// @Failure      401 {object} types.Response "Not authenticated"
// @Security     BearerAuth
// @Router       /todos [get]
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	r, span := h.span(r, "ListTodos", "/api/todos")
	defer span.End()

	todos, err := h.todoService.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, span, err, "Failed to retrieve todos")
		return
	}
	span.SetStatus(codes.Ok, "Todos listed")
	api.WriteJSONResponse(w, r, http.StatusOK, todos)
}

// GetTodo godoc
// @Summary      Get a todo
// @Tags         Todos
// @Produce      json
// @Param        id path int true "Todo ID"
// @Success      200 {object} types.TodoView
// @Failure      400 {object} types.Response "Invalid ID"
// @Failure      404 {object} types.Response "Todo not found"
// @Security     BearerAuth
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	r, span := h.span(r, "GetTodo", "/api/todos/{id}")
	defer span.End()

	id, err := api.ParseIDParam(r, "id")
	if err != nil {
		h.fail(w, r, span, err, "Invalid todo ID")
		return
	}

	todo, err := h.todoService.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, span, err, "Failed to retrieve todo")
		return
	}
	span.SetStatus(codes.Ok, "Todo retrieved")
	api.WriteJSONResponse(w, r, http.StatusOK, todo)
}

// CreateTodo godoc
// @Summary      Create a todo
// @Tags         Todos
// @Accept       json
// @Produce      json
// @Param        body body types.CreateTodoRequest true "Todo"
// @Success      201 {object} types.TodoView
// @Failure      400 {object} types.Response "Validation error"
// @Security     BearerAuth
// @Router       /todos [post]
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	r, span := h.span(r, "CreateTodo", "/api/todos")
	defer span.End()

	var req types.CreateTodoRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		h.fail(w, r, span, err, "Invalid request body")
		return
	}

	todo, err := h.todoService.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, span, err, "Failed to create todo")
		return
	}
	span.SetStatus(codes.Ok, "Todo created")
	api.WriteJSONResponse(w, r, http.StatusCreated, todo)
}

// UpdateTodo godoc
// @Summary      Update a todo
// @Description  Replaces title and description. The completed flag is not changed.
// @Tags         Todos
// @Accept       json
// @Produce      json
// @Param        id path int true "Todo ID"
// @Param        body body types.UpdateTodoRequest true "Todo"
// @Success      200 {object} types.TodoView
// @Failure      404 {object} types.Response "Todo not found"
// @Security     BearerAuth
// @Router       /todos/{id} [put]
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	r, span := h.span(r, "UpdateTodo", "/api/todos/{id}")
	defer span.End()

	id, err := api.ParseIDParam(r, "id")
	if err != nil {
		h.fail(w, r, span, err, "Invalid todo ID")
		return
	}

	var req types.UpdateTodoRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		h.fail(w, r, span, err, "Invalid request body")
		return
	}

	todo, err := h.todoService.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, span, err, "Failed to update todo")
		return
	}
	span.SetStatus(codes.Ok, "Todo updated")
	api.WriteJSONResponse(w, r, http.StatusOK, todo)
}

// ToggleTodo godoc
// @Summary      Toggle completion
// @Tags         Todos
// @Produce      json
// @Param        id path int true "Todo ID"
// @Success      200 {object} types.TodoView
// @Failure      404 {object} types.Response "Todo not found"
// @Security     BearerAuth
// @Router       /todos/{id}/toggle [patch]
func (h *TodoHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	r, span := h.span(r, "ToggleTodo", "/api/todos/{id}/toggle")
	defer span.End()

	id, err := api.ParseIDParam(r, "id")
	if err != nil {
		h.fail(w, r, span, err, "Invalid todo ID")
		return
	}

	todo, err := h.todoService.ToggleStatus(r.Context(), id)
	if err != nil {
		h.fail(w, r, span, err, "Failed to toggle todo")
		return
	}
	span.SetStatus(codes.Ok, "Todo toggled")
	api.WriteJSONResponse(w, r, http.StatusOK, todo)
}

// DeleteTodo godoc
// @Summary      Delete a todo
// @Tags         Todos
// @Param        id path int true "Todo ID"
// @Success      204
// @Failure      404 {object} types.Response "Todo not found"
// @Security     BearerAuth
// @Router       /todos/{id} [delete]
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	r, span := h.span(r, "DeleteTodo", "/api/todos/{id}")
	defer span.End()

	id, err := api.ParseIDParam(r, "id")
	if err != nil {
		h.fail(w, r, span, err, "Invalid todo ID")
		return
	}

	if err := h.todoService.Delete(r.Context(), id); err != nil {
		h.fail(w, r, span, err, "Failed to delete todo")
		return
	}
	span.SetStatus(codes.Ok, "Todo deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// SearchTodos godoc
// @Summary      Search todos
// @Tags         Todos
// @Produce      json
// @Param        keyword query string true "Text to look for in title or description"
// @Success      200 {array} types.TodoView
// @Failure      400 {object} types.Response "Missing keyword"
// @Security     BearerAuth
// @Router       /todos/search [get]
func (h *TodoHandler) SearchTodos(w http.ResponseWriter, r *http.Request) {
	r, span := h.span(r, "SearchTodos", "/api/todos/search")
	defer span.End()

	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		h.fail(w, r, span, types.NewError(types.ErrValidation, "keyword is required"), "Invalid search")
		return
	}

	todos, err := h.todoService.Search(r.Context(), keyword)
	if err != nil {
		h.fail(w, r, span, err, "Failed to search todos")
		return
	}
	span.SetStatus(codes.Ok, "Todos searched")
	api.WriteJSONResponse(w, r, http.StatusOK, todos)
}

// GetStats godoc
// @Summary      Todo statistics
// @Tags         Todos
// @Produce      json
// @Success      200 {object} types.TodoStats
// @Security     BearerAuth
// @Router       /todos/stats [get]
func (h *TodoHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	r, span := h.span(r, "GetStats", "/api/todos/stats")
	defer span.End()

	stats, err := h.todoService.Stats(r.Context())
	if err != nil {
		h.fail(w, r, span, err, "Failed to compute statistics")
		return
	}
	span.SetStatus(codes.Ok, "Stats computed")
	api.WriteJSONResponse(w, r, http.StatusOK, stats)
}

// Health godoc
// @Summary      Liveness probe
// @Tags         Todos
// @Produce      json
// @Success      200 {object} types.HealthStatus
// @Router       /todos/health [get]
func (h *TodoHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, types.HealthStatus{
		Status:    "UP",
		Service:   h.serviceName,
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	})
}
