package auth

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	appMiddleware "github.com/FACorreiaa/go-todo-auth/app/middleware"
	"github.com/FACorreiaa/go-todo-auth/internal/api"
	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

type AuthHandler struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a user with the default role and returns a token pair.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.RegisterRequest true "Registration details"
// @Success      200 {object} types.AuthResult
// @Failure      400 {object} types.Response "Validation error"
// @Failure      409 {object} types.Response "Username or email already exists"
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Register", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/auth/register"),
	))
	defer span.End()

	var req types.RegisterRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Invalid request body")
		api.WriteError(w, r, err, "Invalid request body")
		return
	}

	result, err := h.authService.Register(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Registration failed")
		api.WriteError(w, r, err, "Failed to register user")
		return
	}

	span.SetStatus(codes.Ok, "User registered")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// Login godoc
// @Summary      Log in
// @Description  Authenticates by username or email and returns a token pair.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.LoginRequest true "Credentials"
// @Success      200 {object} types.AuthResult
// @Failure      400 {object} types.Response "Validation error"
// @Failure      401 {object} types.Response "Invalid credentials"
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Login", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/auth/login"),
	))
	defer span.End()

	var req types.LoginRequest
	if err := api.DecodeAndValidate(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Invalid request body")
		api.WriteError(w, r, err, "Invalid request body")
		return
	}

	result, err := h.authService.Login(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Login failed")
		api.WriteError(w, r, err, "Failed to log in")
		return
	}

	span.SetStatus(codes.Ok, "Logged in")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// Me godoc
// @Summary      Current user
// @Description  Returns the profile of the authenticated user.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} types.ProfileView
// @Failure      401 {object} types.Response "Not authenticated"
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.authService.GetCurrentUser(ctx, appMiddleware.IdentityFromContext(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "Current user lookup failed", slog.Any("error", err))
		api.WriteError(w, r, err, "Failed to load current user")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// Logout godoc
// @Summary      Log out
// @Description  Drops the identity of the current request. Tokens are not revoked.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} types.Response
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.authService.Logout(ctx, appMiddleware.IdentityFromContext(ctx))
	r = r.WithContext(appMiddleware.ClearIdentity(ctx))

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Logout successful",
	})
}
