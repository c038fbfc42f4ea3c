package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-todo-auth/app/db"
	"github.com/FACorreiaa/go-todo-auth/app/observability/metrics"
	"github.com/FACorreiaa/go-todo-auth/config"
	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

// AccessTokenExpiresInMillis is reported to clients as expiresInMillis.
const AccessTokenExpiresInMillis int64 = 900_000

const defaultRoleName = "ROLE_USER"

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResult, error)
	Login(ctx context.Context, req types.LoginRequest) (*types.AuthResult, error)
	// GetCurrentUser fails with types.ErrNotAuthenticated when identity is nil.
	GetCurrentUser(ctx context.Context, identity *types.Identity) (*types.ProfileView, error)
	// Logout is stateless. Issued tokens stay valid until they expire.
	Logout(ctx context.Context, identity *types.Identity)
	// Authenticate resolves a bearer token into the identity of an enabled user.
	Authenticate(ctx context.Context, token string) (*types.Identity, error)
}

type AuthServiceImpl struct {
	logger      *slog.Logger
	repo        AuthRepo
	tokens      *TokenManager
	jwt         config.JWTConfig
	defaultRole string
	metrics     *metrics.AppMetrics
}

func NewAuthService(repo AuthRepo, tokens *TokenManager, cfg *config.Config, m *metrics.AppMetrics, logger *slog.Logger) *AuthServiceImpl {
	role := cfg.Auth.DefaultRole
	if role == "" {
		role = defaultRoleName
	}
	return &AuthServiceImpl{
		logger:      logger,
		repo:        repo,
		tokens:      tokens,
		jwt:         cfg.JWT,
		defaultRole: role,
		metrics:     m,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResult, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("username", req.Username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"), slog.String("username", req.Username))
	start := time.Now()
	result, err := s.register(ctx, req)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "Registration failed")
		l.WarnContext(ctx, "Registration failed", slog.Any("error", err))
	} else {
		span.SetStatus(codes.Ok, "User registered")
		l.InfoContext(ctx, "User registered", slog.String("userID", result.Profile.ID.String()))
	}
	s.metrics.RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	s.metrics.RegisterDurationSeconds.Record(ctx, time.Since(start).Seconds())
	return result, err
}

func (s *AuthServiceImpl) register(ctx context.Context, req types.RegisterRequest) (*types.AuthResult, error) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var user *types.User
	err = s.repo.InTx(ctx, database.ReadWrite, func(repo AuthRepo) error {
		taken, err := repo.UsernameExists(ctx, req.Username)
		if err != nil {
			return err
		}
		if taken {
			return types.ErrUsernameTaken
		}

		taken, err = repo.EmailExists(ctx, req.Email)
		if err != nil {
			return err
		}
		if taken {
			return types.ErrEmailTaken
		}

		role, err := repo.GetRoleByName(ctx, s.defaultRole)
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("%w: default role %q not found", types.ErrConfiguration, s.defaultRole)
		}
		if err != nil {
			return err
		}

		created, err := repo.CreateUser(ctx, &types.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Enabled:      true,
		})
		if err != nil {
			return err
		}

		if err := repo.AssignRole(ctx, created.ID, role.ID); err != nil {
			return err
		}
		created.Roles = []string{role.Name}
		user = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error registering user: %w", err)
	}

	return s.issueTokens(user)
}

func (s *AuthServiceImpl) Login(ctx context.Context, req types.LoginRequest) (*types.AuthResult, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"))
	s.metrics.LoginRequestsTotal.Add(ctx, 1)

	fail := func(err error, reason string) (*types.AuthResult, error) {
		s.metrics.LoginFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Login failed")
		l.WarnContext(ctx, "Login failed", slog.String("reason", reason))
		return nil, err
	}

	var user *types.User
	err := s.repo.InTx(ctx, database.ReadOnly, func(repo AuthRepo) error {
		var err error
		user, err = repo.GetUserByUsernameOrEmail(ctx, req.UsernameOrEmail)
		return err
	})
	if errors.Is(err, types.ErrNotFound) {
		burnPasswordCheck(req.Password)
		return fail(types.ErrInvalidCredentials, "unknown_user")
	}
	if err != nil {
		return fail(fmt.Errorf("error loading user: %w", err), "store_error")
	}

	if !VerifyPassword(req.Password, user.PasswordHash) {
		return fail(types.ErrInvalidCredentials, "bad_password")
	}
	if !user.Enabled {
		return fail(types.ErrInvalidCredentials, "disabled")
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return fail(err, "token_error")
	}

	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "Logged in")
	return result, nil
}

func (s *AuthServiceImpl) GetCurrentUser(ctx context.Context, identity *types.Identity) (*types.ProfileView, error) {
	_, span := otel.Tracer("AuthService").Start(ctx, "GetCurrentUser")
	defer span.End()

	if identity == nil || identity.User == nil {
		span.SetStatus(codes.Error, "No identity")
		return nil, types.ErrNotAuthenticated
	}
	span.SetStatus(codes.Ok, "Profile resolved")
	return identity.User.Profile(), nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, identity *types.Identity) {
	s.metrics.LogoutRequestsTotal.Add(ctx, 1)
	if identity != nil && identity.User != nil {
		s.logger.InfoContext(ctx, "User logged out", slog.String("username", identity.User.Username))
	}
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*types.Identity, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Authenticate")
	defer span.End()

	claims, err := s.tokens.ParseClaims(token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid token")
		return nil, err
	}

	var user *types.User
	err = s.repo.InTx(ctx, database.ReadOnly, func(repo AuthRepo) error {
		var err error
		user, err = repo.GetUserByUsername(ctx, claims.Subject)
		return err
	})
	if errors.Is(err, types.ErrNotFound) {
		span.SetStatus(codes.Error, "Unknown subject")
		return nil, fmt.Errorf("%w: user %q no longer exists", types.ErrAuthenticationFailed, claims.Subject)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "User lookup failed")
		return nil, fmt.Errorf("error loading user for token: %w", err)
	}

	valid, err := s.tokens.IsValid(token, user.Username)
	if err != nil {
		return nil, err
	}
	if !valid || !user.Enabled {
		span.SetStatus(codes.Error, "Token rejected")
		return nil, fmt.Errorf("%w: token not valid for user", types.ErrAuthenticationFailed)
	}

	span.SetStatus(codes.Ok, "Authenticated")
	return &types.Identity{User: user, Token: token}, nil
}

func (s *AuthServiceImpl) issueTokens(user *types.User) (*types.AuthResult, error) {
	access, err := s.tokens.IssueToken(user, user.Roles, s.jwt.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}
	refresh, err := s.tokens.IssueToken(user, user.Roles, s.jwt.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("error issuing refresh token: %w", err)
	}
	return &types.AuthResult{
		AccessToken:     access,
		RefreshToken:    refresh,
		TokenType:       types.TokenTypeBearer,
		ExpiresInMillis: AccessTokenExpiresInMillis,
		Profile:         user.Profile(),
	}, nil
}
