package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"

	database "github.com/FACorreiaa/go-todo-auth/app/db"
	appMiddleware "github.com/FACorreiaa/go-todo-auth/app/middleware"
	"github.com/FACorreiaa/go-todo-auth/app/observability/metrics"
	"github.com/FACorreiaa/go-todo-auth/config"
	"github.com/FACorreiaa/go-todo-auth/internal/api/auth"
	"github.com/FACorreiaa/go-todo-auth/internal/api/todo"
	"github.com/FACorreiaa/go-todo-auth/internal/router"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *slog.Logger
	Pool          *pgxpool.Pool
	ConnectionURL string
	Metrics       *metrics.AppMetrics
	AuthService   auth.AuthService
	AuthHandler   *auth.AuthHandler
	TodoHandler   *todo.TodoHandler
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	tokens, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		logger.Error("Invalid JWT configuration", slog.Any("error", err))
		return nil, err
	}

	appMetrics, err := metrics.New(otel.GetMeterProvider().Meter(cfg.Service.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric instruments: %w", err)
	}

	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, tokens, cfg, appMetrics, logger)
	authHandler := auth.NewAuthHandler(authService, logger)

	todoRepo := todo.NewPostgresTodoRepo(pool, logger)
	todoService := todo.NewTodoService(todoRepo, appMetrics, logger)
	todoHandler := todo.NewTodoHandler(todoService, cfg.Service.Name, cfg.Service.Version, logger)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Pool:          pool,
		ConnectionURL: dbConfig.ConnectionURL,
		Metrics:       appMetrics,
		AuthService:   authService,
		AuthHandler:   authHandler,
		TodoHandler:   todoHandler,
	}, nil
}

// RouterConfig wires the handlers and the bearer-token middleware for the router.
func (c *Container) RouterConfig() *router.Config {
	return &router.Config{
		AuthHandler:            c.AuthHandler,
		TodoHandler:            c.TodoHandler,
		AuthenticateMiddleware: appMiddleware.Authenticate(c.Logger, c.AuthService),
		AllowedOrigins:         c.Config.Server.AllowedOrigins,
		AuthRateLimit:          c.Config.Auth.RateLimit,
	}
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations applies pending schema migrations
func (c *Container) RunMigrations() error {
	return database.RunMigrations(c.ConnectionURL, c.Logger)
}
