package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-todo-auth/app/db"
	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

type AuthRepo interface {
	// InTx runs fn with a repository bound to a single transaction.
	InTx(ctx context.Context, opts pgx.TxOptions, fn func(repo AuthRepo) error) error

	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetRoleByName(ctx context.Context, name string) (*types.Role, error)
	CreateUser(ctx context.Context, user *types.User) (*types.User, error)
	AssignRole(ctx context.Context, userID uuid.UUID, roleID int64) error
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
	// GetUserByUsernameOrEmail matches identifier against either column.
	GetUserByUsernameOrEmail(ctx context.Context, identifier string) (*types.User, error)
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool database.Pool
	db     database.DBTX
}

func NewPostgresAuthRepo(pgpool database.Pool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
		db:     pgpool,
	}
}

func (r *PostgresAuthRepo) InTx(ctx context.Context, opts pgx.TxOptions, fn func(repo AuthRepo) error) error {
	if r.pgpool == nil {
		return fn(r)
	}
	return database.WithTx(ctx, r.pgpool, opts, func(tx pgx.Tx) error {
		return fn(&PostgresAuthRepo{logger: r.logger, db: tx})
	})
}

const selectUser = `
        SELECT u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name,
               u.enabled, u.created_at,
               COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}') AS roles
        FROM users u
        LEFT JOIN user_roles ur ON ur.user_id = u.id
        LEFT JOIN roles r ON r.id = ur.role_id`

func (r *PostgresAuthRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "UsernameExists", `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *PostgresAuthRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "EmailExists", `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *PostgresAuthRepo) exists(ctx context.Context, method, query string, arg string) (bool, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, method, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	var exists bool
	if err := r.db.QueryRow(ctx, query, arg).Scan(&exists); err != nil {
		r.logger.ErrorContext(ctx, "Existence check failed", slog.String("method", method), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return false, fmt.Errorf("database error in %s: %w", method, err)
	}
	span.SetStatus(codes.Ok, "Checked")
	return exists, nil
}

func (r *PostgresAuthRepo) GetRoleByName(ctx context.Context, name string) (*types.Role, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetRoleByName", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "roles"),
		attribute.String("role.name", name),
	))
	defer span.End()

	var role types.Role
	err := r.db.QueryRow(ctx, `SELECT id, name FROM roles WHERE name = $1`, name).Scan(&role.ID, &role.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetStatus(codes.Error, "Role not found")
		return nil, types.NewNotFoundError("Role", name)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching role: %w", err)
	}
	span.SetStatus(codes.Ok, "Role found")
	return &role, nil
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, user *types.User) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateUser"), slog.String("username", user.Username))

	query := `
        INSERT INTO users (username, email, password_hash, first_name, last_name, enabled)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`

	created := *user
	err := r.db.QueryRow(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Enabled,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		if constraint, ok := database.UniqueViolation(err); ok {
			l.WarnContext(ctx, "Unique constraint violated on insert", slog.String("constraint", constraint))
			switch constraint {
			case "users_username_key":
				return nil, types.ErrUsernameTaken
			case "users_email_key":
				return nil, types.ErrEmailTaken
			default:
				return nil, fmt.Errorf("%w: %s", types.ErrConflict, constraint)
			}
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	l.InfoContext(ctx, "User created", slog.String("userID", created.ID.String()))
	span.SetStatus(codes.Ok, "User created")
	return &created, nil
}

func (r *PostgresAuthRepo) AssignRole(ctx context.Context, userID uuid.UUID, roleID int64) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "AssignRole", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "user_roles"),
	))
	defer span.End()

	_, err := r.db.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return fmt.Errorf("database error assigning role: %w", err)
	}
	span.SetStatus(codes.Ok, "Role assigned")
	return nil
}

func (r *PostgresAuthRepo) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	return r.getUser(ctx, "GetUserByUsername", selectUser+` WHERE u.username = $1 GROUP BY u.id`, username)
}

// GetUserByUsernameOrEmail prefers a username match. Usernames may contain '@',
// so one user's username can equal another user's email.
func (r *PostgresAuthRepo) GetUserByUsernameOrEmail(ctx context.Context, identifier string) (*types.User, error) {
	return r.getUser(ctx, "GetUserByUsernameOrEmail", selectUser+`
        WHERE u.username = $1 OR u.email = $1
        GROUP BY u.id
        ORDER BY (u.username = $1) DESC
        LIMIT 1`, identifier)
}

func (r *PostgresAuthRepo) getUser(ctx context.Context, method, query, arg string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, method, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	var u types.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Enabled, &u.CreatedAt, &u.Roles,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetStatus(codes.Error, "User not found")
		return nil, types.NewNotFoundError("User", arg)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to fetch user", slog.String("method", method), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	span.SetStatus(codes.Ok, "User found")
	return &u, nil
}
