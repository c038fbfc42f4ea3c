package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-todo-auth/app/db"
	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

var _ TodoRepo = (*PostgresTodoRepo)(nil)

// TodoRepo defines the contract for todo persistence.
type TodoRepo interface {
	// InTx runs fn with a repository bound to a single transaction.
	InTx(ctx context.Context, opts pgx.TxOptions, fn func(repo TodoRepo) error) error

	// FindAll returns todos in primary key order.
	FindAll(ctx context.Context) ([]types.Todo, error)
	FindByID(ctx context.Context, id int64) (*types.Todo, error)
	// Search matches keyword case-insensitively against title and description.
	Search(ctx context.Context, keyword string) ([]types.Todo, error)
	Stats(ctx context.Context) (*types.TodoStats, error)

	Create(ctx context.Context, title string, description *string) (*types.Todo, error)
	// Update writes title, description and completed. Timestamps are left to the database.
	Update(ctx context.Context, todo *types.Todo) (*types.Todo, error)
	Delete(ctx context.Context, id int64) error
}

type PostgresTodoRepo struct {
	logger *slog.Logger
	pgpool database.Pool
	db     database.DBTX
}

func NewPostgresTodoRepo(pgpool database.Pool, logger *slog.Logger) *PostgresTodoRepo {
	return &PostgresTodoRepo{
		logger: logger,
		pgpool: pgpool,
		db:     pgpool,
	}
}

func (r *PostgresTodoRepo) InTx(ctx context.Context, opts pgx.TxOptions, fn func(repo TodoRepo) error) error {
	if r.pgpool == nil {
		return fn(r)
	}
	return database.WithTx(ctx, r.pgpool, opts, func(tx pgx.Tx) error {
		return fn(&PostgresTodoRepo{logger: r.logger, db: tx})
	})
}

const todoColumns = `id, title, description, completed, created_at, updated_at`

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, semconv.DBSystemPostgreSQL, attribute.String("db.sql.table", "todos"))
	return otel.Tracer("TodoRepo").Start(ctx, name, trace.WithAttributes(attrs...))
}

func (r *PostgresTodoRepo) FindAll(ctx context.Context) ([]types.Todo, error) {
	ctx, span := startSpan(ctx, "FindAll")
	defer span.End()

	todos, err := r.query(ctx, `SELECT `+todoColumns+` FROM todos ORDER BY id`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Todos fetched")
	return todos, nil
}

func (r *PostgresTodoRepo) Search(ctx context.Context, keyword string) ([]types.Todo, error) {
	ctx, span := startSpan(ctx, "Search")
	defer span.End()

	pattern := "%" + escapeLike(keyword) + "%"
	todos, err := r.query(ctx, `
        SELECT `+todoColumns+`
        FROM todos
        WHERE title ILIKE $1 OR description ILIKE $1
        ORDER BY id`, pattern)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Todos searched")
	return todos, nil
}

func (r *PostgresTodoRepo) query(ctx context.Context, query string, args ...any) ([]types.Todo, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query todos", slog.Any("error", err))
		return nil, fmt.Errorf("database error fetching todos: %w", err)
	}
	defer rows.Close()

	todos := []types.Todo{}
	for rows.Next() {
		var t types.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("database error scanning todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error reading todos: %w", err)
	}
	return todos, nil
}

func (r *PostgresTodoRepo) FindByID(ctx context.Context, id int64) (*types.Todo, error) {
	ctx, span := startSpan(ctx, "FindByID", attribute.Int64("todo.id", id))
	defer span.End()

	t, err := r.queryOne(ctx, id, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Todo lookup failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Todo found")
	return t, nil
}

func (r *PostgresTodoRepo) Create(ctx context.Context, title string, description *string) (*types.Todo, error) {
	ctx, span := startSpan(ctx, "Create")
	defer span.End()

	var t types.Todo
	err := r.db.QueryRow(ctx, `
        INSERT INTO todos (title, description)
        VALUES ($1, $2)
        RETURNING `+todoColumns, title, description,
	).Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert todo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return nil, fmt.Errorf("database error creating todo: %w", err)
	}

	span.SetAttributes(attribute.Int64("todo.id", t.ID))
	span.SetStatus(codes.Ok, "Todo created")
	return &t, nil
}

func (r *PostgresTodoRepo) Update(ctx context.Context, todo *types.Todo) (*types.Todo, error) {
	ctx, span := startSpan(ctx, "Update", attribute.Int64("todo.id", todo.ID))
	defer span.End()

	t, err := r.queryOne(ctx, todo.ID, `
        UPDATE todos
        SET title = $1, description = $2, completed = $3
        WHERE id = $4
        RETURNING `+todoColumns, todo.Title, todo.Description, todo.Completed, todo.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Update failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Todo updated")
	return t, nil
}

func (r *PostgresTodoRepo) Delete(ctx context.Context, id int64) error {
	ctx, span := startSpan(ctx, "Delete", attribute.Int64("todo.id", id))
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete todo", slog.Int64("id", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Delete failed")
		return fmt.Errorf("database error deleting todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Todo not found")
		return types.NewNotFoundError("Todo", id)
	}
	span.SetStatus(codes.Ok, "Todo deleted")
	return nil
}

func (r *PostgresTodoRepo) Stats(ctx context.Context) (*types.TodoStats, error) {
	ctx, span := startSpan(ctx, "Stats")
	defer span.End()

	var s types.TodoStats
	err := r.db.QueryRow(ctx, `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE completed)
        FROM todos`).Scan(&s.Total, &s.Completed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error counting todos: %w", err)
	}
	s.Pending = s.Total - s.Completed
	span.SetStatus(codes.Ok, "Stats computed")
	return &s, nil
}

func (r *PostgresTodoRepo) queryOne(ctx context.Context, id int64, query string, args ...any) (*types.Todo, error) {
	var t types.Todo
	err := r.db.QueryRow(ctx, query, args...).
		Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.NewNotFoundError("Todo", id)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to fetch todo", slog.Int64("id", id), slog.Any("error", err))
		return nil, fmt.Errorf("database error fetching todo %d: %w", id, err)
	}
	return &t, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
