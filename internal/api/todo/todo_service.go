package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-todo-auth/app/db"
	"github.com/FACorreiaa/go-todo-auth/app/observability/metrics"
	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

var _ TodoService = (*TodoServiceImpl)(nil)

// TodoService holds the todo use cases. Writes run in one transaction each,
// reads in a read-only transaction.
type TodoService interface {
	ListAll(ctx context.Context) ([]types.TodoView, error)
	GetByID(ctx context.Context, id int64) (*types.TodoView, error)
	Create(ctx context.Context, req types.CreateTodoRequest) (*types.TodoView, error)
	Update(ctx context.Context, id int64, req types.UpdateTodoRequest) (*types.TodoView, error)
	ToggleStatus(ctx context.Context, id int64) (*types.TodoView, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, keyword string) ([]types.TodoView, error)
	Stats(ctx context.Context) (*types.TodoStats, error)
}

type TodoServiceImpl struct {
	logger  *slog.Logger
	repo    TodoRepo
	metrics *metrics.AppMetrics
}

func NewTodoService(repo TodoRepo, m *metrics.AppMetrics, logger *slog.Logger) *TodoServiceImpl {
	return &TodoServiceImpl{
		logger:  logger,
		repo:    repo,
		metrics: m,
	}
}

// run wraps one use case in a span, a transaction and the operation counter.
func (s *TodoServiceImpl) run(ctx context.Context, op string, opts pgx.TxOptions, fn func(ctx context.Context, repo TodoRepo) error, attrs ...attribute.KeyValue) error {
	ctx, span := otel.Tracer("TodoService").Start(ctx, op, trace.WithAttributes(attrs...))
	defer span.End()

	err := s.repo.InTx(ctx, opts, func(repo TodoRepo) error {
		return fn(ctx, repo)
	})
	s.metrics.RecordTodoOperation(ctx, op, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		if errors.Is(err, types.ErrNotFound) {
			s.logger.InfoContext(ctx, "Todo not found", slog.String("method", op), slog.Any("error", err))
			return err
		}
		s.metrics.DbQueryErrorsTotal.Add(ctx, 1)
		s.logger.ErrorContext(ctx, "Todo operation failed", slog.String("method", op), slog.Any("error", err))
		return fmt.Errorf("error in %s: %w", op, err)
	}
	span.SetStatus(codes.Ok, op+" succeeded")
	return nil
}

func (s *TodoServiceImpl) ListAll(ctx context.Context) ([]types.TodoView, error) {
	var views []types.TodoView
	err := s.run(ctx, "ListAll", database.ReadOnly, func(ctx context.Context, repo TodoRepo) error {
		todos, err := repo.FindAll(ctx)
		views = toViews(todos)
		return err
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *TodoServiceImpl) GetByID(ctx context.Context, id int64) (*types.TodoView, error) {
	var view types.TodoView
	err := s.run(ctx, "GetByID", database.ReadOnly, func(ctx context.Context, repo TodoRepo) error {
		t, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		view = t.View()
		return nil
	}, attribute.Int64("todo.id", id))
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *TodoServiceImpl) Create(ctx context.Context, req types.CreateTodoRequest) (*types.TodoView, error) {
	var view types.TodoView
	err := s.run(ctx, "Create", database.ReadWrite, func(ctx context.Context, repo TodoRepo) error {
		t, err := repo.Create(ctx, req.Title, req.Description)
		if err != nil {
			return err
		}
		view = t.View()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *TodoServiceImpl) Update(ctx context.Context, id int64, req types.UpdateTodoRequest) (*types.TodoView, error) {
	var view types.TodoView
	err := s.run(ctx, "Update", database.ReadWrite, func(ctx context.Context, repo TodoRepo) error {
		t, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		t.Title = req.Title
		t.Description = req.Description

		updated, err := repo.Update(ctx, t)
		if err != nil {
			return err
		}
		view = updated.View()
		return nil
	}, attribute.Int64("todo.id", id))
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *TodoServiceImpl) ToggleStatus(ctx context.Context, id int64) (*types.TodoView, error) {
	var view types.TodoView
	err := s.run(ctx, "ToggleStatus", database.ReadWrite, func(ctx context.Context, repo TodoRepo) error {
		t, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		t.Completed = !t.Completed

		updated, err := repo.Update(ctx, t)
		if err != nil {
			return err
		}
		view = updated.View()
		return nil
	}, attribute.Int64("todo.id", id))
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *TodoServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.run(ctx, "Delete", database.ReadWrite, func(ctx context.Context, repo TodoRepo) error {
		return repo.Delete(ctx, id)
	}, attribute.Int64("todo.id", id))
}

func (s *TodoServiceImpl) Search(ctx context.Context, keyword string) ([]types.TodoView, error) {
	var views []types.TodoView
	err := s.run(ctx, "Search", database.ReadOnly, func(ctx context.Context, repo TodoRepo) error {
		todos, err := repo.Search(ctx, keyword)
		views = toViews(todos)
		return err
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *TodoServiceImpl) Stats(ctx context.Context) (*types.TodoStats, error) {
	var stats *types.TodoStats
	err := s.run(ctx, "Stats", database.ReadOnly, func(ctx context.Context, repo TodoRepo) error {
		var err error
		stats, err = repo.Stats(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func toViews(todos []types.Todo) []types.TodoView {
	views := make([]types.TodoView, 0, len(todos))
	for i := range todos {
		views = append(views, todos[i].View())
	}
	return views
}
