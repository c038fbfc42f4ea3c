package todo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-todo-auth/app/observability/metrics"
	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

// memRepo is an in-memory TodoRepo. InTx runs fn against the same store.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	todos  map[int64]types.Todo
	failOn string
}

func newMemRepo() *memRepo {
	return &memRepo{todos: make(map[int64]types.Todo)}
}

var errStore = errors.New("store unavailable")

func (m *memRepo) InTx(_ context.Context, _ pgx.TxOptions, fn func(repo TodoRepo) error) error {
	return fn(m)
}

func (m *memRepo) fail(op string) error {
	if m.failOn == op {
		return errStore
	}
	return nil
}

func (m *memRepo) FindAll(context.Context) ([]types.Todo, error) {
	if err := m.fail("FindAll"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(types.Todo) bool { return true }), nil
}

func (m *memRepo) FindByID(_ context.Context, id int64) (*types.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.todos[id]
	if !ok {
		return nil, types.NewNotFoundError("Todo", id)
	}
	return &t, nil
}

func (m *memRepo) Search(_ context.Context, keyword string) ([]types.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kw := strings.ToLower(keyword)
	return m.sorted(func(t types.Todo) bool {
		if strings.Contains(strings.ToLower(t.Title), kw) {
			return true
		}
		return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), kw)
	}), nil
}

func (m *memRepo) Stats(context.Context) (*types.TodoStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &types.TodoStats{Total: int64(len(m.todos))}
	for _, t := range m.todos {
		if t.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	return s, nil
}

func (m *memRepo) Create(_ context.Context, title string, description *string) (*types.Todo, error) {
	if err := m.fail("Create"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Now()
	t := types.Todo{ID: m.nextID, Title: title, Description: description, CreatedAt: now, UpdatedAt: now}
	m.todos[t.ID] = t
	return &t, nil
}

func (m *memRepo) Update(_ context.Context, todo *types.Todo) (*types.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.todos[todo.ID]; !ok {
		return nil, types.NewNotFoundError("Todo", todo.ID)
	}
	t := *todo
	t.UpdatedAt = time.Now()
	m.todos[t.ID] = t
	return &t, nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.todos[id]; !ok {
		return types.NewNotFoundError("Todo", id)
	}
	delete(m.todos, id)
	return nil
}

func (m *memRepo) sorted(keep func(types.Todo) bool) []types.Todo {
	out := []types.Todo{}
	for _, t := range m.todos {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func newTestService(repo TodoRepo) *TodoServiceImpl {
	return NewTodoService(repo, metrics.NewNoop(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func strPtr(s string) *string { return &s }

func TestCreateThenGet(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, types.CreateTodoRequest{Title: "Buy milk", Description: strPtr("Two litres")})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.Completed)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "Two litres", *got.Description)
}

func TestCreateAppearsOnceInList(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	before, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, before)

	created, err := svc.Create(ctx, types.CreateTodoRequest{Title: "Write report"})
	require.NoError(t, err)

	after, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, created.ID, after[0].ID)
	assert.Nil(t, after[0].Description)
}

func TestToggleTwiceRestoresStatus(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, types.CreateTodoRequest{Title: "Walk dog"})
	require.NoError(t, err)

	toggled, err := svc.ToggleStatus(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	assert.Equal(t, "Walk dog", toggled.Title)

	toggled, err = svc.ToggleStatus(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
}

func TestUpdateKeepsCompletedFlag(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, types.CreateTodoRequest{Title: "Old", Description: strPtr("old text")})
	require.NoError(t, err)
	_, err = svc.ToggleStatus(ctx, created.ID)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, types.UpdateTodoRequest{Title: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Nil(t, updated.Description)
	assert.True(t, updated.Completed)
}

func TestMissingTodo(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	t.Run("Get", func(t *testing.T) {
		_, err := svc.GetByID(ctx, 42)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Equal(t, "Todo not found with id: 42", err.Error())
	})

	t.Run("UpdateCreatesNothing", func(t *testing.T) {
		_, err := svc.Update(ctx, 42, types.UpdateTodoRequest{Title: "Ghost"})
		assert.ErrorIs(t, err, types.ErrNotFound)

		todos, err := svc.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, todos)
	})

	t.Run("Toggle", func(t *testing.T) {
		_, err := svc.ToggleStatus(ctx, 42)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		assert.ErrorIs(t, svc.Delete(ctx, 42), types.ErrNotFound)
	})
}

func TestDeleteThenGet(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, types.CreateTodoRequest{Title: "Temporary"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), types.ErrNotFound)
}

func TestSearchAndStats(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	milk, err := svc.Create(ctx, types.CreateTodoRequest{Title: "Buy MILK"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, types.CreateTodoRequest{Title: "Groceries", Description: strPtr("milk and eggs")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, types.CreateTodoRequest{Title: "Call mum"})
	require.NoError(t, err)
	_, err = svc.ToggleStatus(ctx, milk.ID)
	require.NoError(t, err)

	found, err := svc.Search(ctx, "milk")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &types.TodoStats{Total: 3, Completed: 1, Pending: 2}, stats)
}

func TestStoreErrorIsWrapped(t *testing.T) {
	repo := newMemRepo()
	repo.failOn = "Create"
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), types.CreateTodoRequest{Title: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errStore)
	assert.NotErrorIs(t, err, types.ErrNotFound)
	assert.Contains(t, err.Error(), "error in Create")
}
