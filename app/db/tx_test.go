package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-todo-auth/config"
)

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("CommitsOnSuccess", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBeginTx(ReadWrite)
		mock.ExpectExec("UPDATE todos").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err = WithTx(ctx, mock, ReadWrite, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, "UPDATE todos SET completed = TRUE")
			return err
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollsBackOnError", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		boom := errors.New("boom")
		mock.ExpectBeginTx(ReadOnly)
		mock.ExpectRollback()

		err = WithTx(ctx, mock, ReadOnly, func(tx pgx.Tx) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BeginFails", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBeginTx(ReadWrite).WillReturnError(errors.New("no connection"))

		called := false
		err = WithTx(ctx, mock, ReadWrite, func(tx pgx.Tx) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUniqueViolation(t *testing.T) {
	constraint, ok := UniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}))
	assert.True(t, ok)
	assert.Equal(t, "users_email_key", constraint)

	_, ok = UniqueViolation(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)
	_, ok = UniqueViolation(errors.New("plain"))
	assert.False(t, ok)
}

type fakePinger struct {
	failures int
	calls    int
}

func (p *fakePinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitForDB(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("EventuallyReady", func(t *testing.T) {
		p := &fakePinger{failures: 1}
		assert.True(t, WaitForDB(context.Background(), p, logger))
		assert.Equal(t, 2, p.calls)
	})

	t.Run("GivesUp", func(t *testing.T) {
		p := &fakePinger{failures: 100}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.False(t, WaitForDB(ctx, p, logger))
		assert.Equal(t, 1, p.calls)
	})
}

func TestNewDatabaseConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewDatabaseConfig(&config.Config{}, logger)
	assert.Error(t, err)

	cfg := &config.Config{}
	cfg.Repositories.Postgres.Host = "db"
	cfg.Repositories.Postgres.Port = "5432"
	cfg.Repositories.Postgres.Username = "todo"
	cfg.Repositories.Postgres.Password = "secret"
	cfg.Repositories.Postgres.DB = "todo"

	dbCfg, err := NewDatabaseConfig(cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "postgresql://todo:secret@db:5432/todo?sslmode=disable&timezone=utc", dbCfg.ConnectionURL)
}
