package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	database "github.com/FACorreiaa/go-todo-auth/app/db"
	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

func newMockRepo(t *testing.T) (*PostgresAuthRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewPostgresAuthRepo(pool, slog.New(slog.NewTextHandler(io.Discard, nil))), pool
}

func TestUsernameExists(t *testing.T) {
	repo, pool := newMockRepo(t)
	pool.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE username = \$1\)`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.UsernameExists(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestEmailExistsStoreError(t *testing.T) {
	repo, pool := newMockRepo(t)
	pool.ExpectQuery(`FROM users WHERE email`).
		WithArgs("alice@example.com").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.EmailExists(context.Background(), "alice@example.com")
	assert.Error(t, err)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestGetRoleByName(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		pool.ExpectQuery(`SELECT id, name FROM roles`).
			WithArgs("ROLE_USER").
			WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "ROLE_USER"))

		role, err := repo.GetRoleByName(context.Background(), "ROLE_USER")
		require.NoError(t, err)
		assert.Equal(t, &types.Role{ID: 1, Name: "ROLE_USER"}, role)
	})

	t.Run("Missing", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		pool.ExpectQuery(`SELECT id, name FROM roles`).
			WithArgs("ROLE_USER").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetRoleByName(context.Background(), "ROLE_USER")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestCreateUserUniqueViolation(t *testing.T) {
	cases := []struct {
		constraint string
		want       error
	}{
		{"users_username_key", types.ErrUsernameTaken},
		{"users_email_key", types.ErrEmailTaken},
		{"users_pkey", types.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			repo, pool := newMockRepo(t)
			pool.ExpectQuery(`INSERT INTO users`).
				WithArgs("alice", "alice@example.com", "hash", "", "", true).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tc.constraint})

			_, err := repo.CreateUser(context.Background(), &types.User{
				Username: "alice", Email: "alice@example.com", PasswordHash: "hash", Enabled: true,
			})
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, types.ErrConflict)
		})
	}
}

func TestGetUserByUsernameOrEmailNotFound(t *testing.T) {
	repo, pool := newMockRepo(t)
	pool.ExpectQuery(`WHERE u.username = \$1 OR u.email = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetUserByUsernameOrEmail(context.Background(), "ghost")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestGetUserByUsernameOrEmailPrefersUsername(t *testing.T) {
	repo, pool := newMockRepo(t)
	userID := uuid.MustParse("d290f1ee-6c54-4b01-90e6-d701748f0851")
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	pool.ExpectQuery(`ORDER BY \(u\.username = \$1\) DESC\s+LIMIT 1`).
		WithArgs("bob@example.com").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "username", "email", "password_hash", "first_name", "last_name", "enabled", "created_at", "roles",
		}).AddRow(userID, "bob@example.com", "carol@example.com", "hash", "", "", true, createdAt, []string{"ROLE_USER"}))

	user, err := repo.GetUserByUsernameOrEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "bob@example.com", user.Username)
	assert.Equal(t, []string{"ROLE_USER"}, user.Roles)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestInTx(t *testing.T) {
	t.Run("CommitsReadOnly", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		pool.ExpectBeginTx(database.ReadOnly)
		pool.ExpectQuery(`FROM users WHERE username`).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		pool.ExpectCommit()

		err := repo.InTx(context.Background(), database.ReadOnly, func(tx AuthRepo) error {
			_, err := tx.UsernameExists(context.Background(), "alice")
			return err
		})
		assert.NoError(t, err)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("RollsBackOnConflict", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		pool.ExpectBeginTx(database.ReadWrite)
		pool.ExpectQuery(`FROM users WHERE username`).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		pool.ExpectRollback()

		err := repo.InTx(context.Background(), database.ReadWrite, func(tx AuthRepo) error {
			taken, err := tx.UsernameExists(context.Background(), "alice")
			if err != nil {
				return err
			}
			if taken {
				return types.ErrUsernameTaken
			}
			return nil
		})
		assert.ErrorIs(t, err, types.ErrUsernameTaken)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}
