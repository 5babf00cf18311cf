package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewUserRepo(db), mock, db
}

func TestUserRepoSync(t *testing.T) {
	t.Run("creates a new user on first sync", func(t *testing.T) {
		repo, mock, db := newMockUserRepo(t)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("clerk_abc", "jane@example.com", "Jane", "Doe", "jane", "member").
			WillReturnResult(sqlmock.NewResult(5, 1))

		u := &User{ClerkUserID: "clerk_abc", Email: "Jane@Example.com", FirstName: "Jane", LastName: "Doe", Username: "jane", Role: "member"}
		created, err := repo.Sync(context.Background(), u)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, uint64(5), u.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("updates the profile when the clerk id already exists", func(t *testing.T) {
		repo, mock, db := newMockUserRepo(t)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("clerk_abc", "jane@example.com", "Jane", "Doe", "jane", "member").
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'clerk_abc' for key 'users.uq_users_clerk'"})
		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email = ?")).
			WithArgs("jane@example.com", "Jane", "Doe", "jane", "member", "clerk_abc").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE clerk_user_id = ?")).
			WithArgs("clerk_abc").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

		u := &User{ClerkUserID: "clerk_abc", Email: "jane@example.com", FirstName: "Jane", LastName: "Doe", Username: "jane", Role: "member"}
		created, err := repo.Sync(context.Background(), u)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, uint64(5), u.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports a conflict when the email belongs to another identity", func(t *testing.T) {
		repo, mock, db := newMockUserRepo(t)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("clerk_new", "jane@example.com", "Jane", "Doe", "jane2", "member").
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'jane@example.com' for key 'users.uq_users_email'"})

		u := &User{ClerkUserID: "clerk_new", Email: "jane@example.com", FirstName: "Jane", LastName: "Doe", Username: "jane2", Role: "member"}
		_, err := repo.Sync(context.Background(), u)
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepoGetByClerkID(t *testing.T) {
	t.Run("unknown identity is not found", func(t *testing.T) {
		repo, mock, db := newMockUserRepo(t)
		defer db.Close()

		mock.ExpectQuery("SELECT id, clerk_user_id").
			WithArgs("clerk_missing").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByClerkID(context.Background(), "clerk_missing")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
