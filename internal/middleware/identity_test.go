package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturio/invoice-api/internal/repository"
)

const testSecret = "test-secret"

func newMockUserRepo(t *testing.T) (*repository.UserRepo, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return repository.NewUserRepo(db), mock, db
}

func signHS256(t *testing.T, sub string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

// userRow builds the full column set GetByClerkID selects.
func userRow(id uint64, clerkID string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "clerk_user_id", "email", "first_name", "last_name",
		"username", "role", "is_active", "last_login_at", "created_at", "updated_at",
	}).AddRow(id, clerkID, "jane@example.com", "Jane", "Doe", "jane", "member", active, nil, now, now)
}

// invoke runs the middleware around a next handler that records whether it
// ran and what user id it saw.
func invoke(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, bool, any) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var (
		reached bool
		userID  any
	)
	next := func(c echo.Context) error {
		reached = true
		userID = c.Get("user_id")
		return c.NoContent(http.StatusOK)
	}
	_ = mw(next)(c)
	return rec, reached, userID
}

func TestIdentity(t *testing.T) {
	t.Run("valid token resolves the user and injects the id", func(t *testing.T) {
		users, mock, db := newMockUserRepo(t)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, clerk_user_id")).
			WithArgs("clerk_abc").
			WillReturnRows(userRow(5, "clerk_abc", true))

		req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
		req.Header.Set("Authorization", "Bearer "+signHS256(t, "clerk_abc"))

		rec, reached, userID := invoke(Identity(users, testSecret, false), req)
		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, uint64(5), userID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects tokens signed with a non-HMAC algorithm", func(t *testing.T) {
		users, mock, db := newMockUserRepo(t)
		defer db.Close()

		tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "clerk_abc"})
		raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
		req.Header.Set("Authorization", "Bearer "+raw)

		rec, reached, _ := invoke(Identity(users, testSecret, false), req)
		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ignores the dev header when dev mode is off", func(t *testing.T) {
		users, mock, db := newMockUserRepo(t)
		defer db.Close()

		req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
		req.Header.Set(DevUserHeader, "clerk_abc")

		rec, reached, _ := invoke(Identity(users, testSecret, false), req)
		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		// No expectations registered: the user table must not be queried.
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("accepts the dev header when dev mode is on", func(t *testing.T) {
		users, mock, db := newMockUserRepo(t)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, clerk_user_id")).
			WithArgs("clerk_abc").
			WillReturnRows(userRow(5, "clerk_abc", true))

		req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
		req.Header.Set(DevUserHeader, "clerk_abc")

		rec, reached, userID := invoke(Identity(users, testSecret, true), req)
		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, uint64(5), userID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown identity is rejected", func(t *testing.T) {
		users, mock, db := newMockUserRepo(t)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, clerk_user_id")).
			WithArgs("clerk_ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
		req.Header.Set("Authorization", "Bearer "+signHS256(t, "clerk_ghost"))

		rec, reached, _ := invoke(Identity(users, testSecret, false), req)
		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown user")
	})

	t.Run("inactive user is rejected", func(t *testing.T) {
		users, mock, db := newMockUserRepo(t)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, clerk_user_id")).
			WithArgs("clerk_abc").
			WillReturnRows(userRow(5, "clerk_abc", false))

		req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
		req.Header.Set("Authorization", "Bearer "+signHS256(t, "clerk_abc"))

		rec, reached, _ := invoke(Identity(users, testSecret, false), req)
		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "inactive")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWebhookSecret(t *testing.T) {
	t.Run("passes matching secrets and rejects the rest", func(t *testing.T) {
		mw := WebhookSecret("hook-secret")

		req := httptest.NewRequest(http.MethodPost, "/v1/users/sync", nil)
		req.Header.Set("X-Webhook-Secret", "hook-secret")
		rec, reached, _ := invoke(mw, req)
		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)

		req = httptest.NewRequest(http.MethodPost, "/v1/users/sync", nil)
		req.Header.Set("X-Webhook-Secret", "wrong")
		rec, reached, _ = invoke(mw, req)
		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
