package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturio/invoice-api/internal/repository"
)

func TestEntityHandler(t *testing.T) {
	t.Run("rejects requests without a resolved user", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		h := NewEntityHandler(repository.NewEntityRepo(db), repository.Items)

		e := newTestEcho()
		req := jsonRequest(http.MethodPost, "/v1/items", `{"name":"Consulting","price":"120.00"}`)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creates a row scoped to the acting user", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		h := NewEntityHandler(repository.NewEntityRepo(db), repository.Items)

		// Payload keys arrive in descriptor column order regardless of
		// JSON key order, and the owner column is appended last.
		mock.ExpectExec(regexp.QuoteMeta(
			"INSERT INTO items (name, price, created_by_user_id) VALUES (?, ?, ?)")).
			WithArgs("Consulting", "120.00", uint64(42)).
			WillReturnResult(sqlmock.NewResult(7, 1))

		e := newTestEcho()
		req := jsonRequest(http.MethodPost, "/v1/items", `{"price":"120.00","name":"Consulting"}`)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("user_id", uint64(42))

		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":7`)
		assert.Contains(t, rec.Body.String(), "Item created successfully")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("hides rows owned by another user behind 404", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		h := NewEntityHandler(repository.NewEntityRepo(db), repository.Items)

		mock.ExpectQuery(regexp.QuoteMeta(
			"SELECT * FROM items WHERE id = ? AND created_by_user_id = ? LIMIT 1")).
			WithArgs(uint64(7), uint64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

		e := newTestEcho()
		req := httptest.NewRequest(http.MethodGet, "/v1/items/7", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("7")
		c.Set("user_id", uint64(99))

		require.NoError(t, h.Get(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Item not found")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("drops the type discriminator from client update payloads", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		h := NewEntityHandler(repository.NewEntityRepo(db), repository.Clients)

		// Flipping type would leave the existing subtype row behind, so the
		// key must never reach the SET clause.
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(
			"SELECT id FROM clients WHERE id = ? AND created_by_user_id = ? LIMIT 1")).
			WithArgs(uint64(9), uint64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
		mock.ExpectExec(regexp.QuoteMeta(
			"UPDATE clients SET phone = ? WHERE id = ? AND created_by_user_id = ?")).
			WithArgs("555-0101", uint64(9), uint64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		e := newTestEcho()
		req := jsonRequest(http.MethodPut, "/v1/clients/9", `{"type":"company","phone":"555-0101"}`)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("9")
		c.Set("user_id", uint64(42))

		require.NoError(t, h.Update(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Client updated successfully")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a hostile order_by without touching the database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		h := NewEntityHandler(repository.NewEntityRepo(db), repository.Items)

		e := newTestEcho()
		req := httptest.NewRequest(http.MethodGet, "/v1/items?order_by=price%3B+DROP+TABLE+items", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("user_id", uint64(42))

		require.NoError(t, h.List(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
