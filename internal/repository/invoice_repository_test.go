package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockInvoiceRepo(t *testing.T) (*InvoiceRepo, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewInvoiceRepo(db), mock, db
}

func TestInvoiceRepoCreate(t *testing.T) {
	t.Run("writes header, customer link and benefit links in one transaction", func(t *testing.T) {
		repo, mock, db := newMockInvoiceRepo(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoices (reference, name, date, created_by_user_id) VALUES (?, ?, ?, ?)")).
			WithArgs(sqlmock.AnyArg(), "Test Invoice", "2023-10-01", uint64(42)).
			WillReturnResult(sqlmock.NewResult(11, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customer_invoice (customer_id, invoice_id) VALUES (?, ?)")).
			WithArgs(uint64(7), uint64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoice_benefit (invoice_id, benefit_id) VALUES (?, ?)")).
			WithArgs(uint64(11), uint64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoice_benefit (invoice_id, benefit_id) VALUES (?, ?)")).
			WithArgs(uint64(11), uint64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		id, err := repo.Create(context.Background(), InvoiceInput{
			Name:       "Test Invoice",
			Date:       "2023-10-01",
			CustomerID: 7,
			BenefitIDs: []uint64{3, 4},
		}, 42)
		require.NoError(t, err)
		assert.Equal(t, uint64(11), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when a link insert fails", func(t *testing.T) {
		repo, mock, db := newMockInvoiceRepo(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoices")).
			WithArgs(sqlmock.AnyArg(), "Test Invoice", "2023-10-01", uint64(42)).
			WillReturnResult(sqlmock.NewResult(11, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customer_invoice")).
			WithArgs(uint64(7), uint64(11)).
			WillReturnError(errors.New("constraint failed"))
		mock.ExpectRollback()

		_, err := repo.Create(context.Background(), InvoiceInput{
			Name:       "Test Invoice",
			Date:       "2023-10-01",
			CustomerID: 7,
			BenefitIDs: []uint64{3},
		}, 42)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInvoiceRepoGetByID(t *testing.T) {
	t.Run("groups joined rows into one nested invoice", func(t *testing.T) {
		repo, mock, db := newMockInvoiceRepo(t)
		defer db.Close()

		cols := []string{
			"i.id", "i.reference", "i.name", "i.date",
			"c.id", "c.name", "c.email", "c.address",
			"b.id", "b.object", "b.unit", "b.price_per_unit",
		}
		rows := sqlmock.NewRows(cols).
			AddRow(11, "ref-11", "Test Invoice", "2023-10-01", 7, "ACME", "acme@example.com", "1 Main St", 3, "Consulting", "hour", "100.50").
			AddRow(11, "ref-11", "Test Invoice", "2023-10-01", 7, "ACME", "acme@example.com", "1 Main St", 4, "Hosting", "month", "49.50")
		mock.ExpectQuery("SELECT i.id, i.reference, i.name, i.date").
			WithArgs(uint64(11)).
			WillReturnRows(rows)

		inv, err := repo.GetByID(context.Background(), 11)
		require.NoError(t, err)
		assert.Equal(t, uint64(11), inv.ID)
		assert.Equal(t, uint64(7), inv.Customer.ID)
		require.Len(t, inv.Benefits, 2)
		assert.Equal(t, uint64(3), inv.Benefits[0].ID)
		assert.Equal(t, uint64(4), inv.Benefits[1].ID)
		assert.True(t, inv.Total.Equal(decimal.RequireFromString("150.00")), "total should be 150.00, got %s", inv.Total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty join result is not found", func(t *testing.T) {
		repo, mock, db := newMockInvoiceRepo(t)
		defer db.Close()

		mock.ExpectQuery("SELECT i.id, i.reference, i.name, i.date").
			WithArgs(uint64(404)).
			WillReturnRows(sqlmock.NewRows([]string{"i.id"}))

		_, err := repo.GetByID(context.Background(), 404)
		assert.ErrorIs(t, err, ErrInvoiceNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInvoiceRepoUpdate(t *testing.T) {
	t.Run("replaces the benefit link set wholesale", func(t *testing.T) {
		repo, mock, db := newMockInvoiceRepo(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE invoices SET name = ?, date = ? WHERE id = ?")).
			WithArgs("Renamed", "2023-11-01", uint64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE customer_invoice SET customer_id = ? WHERE invoice_id = ?")).
			WithArgs(uint64(8), uint64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM invoice_benefit WHERE invoice_id = ?")).
			WithArgs(uint64(11)).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoice_benefit (invoice_id, benefit_id) VALUES (?, ?)")).
			WithArgs(uint64(11), uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoice_benefit (invoice_id, benefit_id) VALUES (?, ?)")).
			WithArgs(uint64(11), uint64(6)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Update(context.Background(), 11, InvoiceInput{
			Name:       "Renamed",
			Date:       "2023-11-01",
			CustomerID: 8,
			BenefitIDs: []uint64{5, 6},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the header update affects no rows", func(t *testing.T) {
		repo, mock, db := newMockInvoiceRepo(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE invoices SET name = ?, date = ? WHERE id = ?")).
			WithArgs("Renamed", "2023-11-01", uint64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Update(context.Background(), 404, InvoiceInput{
			Name:       "Renamed",
			Date:       "2023-11-01",
			CustomerID: 8,
			BenefitIDs: []uint64{5},
		})
		assert.ErrorIs(t, err, ErrInvoiceNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInvoiceRepoDelete(t *testing.T) {
	t.Run("succeeds when child links are already gone", func(t *testing.T) {
		repo, mock, db := newMockInvoiceRepo(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM invoice_benefit WHERE invoice_id = ?")).
			WithArgs(uint64(11)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customer_invoice WHERE invoice_id = ?")).
			WithArgs(uint64(11)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM invoices WHERE id = ?")).
			WithArgs(uint64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Delete(context.Background(), 11)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the header is missing", func(t *testing.T) {
		repo, mock, db := newMockInvoiceRepo(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM invoice_benefit WHERE invoice_id = ?")).
			WithArgs(uint64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customer_invoice WHERE invoice_id = ?")).
			WithArgs(uint64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM invoices WHERE id = ?")).
			WithArgs(uint64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), 404)
		assert.ErrorIs(t, err, ErrInvoiceNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInvoiceRepoOwnerID(t *testing.T) {
	t.Run("resolves the creating user", func(t *testing.T) {
		repo, mock, db := newMockInvoiceRepo(t)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT created_by_user_id FROM invoices WHERE id = ?")).
			WithArgs(uint64(11)).
			WillReturnRows(sqlmock.NewRows([]string{"created_by_user_id"}).AddRow(42))

		owner, err := repo.OwnerID(context.Background(), 11)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), owner)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing invoice is not found", func(t *testing.T) {
		repo, mock, db := newMockInvoiceRepo(t)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT created_by_user_id FROM invoices WHERE id = ?")).
			WithArgs(uint64(404)).
			WillReturnRows(sqlmock.NewRows([]string{"created_by_user_id"}))

		_, err := repo.OwnerID(context.Background(), 404)
		assert.ErrorIs(t, err, ErrInvoiceNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
