package repository

// This file implements the invoice aggregate: the invoice header plus its
// customer link (customer_invoice) and benefit links (invoice_benefit),
// maintained as one unit of transactional consistency.  The aggregate spans
// three tables, which the single-table generic layer cannot express, so the
// repository drives the pool directly with manual transactions.

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvoiceNotFound is returned when an invoice header cannot be found.
var ErrInvoiceNotFound = errors.New("invoice not found")

// InvoiceInput carries the validated payload for creating or updating an
// invoice.  Validation happens at the handler layer before any transaction
// is opened.
type InvoiceInput struct {
	Name       string
	Date       string
	CustomerID uint64
	BenefitIDs []uint64
}

// InvoiceCustomer is the customer embedded in an assembled invoice.
type InvoiceCustomer struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// InvoiceBenefit is one billable line embedded in an assembled invoice.
type InvoiceBenefit struct {
	ID           uint64          `json:"id"`
	Object       string          `json:"object"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

// Invoice is the nested read shape: header fields plus the linked customer
// and benefits, with a total summed over the benefit prices.
type Invoice struct {
	ID        uint64           `json:"id"`
	Reference string           `json:"reference"`
	Name      string           `json:"name"`
	Date      string           `json:"date"`
	Customer  InvoiceCustomer  `json:"customer"`
	Benefits  []InvoiceBenefit `json:"benefits"`
	Total     decimal.Decimal  `json:"total"`
}

// InvoiceRepo encapsulates all queries touching the invoice aggregate.
type InvoiceRepo struct {
	db *sql.DB
}

// NewInvoiceRepo returns a new InvoiceRepo bound to the given database.
func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

// Create inserts the invoice header, its customer link and one benefit link
// per id, all inside one transaction.  The header is written first so the
// link rows always reference an existing parent.  Benefit links are
// inserted sequentially; the expected cardinality is small.
func (r *InvoiceRepo) Create(ctx context.Context, in InvoiceInput, createdBy uint64) (id uint64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO invoices (reference, name, date, created_by_user_id) VALUES (?, ?, ?, ?)",
		uuid.NewString(), in.Name, in.Date, createdBy)
	if err != nil {
		return 0, err
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	id = uint64(newID)

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO customer_invoice (customer_id, invoice_id) VALUES (?, ?)",
		in.CustomerID, id); err != nil {
		return 0, err
	}
	for _, bid := range in.BenefitIDs {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO invoice_benefit (invoice_id, benefit_id) VALUES (?, ?)",
			id, bid); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// invoiceJoin selects one row per (invoice, benefit) pair; the repository
// groups rows back into nested invoices client-side.
const invoiceJoin = `SELECT i.id, i.reference, i.name, i.date,
       c.id, c.name, c.email, c.address,
       b.id, b.object, b.unit, b.price_per_unit
FROM invoices i
JOIN customer_invoice ci ON ci.invoice_id = i.id
JOIN customers c ON c.id = ci.customer_id
JOIN invoice_benefit ib ON ib.invoice_id = i.id
JOIN benefits b ON b.id = ib.benefit_id`

// List returns every invoice in its nested shape, ordered by invoice id.
// The caller treats an empty result as not found.
func (r *InvoiceRepo) List(ctx context.Context) ([]*Invoice, error) {
	rows, err := r.db.QueryContext(ctx, invoiceJoin+" ORDER BY i.id, b.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return groupInvoiceRows(rows)
}

// GetByID returns one invoice in its nested shape or ErrInvoiceNotFound.
func (r *InvoiceRepo) GetByID(ctx context.Context, id uint64) (*Invoice, error) {
	rows, err := r.db.QueryContext(ctx, invoiceJoin+" WHERE i.id = ? ORDER BY b.id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := groupInvoiceRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrInvoiceNotFound
	}
	return out[0], nil
}

// groupInvoiceRows flattens joined rows into nested invoices, grouping on
// the invoice id and keeping first-seen order.  Each benefit contributes
// one row before grouping.
func groupInvoiceRows(rows *sql.Rows) ([]*Invoice, error) {
	byID := make(map[uint64]*Invoice)
	var out []*Invoice
	for rows.Next() {
		var (
			inv  Invoice
			cust InvoiceCustomer
			ben  InvoiceBenefit
		)
		if err := rows.Scan(
			&inv.ID, &inv.Reference, &inv.Name, &inv.Date,
			&cust.ID, &cust.Name, &cust.Email, &cust.Address,
			&ben.ID, &ben.Object, &ben.Unit, &ben.PricePerUnit,
		); err != nil {
			return nil, err
		}
		cur, ok := byID[inv.ID]
		if !ok {
			inv.Customer = cust
			inv.Total = decimal.Zero
			cur = &inv
			byID[inv.ID] = cur
			out = append(out, cur)
		}
		cur.Benefits = append(cur.Benefits, ben)
		cur.Total = cur.Total.Add(ben.PricePerUnit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the aggregate in one transaction: header first (zero
// affected rows means the invoice does not exist and the whole operation
// rolls back), then the customer link, then the benefit links replaced
// wholesale.  Replace-all rewrites unchanged links but keeps the logic
// independent of the previous link set.
func (r *InvoiceRepo) Update(ctx context.Context, id uint64, in InvoiceInput) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"UPDATE invoices SET name = ?, date = ? WHERE id = ?",
		in.Name, in.Date, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrInvoiceNotFound
		return err
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE customer_invoice SET customer_id = ? WHERE invoice_id = ?",
		in.CustomerID, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM invoice_benefit WHERE invoice_id = ?", id); err != nil {
		return err
	}
	for _, bid := range in.BenefitIDs {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO invoice_benefit (invoice_id, benefit_id) VALUES (?, ?)",
			id, bid); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the aggregate child-first: benefit links, customer link,
// then the header.  Deleting already-absent links is a no-op; only a
// missing header reports not found and rolls the transaction back.
func (r *InvoiceRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM invoice_benefit WHERE invoice_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM customer_invoice WHERE invoice_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM invoices WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrInvoiceNotFound
		return err
	}
	return nil
}

// OwnerID resolves the user who created an invoice.  Attachment operations
// use it as their access gate.
func (r *InvoiceRepo) OwnerID(ctx context.Context, id uint64) (uint64, error) {
	var owner uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT created_by_user_id FROM invoices WHERE id = ?", id).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInvoiceNotFound
		}
		return 0, err
	}
	return owner, nil
}
