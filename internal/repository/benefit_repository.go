package repository

// Benefits are billable line-item templates (label, unit, price per unit).
// They are a shared catalog without an owner column, so any authenticated
// user may read and modify them; this matches the existing system behavior
// and is preserved deliberately.

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

// Benefit mirrors the 'benefits' table.
type Benefit struct {
	ID           uint64          `json:"id"`
	Object       string          `json:"object"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

// ErrBenefitNotFound is returned when a benefit cannot be found.
var ErrBenefitNotFound = errors.New("benefit not found")

// BenefitRepo encapsulates all database queries related to benefits.
type BenefitRepo struct {
	db *sql.DB
}

// NewBenefitRepo constructs a BenefitRepo with the provided DB handle.
func NewBenefitRepo(db *sql.DB) *BenefitRepo {
	return &BenefitRepo{db: db}
}

// Create inserts a new benefit and populates the generated id and
// timestamp fields on the provided record.
func (r *BenefitRepo) Create(ctx context.Context, b *Benefit) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO benefits (object, unit, price_per_unit) VALUES (?, ?, ?)",
		b.Object, b.Unit, b.PricePerUnit)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM benefits WHERE id = ?", b.ID).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetByID fetches a benefit by id or returns ErrBenefitNotFound.
func (r *BenefitRepo) GetByID(ctx context.Context, id uint64) (*Benefit, error) {
	var b Benefit
	err := r.db.QueryRowContext(ctx,
		"SELECT id, object, unit, price_per_unit, created_at, updated_at FROM benefits WHERE id = ?", id).
		Scan(&b.ID, &b.Object, &b.Unit, &b.PricePerUnit, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBenefitNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns all benefits ordered by id.
func (r *BenefitRepo) List(ctx context.Context) ([]*Benefit, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, object, unit, price_per_unit, created_at, updated_at FROM benefits ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBenefits(rows)
}

// ListByInvoice returns the benefits linked to one invoice via the
// invoice_benefit join table.
func (r *BenefitRepo) ListByInvoice(ctx context.Context, invoiceID uint64) ([]*Benefit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.object, b.unit, b.price_per_unit, b.created_at, b.updated_at
		 FROM benefits b
		 JOIN invoice_benefit ib ON ib.benefit_id = b.id
		 WHERE ib.invoice_id = ? ORDER BY b.id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBenefits(rows)
}

func scanBenefits(rows *sql.Rows) ([]*Benefit, error) {
	var out []*Benefit
	for rows.Next() {
		b := new(Benefit)
		if err := rows.Scan(&b.ID, &b.Object, &b.Unit, &b.PricePerUnit, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the benefit fields.  Zero affected rows means the
// benefit does not exist.
func (r *BenefitRepo) Update(ctx context.Context, b *Benefit) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE benefits SET object = ?, unit = ?, price_per_unit = ? WHERE id = ?",
		b.Object, b.Unit, b.PricePerUnit, b.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBenefitNotFound
	}
	return nil
}

// Delete removes a benefit by id.
func (r *BenefitRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM benefits WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBenefitNotFound
	}
	return nil
}
