package repository

// Customers are the invoicing counterpart used by the invoice aggregate.
// They predate the owner-scoped client model and intentionally carry no
// owner column, so they are managed by a dedicated repository instead of
// the generic entity layer.

import (
	"context"
	"database/sql"
	"errors"
)

// Customer mirrors the 'customers' table.
type Customer struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ErrCustomerNotFound is returned when a customer cannot be found.
var ErrCustomerNotFound = errors.New("customer not found")

// CustomerRepo encapsulates all database queries related to customers.
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo constructs a CustomerRepo with the provided DB handle.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

// Create inserts a new customer and populates the generated id and
// timestamp fields on the provided record.
func (r *CustomerRepo) Create(ctx context.Context, c *Customer) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO customers (name, email, address) VALUES (?, ?, ?)",
		c.Name, c.Email, c.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM customers WHERE id = ?", c.ID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetByID fetches a customer by id or returns ErrCustomerNotFound.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (*Customer, error) {
	var c Customer
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, address, created_at, updated_at FROM customers WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns all customers ordered by id.
func (r *CustomerRepo) List(ctx context.Context) ([]*Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, email, address, created_at, updated_at FROM customers ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Customer
	for rows.Next() {
		c := new(Customer)
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the customer fields.  Zero affected rows means the
// customer does not exist.
func (r *CustomerRepo) Update(ctx context.Context, c *Customer) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE customers SET name = ?, email = ?, address = ? WHERE id = ?",
		c.Name, c.Email, c.Address, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// Delete removes a customer by id.
func (r *CustomerRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCustomerNotFound
	}
	return nil
}
