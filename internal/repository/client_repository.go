package repository

// Clients are polymorphic: a base row in 'clients' plus exactly one subtype
// row in client_individual or client_company matching the type column.
// Nothing at the database level enforces the pairing; the handler validates
// the type and this repository writes base and subtype rows in one
// transaction so a half-created client can never be observed.  Base-row
// list and update go through the generic entity layer; create, read and
// delete live here because they span the subtype tables.

import (
	"context"
	"database/sql"
	"errors"
)

// Client type discriminator values.
const (
	ClientTypeIndividual = "individual"
	ClientTypeCompany    = "company"
)

// ClientIndividual holds the subtype fields of a private person.
type ClientIndividual struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthDate string `json:"birth_date"`
}

// ClientCompany holds the subtype fields of a company.
type ClientCompany struct {
	CompanyName        string `json:"company_name"`
	RegistrationNumber string `json:"registration_number"`
	VATNumber          string `json:"vat_number"`
}

// Client is the base row plus whichever subtype row matches its type.
// Exactly one of Individual/Company is non-nil on a well-formed client.
type Client struct {
	ID         uint64            `json:"id"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone"`
	Type       string            `json:"type"`
	Address    string            `json:"address"`
	ImageURL   string            `json:"image_url"`
	IsActive   bool              `json:"is_active"`
	CreatedBy  uint64            `json:"-"`
	Individual *ClientIndividual `json:"individual,omitempty"`
	Company    *ClientCompany    `json:"company,omitempty"`
}

// ErrClientNotFound is returned when a client cannot be found for the
// acting user.
var ErrClientNotFound = errors.New("client not found")

// ErrClientType is returned when the type discriminator is neither
// individual nor company.
var ErrClientType = errors.New("unknown client type")

// ClientRepo encapsulates the multi-table client queries.
type ClientRepo struct {
	db *sql.DB
}

// NewClientRepo constructs a ClientRepo with the provided DB handle.
func NewClientRepo(db *sql.DB) *ClientRepo {
	return &ClientRepo{db: db}
}

// Create inserts the base row and the matching subtype row in one
// transaction.  The client's ID field is populated on success.
func (r *ClientRepo) Create(ctx context.Context, c *Client) (err error) {
	switch c.Type {
	case ClientTypeIndividual:
		if c.Individual == nil {
			return ErrClientType
		}
	case ClientTypeCompany:
		if c.Company == nil {
			return ErrClientType
		}
	default:
		return ErrClientType
	}

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
		"INSERT INTO clients (email, phone, type, address, image_url, is_active, created_by_user_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.Email, c.Phone, c.Type, c.Address, c.ImageURL, c.IsActive, c.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	switch c.Type {
	case ClientTypeIndividual:
		_, err = tx.ExecContext(ctx,
			"INSERT INTO client_individual (client_id, first_name, last_name, birth_date) VALUES (?, ?, ?, ?)",
			c.ID, c.Individual.FirstName, c.Individual.LastName, c.Individual.BirthDate)
	case ClientTypeCompany:
		_, err = tx.ExecContext(ctx,
			"INSERT INTO client_company (client_id, company_name, registration_number, vat_number) VALUES (?, ?, ?, ?)",
			c.ID, c.Company.CompanyName, c.Company.RegistrationNumber, c.Company.VATNumber)
	}
	return err
}

// GetByIDAndOwner fetches a client with its subtype row, but only when it
// belongs to the acting user.  Missing and not-owned rows both surface as
// ErrClientNotFound.
func (r *ClientRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*Client, error) {
	const q = `SELECT cl.id, cl.email, cl.phone, cl.type, cl.address, cl.image_url, cl.is_active, cl.created_by_user_id,
       ci.first_name, ci.last_name, ci.birth_date,
       cc.company_name, cc.registration_number, cc.vat_number
FROM clients cl
LEFT JOIN client_individual ci ON ci.client_id = cl.id
LEFT JOIN client_company cc ON cc.client_id = cl.id
WHERE cl.id = ? AND cl.created_by_user_id = ?`

	var (
		c         Client
		firstName sql.NullString
		lastName  sql.NullString
		birthDate sql.NullString
		company   sql.NullString
		regNumber sql.NullString
		vatNumber sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, id, ownerID).Scan(
		&c.ID, &c.Email, &c.Phone, &c.Type, &c.Address, &c.ImageURL, &c.IsActive, &c.CreatedBy,
		&firstName, &lastName, &birthDate,
		&company, &regNumber, &vatNumber,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	switch c.Type {
	case ClientTypeIndividual:
		c.Individual = &ClientIndividual{
			FirstName: firstName.String,
			LastName:  lastName.String,
			BirthDate: birthDate.String,
		}
	case ClientTypeCompany:
		c.Company = &ClientCompany{
			CompanyName:        company.String,
			RegistrationNumber: regNumber.String,
			VATNumber:          vatNumber.String,
		}
	}
	return &c, nil
}

// DeleteByIDAndOwner removes a client and its subtype rows.  Subtype rows
// go first so the base row is never orphaned mid-delete.  Both subtype
// deletes run unconditionally; deleting from the table that has no row for
// this client is a no-op.
func (r *ClientRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) (err error) {
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

	var exists uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM clients WHERE id = ? AND created_by_user_id = ? LIMIT 1",
		id, ownerID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrClientNotFound
		}
		return err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM client_individual WHERE client_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM client_company WHERE client_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id); err != nil {
		return err
	}
	return nil
}
