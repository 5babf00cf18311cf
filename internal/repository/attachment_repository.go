package repository

// Attachments are files stored against an invoice.  Every query joins the
// invoices table and filters on created_by_user_id, so an attachment is
// only ever visible to the user who owns the parent invoice.  As with the
// generic layer, "missing" and "not owned" collapse into the same not
// found result.

import (
	"context"
	"database/sql"
	"errors"
)

// Attachment mirrors the 'attachments' table.  Data carries the blob and
// is omitted from list responses.
type Attachment struct {
	ID         uint64 `json:"id"`
	InvoiceID  uint64 `json:"invoice_id"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	StorageKey string `json:"storage_key"`
	CreatedAt  string `json:"created_at"`
	Data       []byte `json:"-"`
}

// ErrAttachmentNotFound is returned when an attachment cannot be found for
// the acting user.
var ErrAttachmentNotFound = errors.New("attachment not found")

// AttachmentRepo encapsulates attachment persistence.
type AttachmentRepo struct {
	db *sql.DB
}

// NewAttachmentRepo constructs an AttachmentRepo with the provided DB handle.
func NewAttachmentRepo(db *sql.DB) *AttachmentRepo {
	return &AttachmentRepo{db: db}
}

// Create stores a new attachment row.  The caller is responsible for
// checking that the acting user owns the parent invoice first.
func (r *AttachmentRepo) Create(ctx context.Context, a *Attachment) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO attachments (invoice_id, file_name, mime_type, size, storage_key, data) VALUES (?, ?, ?, ?, ?, ?)",
		a.InvoiceID, a.FileName, a.MimeType, a.Size, a.StorageKey, a.Data)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// ListByInvoice returns attachment metadata (no blobs) for one invoice,
// restricted to invoices the acting user owns.
func (r *AttachmentRepo) ListByInvoice(ctx context.Context, invoiceID, ownerID uint64) ([]*Attachment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.invoice_id, a.file_name, a.mime_type, a.size, a.storage_key, a.created_at
		 FROM attachments a
		 JOIN invoices i ON i.id = a.invoice_id
		 WHERE a.invoice_id = ? AND i.created_by_user_id = ?
		 ORDER BY a.id`, invoiceID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Attachment
	for rows.Next() {
		a := new(Attachment)
		if err := rows.Scan(&a.ID, &a.InvoiceID, &a.FileName, &a.MimeType, &a.Size, &a.StorageKey, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByIDAndOwner fetches one attachment including its blob, restricted to
// the owner of the parent invoice.
func (r *AttachmentRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*Attachment, error) {
	var a Attachment
	err := r.db.QueryRowContext(ctx,
		`SELECT a.id, a.invoice_id, a.file_name, a.mime_type, a.size, a.storage_key, a.created_at, a.data
		 FROM attachments a
		 JOIN invoices i ON i.id = a.invoice_id
		 WHERE a.id = ? AND i.created_by_user_id = ?`, id, ownerID).
		Scan(&a.ID, &a.InvoiceID, &a.FileName, &a.MimeType, &a.Size, &a.StorageKey, &a.CreatedAt, &a.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttachmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

// DeleteByIDAndOwner removes one attachment when the acting user owns the
// parent invoice.
func (r *AttachmentRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE a FROM attachments a
		 JOIN invoices i ON i.id = a.invoice_id
		 WHERE a.id = ? AND i.created_by_user_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}
