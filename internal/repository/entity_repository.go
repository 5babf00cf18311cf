package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// EntityRepo implements table-agnostic CRUD with per-row ownership
// enforcement.  Every domain resource that is a flat owner-scoped row
// (clients, items, taxes, discounts, templates, users) goes through this
// one type, so tenant isolation is derived in exactly one place: each
// statement carries a `WHERE id = ? AND <owner> = ?` guard built from the
// table descriptor.
type EntityRepo struct {
	db *sql.DB // db is the underlying connection pool
}

// NewEntityRepo constructs an EntityRepo with the provided DB handle so the
// database can be injected in tests and at startup.
func NewEntityRepo(db *sql.DB) *EntityRepo {
	return &EntityRepo{db: db}
}

// Create inserts a new row built from the given fields plus the owner
// column and returns the generated id.  SQL failures, including constraint
// violations, are propagated untranslated; this layer does not special-case
// duplicate keys.
func (r *EntityRepo) Create(ctx context.Context, t Table, ownerID uint64, fields []Field) (uint64, error) {
	cols := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		if !t.hasColumn(f.Column) {
			return 0, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, f.Column)
		}
		cols = append(cols, f.Column)
		args = append(args, f.Value)
	}
	cols = append(cols, t.Owner)
	args = append(args, ownerID)

	q := "INSERT INTO " + t.Name + " (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders(len(cols)) + ")"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a single row matching both the id and the owner.  A row
// that exists under a different owner yields ErrEntityNotFound exactly like
// a missing row.
func (r *EntityRepo) GetByID(ctx context.Context, t Table, id, ownerID uint64) (map[string]any, error) {
	q := "SELECT * FROM " + t.Name + " WHERE id = ? AND " + t.Owner + " = ? LIMIT 1"
	rows, err := r.db.QueryContext(ctx, q, id, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out, err := scanMaps(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEntityNotFound
	}
	return out[0], nil
}

// Update applies the given fields to a row the acting user owns.  The work
// runs in a transaction: first the ownership check, then a dynamic SET
// built from the fields in order.  An empty field set is a successful no-op
// once the ownership check passes.  Zero affected rows after a passing
// check means the row was deleted in between and is reported as not found.
func (r *EntityRepo) Update(ctx context.Context, t Table, id, ownerID uint64, fields []Field) (err error) {
	for _, f := range fields {
		if !t.hasColumn(f.Column) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, f.Column)
		}
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

	var exists uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM "+t.Name+" WHERE id = ? AND "+t.Owner+" = ? LIMIT 1",
		id, ownerID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrEntityNotFound
		}
		return err
	}

	if len(fields) == 0 {
		return nil // ownership verified, nothing to write
	}

	set := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+2)
	for _, f := range fields {
		set = append(set, f.Column+" = ?")
		args = append(args, f.Value)
	}
	args = append(args, id, ownerID)

	res, execErr := tx.ExecContext(ctx,
		"UPDATE "+t.Name+" SET "+strings.Join(set, ", ")+" WHERE id = ? AND "+t.Owner+" = ?",
		args...)
	if execErr != nil {
		err = execErr
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The row passed the check but vanished before the update.
		err = ErrEntityNotFound
		return err
	}
	return nil
}

// Delete removes a row guarded by id and owner.  Zero affected rows is
// reported as not found.
func (r *EntityRepo) Delete(ctx context.Context, t Table, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM "+t.Name+" WHERE id = ? AND "+t.Owner+" = ?",
		id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEntityNotFound
	}
	return nil
}

// List returns every row owned by the acting user, narrowed by one equality
// predicate per filter in filter order and sorted by orderBy (default
// `created_at DESC`).  An empty result is a valid empty slice, not an
// error.
func (r *EntityRepo) List(ctx context.Context, t Table, ownerID uint64, filters []Field, orderBy string) ([]map[string]any, error) {
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	if !t.orderable(orderBy) {
		return nil, fmt.Errorf("%w: %q", ErrBadOrderBy, orderBy)
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM " + t.Name + " WHERE " + t.Owner + " = ?")
	args := make([]any, 0, len(filters)+1)
	args = append(args, ownerID)
	for _, f := range filters {
		if !t.hasColumn(f.Column) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, f.Column)
		}
		sb.WriteString(" AND " + f.Column + " = ?")
		args = append(args, f.Value)
	}
	sb.WriteString(" ORDER BY " + orderBy)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMaps(rows)
}

// placeholders returns n comma-separated `?` markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// scanMaps reads all remaining rows into column-keyed maps.  []byte values
// are converted to string so JSON encoding produces text instead of
// base64.  The column set comes from the result, so SELECT * stays usable
// across tables with different shapes.
func scanMaps(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				m[c] = string(b)
			} else {
				m[c] = vals[i]
			}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
