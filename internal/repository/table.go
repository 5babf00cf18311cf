// Package repository contains data access logic separated from HTTP handlers.
// This file defines the closed set of table descriptors used by the generic
// entity layer.  Identifiers (table and column names) only ever come from
// these descriptors, so the SQL the layer assembles can never contain
// caller-supplied identifiers; values always travel as placeholders.
package repository

import "strings"

// Table describes one database table managed by the generic entity layer.
// Columns lists the writable columns in canonical order; payloads are
// applied in this order so generated SET clauses are deterministic.
type Table struct {
	Name    string   // SQL table name
	Label   string   // human-readable noun used in error messages
	Owner   string   // column scoping rows to the acting user
	Columns []string // writable columns, canonical order
}

// Descriptors for every table the generic layer may touch.  Users are a
// special case: their owner column is the primary key itself, so a caller
// can only ever read or mutate their own row.
var (
	Clients = Table{
		Name:  "clients",
		Label: "Client",
		Owner: "created_by_user_id",
		// type is deliberately absent: the subtype row is tied to it, so it
		// is set once on create and never writable through the generic layer.
		Columns: []string{"email", "phone", "address", "image_url", "is_active"},
	}
	Items = Table{
		Name:    "items",
		Label:   "Item",
		Owner:   "created_by_user_id",
		Columns: []string{"name", "description", "unit", "price"},
	}
	Taxes = Table{
		Name:    "taxes",
		Label:   "Tax",
		Owner:   "created_by_user_id",
		Columns: []string{"name", "rate"},
	}
	Discounts = Table{
		Name:    "discounts",
		Label:   "Discount",
		Owner:   "created_by_user_id",
		Columns: []string{"name", "percentage"},
	}
	Templates = Table{
		Name:    "templates",
		Label:   "Template",
		Owner:   "created_by_user_id",
		Columns: []string{"name", "content"},
	}
	Users = Table{
		Name:    "users",
		Label:   "User",
		Owner:   "id",
		Columns: []string{"email", "first_name", "last_name", "username", "role", "is_active"},
	}
)

// Field is one column/value pair in a write payload or filter set.  A slice
// of fields keeps its order, which keeps the generated SQL deterministic.
type Field struct {
	Column string
	Value  any
}

// hasColumn reports whether name is a writable column of the table.
func (t Table) hasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// orderable reports whether expr is an acceptable ORDER BY clause: a known
// column (or id/created_at/updated_at) optionally followed by ASC or DESC.
func (t Table) orderable(expr string) bool {
	parts := strings.Fields(expr)
	if len(parts) == 0 || len(parts) > 2 {
		return false
	}
	col := parts[0]
	if !t.hasColumn(col) && col != "id" && col != "created_at" && col != "updated_at" {
		return false
	}
	if len(parts) == 2 {
		dir := strings.ToUpper(parts[1])
		if dir != "ASC" && dir != "DESC" {
			return false
		}
	}
	return true
}
