// Package repository defines error values shared across repositories.
// Entity-specific sentinels (ErrInvoiceNotFound, ErrCustomerNotFound, ...)
// live next to their repositories; this file holds values the generic
// entity layer reuses for every table it manages.
package repository

import "errors"

// ErrEntityNotFound is returned when a row does not exist or does not
// belong to the acting user.  The two cases are deliberately conflated:
// handlers translate both into one 404 so callers cannot probe for rows
// owned by other users.
var ErrEntityNotFound = errors.New("entity not found")

// ErrUnknownColumn is returned when a payload or filter references a column
// outside the table descriptor.  It indicates a programming error in the
// handler layer, not bad user input.
var ErrUnknownColumn = errors.New("unknown column")

// ErrBadOrderBy is returned when a list ordering expression is not covered
// by the table descriptor.
var ErrBadOrderBy = errors.New("invalid order by")
