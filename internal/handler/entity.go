package handler

// EntityHandler serves every owner-scoped catalog resource through the
// generic entity layer.  One instance is bound to one table descriptor;
// the router registers a handler per resource (clients, items, taxes,
// discounts, templates, users).  The handler's only jobs are payload
// binding, identity extraction and status mapping; all SQL semantics live
// in the repository.

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/facturio/invoice-api/internal/repository"
)

// EntityHandler binds one table descriptor to the generic entity repo.
type EntityHandler struct {
	Repo  *repository.EntityRepo
	Table repository.Table
}

// NewEntityHandler constructs an EntityHandler for one table.
func NewEntityHandler(repo *repository.EntityRepo, table repository.Table) *EntityHandler {
	if repo == nil {
		panic("nil repository passed to NewEntityHandler")
	}
	return &EntityHandler{Repo: repo, Table: table}
}

// bindFields binds the JSON body and projects it onto the descriptor's
// columns in canonical order.  Keys the descriptor does not know are
// ignored, mirroring how absent fields are simply skipped; the result is a
// deterministic ordered payload.
func (h *EntityHandler) bindFields(c echo.Context) ([]repository.Field, error) {
	body := map[string]any{}
	if err := c.Bind(&body); err != nil {
		return nil, err
	}
	var fields []repository.Field
	for _, col := range h.Table.Columns {
		if v, ok := body[col]; ok {
			fields = append(fields, repository.Field{Column: col, Value: v})
		}
	}
	return fields, nil
}

// Create handles POST /<resource>.
func (h *EntityHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fields, err := h.bindFields(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	id, err := h.Repo.Create(c.Request().Context(), h.Table, userID, fields)
	if err != nil {
		logErr(c, err, "entity create")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":      id,
		"message": h.Table.Label + " created successfully",
	})
}

// Get handles GET /<resource>/:id.
func (h *EntityHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	row, err := h.Repo.GetByID(c.Request().Context(), h.Table, id, userID)
	if err != nil {
		return h.mapError(c, err, "entity get")
	}
	return c.JSON(http.StatusOK, row)
}

// List handles GET /<resource>.  Query parameters matching descriptor
// columns become equality filters; order_by overrides the default sort.
func (h *EntityHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var filters []repository.Field
	params := c.QueryParams()
	for _, col := range h.Table.Columns {
		if v, ok := params[col]; ok && len(v) > 0 {
			filters = append(filters, repository.Field{Column: col, Value: v[0]})
		}
	}
	rows, err := h.Repo.List(c.Request().Context(), h.Table, userID, filters, c.QueryParam("order_by"))
	if err != nil {
		if errors.Is(err, repository.ErrBadOrderBy) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order_by"})
		}
		logErr(c, err, "entity list")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// Update handles PUT /<resource>/:id.
func (h *EntityHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	fields, err := h.bindFields(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Repo.Update(c.Request().Context(), h.Table, id, userID, fields); err != nil {
		return h.mapError(c, err, "entity update")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": h.Table.Label + " updated successfully"})
}

// Delete handles DELETE /<resource>/:id.
func (h *EntityHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Repo.Delete(c.Request().Context(), h.Table, id, userID); err != nil {
		return h.mapError(c, err, "entity delete")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": h.Table.Label + " deleted successfully"})
}

// mapError translates repository failures into responses.  Not-found keeps
// its per-table message; everything else is logged and returned as a
// generic 500.
func (h *EntityHandler) mapError(c echo.Context, err error, op string) error {
	if errors.Is(err, repository.ErrEntityNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"message": h.Table.Label + " not found"})
	}
	logErr(c, err, op)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
