package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/facturio/invoice-api/internal/repository"
)

// CustomerHandler serves the legacy customer resource used by invoices.
type CustomerHandler struct {
	Repo *repository.CustomerRepo
}

// NewCustomerHandler constructs a CustomerHandler.
func NewCustomerHandler(repo *repository.CustomerRepo) *CustomerHandler {
	if repo == nil {
		panic("nil repository passed to NewCustomerHandler")
	}
	return &CustomerHandler{Repo: repo}
}

type customerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// Create handles POST /v1/customers.
func (h *CustomerHandler) Create(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body customerRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	cust := &repository.Customer{
		Name:    name,
		Email:   strings.TrimSpace(body.Email),
		Address: strings.TrimSpace(body.Address),
	}
	if err := h.Repo.Create(c.Request().Context(), cust); err != nil {
		logErr(c, err, "customer create")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create customer"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": cust.ID, "message": "Customer created successfully"})
}

// List handles GET /v1/customers.
func (h *CustomerHandler) List(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	customers, err := h.Repo.List(c.Request().Context())
	if err != nil {
		logErr(c, err, "customer list")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, customers)
}

// Get handles GET /v1/customers/:id.
func (h *CustomerHandler) Get(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	cust, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Customer not found"})
		}
		logErr(c, err, "customer get")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, cust)
}

// Update handles PUT /v1/customers/:id.
func (h *CustomerHandler) Update(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body customerRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	cust := &repository.Customer{
		ID:      id,
		Name:    name,
		Email:   strings.TrimSpace(body.Email),
		Address: strings.TrimSpace(body.Address),
	}
	if err := h.Repo.Update(c.Request().Context(), cust); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Customer not found"})
		}
		logErr(c, err, "customer update")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update customer"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Customer updated successfully"})
}

// Delete handles DELETE /v1/customers/:id.
func (h *CustomerHandler) Delete(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Customer not found"})
		}
		logErr(c, err, "customer delete")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete customer"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Customer deleted successfully"})
}
