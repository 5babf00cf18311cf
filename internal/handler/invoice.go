package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/facturio/invoice-api/internal/repository"
)

// InvoiceHandler serves the invoice aggregate endpoints.
type InvoiceHandler struct {
	Repo        *repository.InvoiceRepo
	BenefitRepo *repository.BenefitRepo
}

// NewInvoiceHandler constructs an InvoiceHandler with its repositories.
func NewInvoiceHandler(repo *repository.InvoiceRepo, benefitRepo *repository.BenefitRepo) *InvoiceHandler {
	if repo == nil || benefitRepo == nil {
		panic("nil repository passed to NewInvoiceHandler")
	}
	return &InvoiceHandler{Repo: repo, BenefitRepo: benefitRepo}
}

// invoiceRequest is the payload for creating or updating an invoice.  All
// fields are required and benefit_ids must be non-empty; validation runs
// before any transaction is opened.
type invoiceRequest struct {
	Name       string   `json:"name" validate:"required"`
	Date       string   `json:"date" validate:"required"`
	CustomerID uint64   `json:"customer_id" validate:"required"`
	BenefitIDs []uint64 `json:"benefit_ids" validate:"required,min=1,dive,required"`
}

func (r invoiceRequest) input() repository.InvoiceInput {
	return repository.InvoiceInput{
		Name:       r.Name,
		Date:       r.Date,
		CustomerID: r.CustomerID,
		BenefitIDs: r.BenefitIDs,
	}
}

// Create handles POST /v1/invoices.
func (h *InvoiceHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body invoiceRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, date, customer_id and a non-empty benefit_ids list are required"})
	}
	id, err := h.Repo.Create(c.Request().Context(), body.input(), userID)
	if err != nil {
		logErr(c, err, "invoice create")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create invoice"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"invoiceId": id,
		"message":   "Invoice created successfully",
	})
}

// List handles GET /v1/invoices.  An empty result is reported as 404,
// matching the read semantics of the aggregate.
func (h *InvoiceHandler) List(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	invoices, err := h.Repo.List(c.Request().Context())
	if err != nil {
		logErr(c, err, "invoice list")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	if len(invoices) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No invoices found"})
	}
	return c.JSON(http.StatusOK, invoices)
}

// Get handles GET /v1/invoices/:id.
func (h *InvoiceHandler) Get(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	inv, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Invoice not found"})
		}
		logErr(c, err, "invoice get")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, inv)
}

// Update handles PUT /v1/invoices/:id.
func (h *InvoiceHandler) Update(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body invoiceRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, date, customer_id and a non-empty benefit_ids list are required"})
	}
	if err := h.Repo.Update(c.Request().Context(), id, body.input()); err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Invoice not found"})
		}
		logErr(c, err, "invoice update")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update invoice"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Invoice updated successfully"})
}

// Delete handles DELETE /v1/invoices/:id.
func (h *InvoiceHandler) Delete(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Invoice not found"})
		}
		logErr(c, err, "invoice delete")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete invoice"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Invoice deleted successfully"})
}

// ListBenefits handles GET /v1/invoices/:id/benefits.
func (h *InvoiceHandler) ListBenefits(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	invoiceID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	benefits, err := h.BenefitRepo.ListByInvoice(c.Request().Context(), invoiceID)
	if err != nil {
		logErr(c, err, "invoice benefits")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	if len(benefits) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No benefits found for this invoice"})
	}
	return c.JSON(http.StatusOK, benefits)
}
