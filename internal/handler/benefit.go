package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/facturio/invoice-api/internal/repository"
)

// BenefitHandler serves the shared benefit catalog.
type BenefitHandler struct {
	Repo *repository.BenefitRepo
}

// NewBenefitHandler constructs a BenefitHandler.
func NewBenefitHandler(repo *repository.BenefitRepo) *BenefitHandler {
	if repo == nil {
		panic("nil repository passed to NewBenefitHandler")
	}
	return &BenefitHandler{Repo: repo}
}

type benefitRequest struct {
	Object       string          `json:"object"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

// Create handles POST /v1/benefits.
func (h *BenefitHandler) Create(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body benefitRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	object := strings.TrimSpace(body.Object)
	if object == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "object is required"})
	}
	b := &repository.Benefit{
		Object:       object,
		Unit:         strings.TrimSpace(body.Unit),
		PricePerUnit: body.PricePerUnit,
	}
	if err := h.Repo.Create(c.Request().Context(), b); err != nil {
		logErr(c, err, "benefit create")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create benefit"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": b.ID, "message": "Benefit created successfully"})
}

// List handles GET /v1/benefits.
func (h *BenefitHandler) List(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	benefits, err := h.Repo.List(c.Request().Context())
	if err != nil {
		logErr(c, err, "benefit list")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, benefits)
}

// Get handles GET /v1/benefits/:id.
func (h *BenefitHandler) Get(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	b, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBenefitNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Benefit not found"})
		}
		logErr(c, err, "benefit get")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, b)
}

// Update handles PUT /v1/benefits/:id.
func (h *BenefitHandler) Update(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body benefitRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	object := strings.TrimSpace(body.Object)
	if object == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "object is required"})
	}
	b := &repository.Benefit{
		ID:           id,
		Object:       object,
		Unit:         strings.TrimSpace(body.Unit),
		PricePerUnit: body.PricePerUnit,
	}
	if err := h.Repo.Update(c.Request().Context(), b); err != nil {
		if errors.Is(err, repository.ErrBenefitNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Benefit not found"})
		}
		logErr(c, err, "benefit update")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update benefit"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Benefit updated successfully"})
}

// Delete handles DELETE /v1/benefits/:id.
func (h *BenefitHandler) Delete(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrBenefitNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Benefit not found"})
		}
		logErr(c, err, "benefit delete")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete benefit"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Benefit deleted successfully"})
}
