package handler

// ClientHandler covers the polymorphic parts of the client resource:
// create (base row + subtype row in one transaction), read with the joined
// subtype and delete.  Base-row list and update are registered on the
// generic EntityHandler for the clients descriptor.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/facturio/invoice-api/internal/repository"
)

// ClientHandler serves client create/read/delete.
type ClientHandler struct {
	Repo *repository.ClientRepo
}

// NewClientHandler constructs a ClientHandler.
func NewClientHandler(repo *repository.ClientRepo) *ClientHandler {
	if repo == nil {
		panic("nil repository passed to NewClientHandler")
	}
	return &ClientHandler{Repo: repo}
}

// clientRequest flattens the base and subtype fields into one payload; the
// type discriminator decides which subtype fields are required.
type clientRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Type     string `json:"type"`
	Address  string `json:"address"`
	ImageURL string `json:"image_url"`
	IsActive *bool  `json:"is_active"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthDate string `json:"birth_date"`

	CompanyName        string `json:"company_name"`
	RegistrationNumber string `json:"registration_number"`
	VATNumber          string `json:"vat_number"`
}

// Create handles POST /v1/clients.
func (h *ClientHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body clientRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	email := strings.TrimSpace(body.Email)
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	cl := &repository.Client{
		Email:     email,
		Phone:     strings.TrimSpace(body.Phone),
		Type:      strings.ToLower(strings.TrimSpace(body.Type)),
		Address:   strings.TrimSpace(body.Address),
		ImageURL:  strings.TrimSpace(body.ImageURL),
		IsActive:  true,
		CreatedBy: userID,
	}
	if body.IsActive != nil {
		cl.IsActive = *body.IsActive
	}
	switch cl.Type {
	case repository.ClientTypeIndividual:
		if strings.TrimSpace(body.FirstName) == "" || strings.TrimSpace(body.LastName) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name and last_name are required for individual clients"})
		}
		cl.Individual = &repository.ClientIndividual{
			FirstName: strings.TrimSpace(body.FirstName),
			LastName:  strings.TrimSpace(body.LastName),
			BirthDate: strings.TrimSpace(body.BirthDate),
		}
	case repository.ClientTypeCompany:
		if strings.TrimSpace(body.CompanyName) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "company_name is required for company clients"})
		}
		cl.Company = &repository.ClientCompany{
			CompanyName:        strings.TrimSpace(body.CompanyName),
			RegistrationNumber: strings.TrimSpace(body.RegistrationNumber),
			VATNumber:          strings.TrimSpace(body.VATNumber),
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be individual or company"})
	}

	if err := h.Repo.Create(c.Request().Context(), cl); err != nil {
		logErr(c, err, "client create")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create client"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": cl.ID, "message": "Client created successfully"})
}

// Get handles GET /v1/clients/:id.
func (h *ClientHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	cl, err := h.Repo.GetByIDAndOwner(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Client not found"})
		}
		logErr(c, err, "client get")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, cl)
}

// Delete handles DELETE /v1/clients/:id.
func (h *ClientHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Repo.DeleteByIDAndOwner(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Client not found"})
		}
		logErr(c, err, "client delete")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete client"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Client deleted successfully"})
}
