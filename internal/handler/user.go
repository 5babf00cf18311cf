package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/facturio/invoice-api/internal/repository"
)

// UserHandler serves the identity-provider sync endpoint.  Plain user CRUD
// (self read/update/delete) goes through the generic entity handler.
type UserHandler struct {
	Repo *repository.UserRepo
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(repo *repository.UserRepo) *UserHandler {
	if repo == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Repo: repo}
}

// syncRequest mirrors the webhook payload sent by the identity provider.
type syncRequest struct {
	ClerkUserID string `json:"clerk_user_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

// Sync handles POST /v1/users/sync.  The route is gated by the webhook
// secret in the router, not by the identity middleware, because the user
// row may not exist yet.
func (h *UserHandler) Sync(c echo.Context) error {
	var body syncRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	clerkID := strings.TrimSpace(body.ClerkUserID)
	email := strings.TrimSpace(body.Email)
	if clerkID == "" || email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "clerk_user_id and email are required"})
	}
	role := strings.TrimSpace(body.Role)
	if role == "" {
		role = "member"
	}

	u := &repository.User{
		ClerkUserID: clerkID,
		Email:       email,
		FirstName:   strings.TrimSpace(body.FirstName),
		LastName:    strings.TrimSpace(body.LastName),
		Username:    strings.TrimSpace(body.Username),
		Role:        role,
	}
	created, err := h.Repo.Sync(c.Request().Context(), u)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "conflict",
				"code":  "email_taken",
			})
		}
		logErr(c, err, "user sync")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not sync user"})
	}
	status := http.StatusOK
	message := "User updated successfully"
	if created {
		status = http.StatusCreated
		message = "User created successfully"
	}
	return c.JSON(status, echo.Map{"id": u.ID, "message": message})
}
