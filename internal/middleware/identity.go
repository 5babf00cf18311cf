package middleware // middleware contains reusable HTTP middleware functions

// identity.go resolves the acting user for every protected request.  The
// service performs no authentication itself: identity is asserted by an
// external provider, either as a Bearer JWT whose subject is the provider's
// user id, or -- in dev mode only -- as a plain X-Clerk-User-Id header.
// The middleware maps that external id onto the local users row and stores
// the numeric user id in the request context; handlers only ever read that.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/facturio/invoice-api/internal/repository"
)

// DevUserHeader carries the external user id when dev mode is enabled.
const DevUserHeader = "X-Clerk-User-Id"

// Identity returns an Echo middleware that resolves the acting user.  A
// request with no resolvable, active user is rejected with 401 before any
// handler runs.
func Identity(users *repository.UserRepo, secret string, devMode bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			clerkID := ""

			auth := c.Request().Header.Get("Authorization")
			switch {
			case strings.HasPrefix(auth, "Bearer "):
				raw := strings.TrimPrefix(auth, "Bearer ")
				tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, echo.ErrUnauthorized
					}
					return []byte(secret), nil
				})
				if err != nil || !tok.Valid {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				sub, err := tok.Claims.GetSubject()
				if err != nil || sub == "" {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
				}
				clerkID = sub
			case devMode:
				clerkID = strings.TrimSpace(c.Request().Header.Get(DevUserHeader))
			}
			if clerkID == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}

			u, err := users.GetByClerkID(c.Request().Context(), clerkID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
			}
			if !u.IsActive {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user is inactive"})
			}

			c.Set("user_id", u.ID)
			c.Set("clerk_user_id", u.ClerkUserID)
			c.Set("role", u.Role)
			return next(c)
		}
	}
}

// WebhookSecret returns a middleware guarding provider-to-service webhook
// routes with a shared secret header.
func WebhookSecret(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Webhook-Secret") != secret {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}
