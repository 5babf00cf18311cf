package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework handles routing

	"github.com/facturio/invoice-api/internal/handler"    // handlers implement the endpoints
	"github.com/facturio/invoice-api/internal/middleware" // middleware provides identity and rate limiting
)

// API bundles every handler the router needs, plus the route-level
// middleware.  The struct keeps main's wiring in one place.
type API struct {
	Invoice    *handler.InvoiceHandler
	Customer   *handler.CustomerHandler
	Benefit    *handler.BenefitHandler
	Client     *handler.ClientHandler
	User       *handler.UserHandler
	Attachment *handler.AttachmentHandler

	// Generic owner-scoped resources, one EntityHandler per descriptor.
	Clients   *handler.EntityHandler
	Items     *handler.EntityHandler
	Taxes     *handler.EntityHandler
	Discounts *handler.EntityHandler
	Templates *handler.EntityHandler
	Users     *handler.EntityHandler

	Identity  echo.MiddlewareFunc // resolves the acting user
	RateLimit echo.MiddlewareFunc // Redis fixed-window limiter

	WebhookSecret string // shared secret guarding the sync webhook
}

// Register wires every route onto the Echo instance.  The health check and
// the secret-gated sync webhook live outside the identity middleware;
// everything else requires a resolved user.
func Register(e *echo.Echo, api API) {
	// Liveness probe for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Identity-provider webhook: the user row may not exist yet, so the
	// route is gated by a shared secret instead of the identity middleware.
	e.POST("/v1/users/sync", api.User.Sync, middleware.WebhookSecret(api.WebhookSecret))

	v1 := e.Group("/v1")
	if api.RateLimit != nil {
		v1.Use(api.RateLimit)
	}
	v1.Use(api.Identity)

	// Invoice aggregate.
	v1.POST("/invoices", api.Invoice.Create)
	v1.GET("/invoices", api.Invoice.List)
	v1.GET("/invoices/:id", api.Invoice.Get)
	v1.PUT("/invoices/:id", api.Invoice.Update)
	v1.DELETE("/invoices/:id", api.Invoice.Delete)
	v1.GET("/invoices/:id/benefits", api.Invoice.ListBenefits)

	// Attachments hang off invoices; downloads and deletes address the
	// attachment directly.
	v1.POST("/invoices/:id/attachments", api.Attachment.Upload)
	v1.GET("/invoices/:id/attachments", api.Attachment.List)
	v1.GET("/attachments/:id", api.Attachment.Download)
	v1.DELETE("/attachments/:id", api.Attachment.Delete)

	// Legacy, ownerless resources.
	registerCustomer(v1, api.Customer)
	registerBenefit(v1, api.Benefit)

	// Clients: polymorphic create/read/delete on the dedicated handler,
	// base-row list/update on the generic one.
	v1.POST("/clients", api.Client.Create)
	v1.GET("/clients", api.Clients.List)
	v1.GET("/clients/:id", api.Client.Get)
	v1.PUT("/clients/:id", api.Clients.Update)
	v1.DELETE("/clients/:id", api.Client.Delete)

	// Owner-scoped catalog resources on the generic entity handler.
	registerEntity(v1, "/items", api.Items)
	registerEntity(v1, "/taxes", api.Taxes)
	registerEntity(v1, "/discounts", api.Discounts)
	registerEntity(v1, "/templates", api.Templates)

	// Users: a caller can only address their own row, and creation happens
	// through the sync webhook, so there is no generic POST.
	v1.GET("/users", api.Users.List)
	v1.GET("/users/:id", api.Users.Get)
	v1.PUT("/users/:id", api.Users.Update)
	v1.DELETE("/users/:id", api.Users.Delete)
}

func registerEntity(g *echo.Group, prefix string, h *handler.EntityHandler) {
	g.POST(prefix, h.Create)
	g.GET(prefix, h.List)
	g.GET(prefix+"/:id", h.Get)
	g.PUT(prefix+"/:id", h.Update)
	g.DELETE(prefix+"/:id", h.Delete)
}

func registerCustomer(g *echo.Group, h *handler.CustomerHandler) {
	g.POST("/customers", h.Create)
	g.GET("/customers", h.List)
	g.GET("/customers/:id", h.Get)
	g.PUT("/customers/:id", h.Update)
	g.DELETE("/customers/:id", h.Delete)
}

func registerBenefit(g *echo.Group, h *handler.BenefitHandler) {
	g.POST("/benefits", h.Create)
	g.GET("/benefits", h.List)
	g.GET("/benefits/:id", h.Get)
	g.PUT("/benefits/:id", h.Update)
	g.DELETE("/benefits/:id", h.Delete)
}
