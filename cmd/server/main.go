package main // Entry point package

import (
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/facturio/invoice-api/internal/config"
	"github.com/facturio/invoice-api/internal/database"
	"github.com/facturio/invoice-api/internal/handler"
	"github.com/facturio/invoice-api/internal/middleware"
	"github.com/facturio/invoice-api/internal/repository"
	"github.com/facturio/invoice-api/internal/router"
)

func main() {
	cfg := config.Load()

	// Structured logging: human-readable console in dev, JSON elsewhere.
	if cfg.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// Redis is optional: without it the service runs unlimited.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, rate limiting disabled")
	}

	entityRepo := repository.NewEntityRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	benefitRepo := repository.NewBenefitRepo(db)
	clientRepo := repository.NewClientRepo(db)
	userRepo := repository.NewUserRepo(db)
	attachmentRepo := repository.NewAttachmentRepo(db)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	router.Register(e, router.API{
		Invoice:    handler.NewInvoiceHandler(invoiceRepo, benefitRepo),
		Customer:   handler.NewCustomerHandler(customerRepo),
		Benefit:    handler.NewBenefitHandler(benefitRepo),
		Client:     handler.NewClientHandler(clientRepo),
		User:       handler.NewUserHandler(userRepo),
		Attachment: handler.NewAttachmentHandler(attachmentRepo, invoiceRepo),

		Clients:   handler.NewEntityHandler(entityRepo, repository.Clients),
		Items:     handler.NewEntityHandler(entityRepo, repository.Items),
		Taxes:     handler.NewEntityHandler(entityRepo, repository.Taxes),
		Discounts: handler.NewEntityHandler(entityRepo, repository.Discounts),
		Templates: handler.NewEntityHandler(entityRepo, repository.Templates),
		Users:     handler.NewEntityHandler(entityRepo, repository.Users),

		Identity:      middleware.Identity(userRepo, cfg.JWTSecret, cfg.AuthDevMode),
		RateLimit:     middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
		WebhookSecret: cfg.WebhookSecret,
	})

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
