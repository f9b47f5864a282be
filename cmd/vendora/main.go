package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"vendora/internal/config"
	"vendora/internal/http/handlers"
	applog "vendora/internal/log"
	"vendora/internal/repos"
	"vendora/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal error",
			})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc)

	api := app.Group("/api/v1")

	// Read path: offer resolution. Throttled separately, like any burst-prone
	// availability endpoint.
	resolveLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|resolve"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.resolve.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Get("/offers/available", resolveLimiter, deps.OffersHandler.Available)

	// Catalog
	api.Get("/variants", deps.CatalogHandler.ListVariants)
	api.Post("/admin/variants", handlers.RequireAdmin(authSvc), deps.CatalogHandler.PublishVariant)

	// Checkout & orders
	api.Post("/checkout", deps.CheckoutHandler.Checkout)
	api.Get("/orders", deps.CheckoutHandler.List)
	api.Get("/orders/:id", deps.CheckoutHandler.Get)
	api.Post("/orders/:id/cancel", deps.CheckoutHandler.Cancel)
	api.Post("/orders/:id/status", handlers.RequireAdmin(authSvc), deps.CheckoutHandler.UpdateStatus)

	// Merchant write paths
	merchant := api.Group("/merchant", handlers.RequireMerchant(authSvc))
	merchant.Get("/offers", deps.MerchantHandler.ListOffers)
	merchant.Post("/offers", deps.MerchantHandler.CreateOffer)
	merchant.Post("/offers/:id/pause", deps.MerchantHandler.Pause)
	merchant.Post("/offers/:id/resume", deps.MerchantHandler.Resume)
	merchant.Post("/offers/:id/price", deps.MerchantHandler.SetPrice)
	merchant.Post("/offers/:id/stock", deps.MerchantHandler.UpsertStock)
	merchant.Get("/locations", deps.MerchantHandler.ListLocations)
	merchant.Post("/locations", deps.MerchantHandler.AddLocation)

	// Auth routes (login throttled)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts"})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port})
	log.Fatal(app.Listen(":" + cfg.Port))
}
