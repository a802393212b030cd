package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/config"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/http/handlers"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/http/middleware"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/infra/chrome"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/infra/logging"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/pdf"
)

// Deps bundles everything the HTTP layer needs. Engine may be nil in tests;
// the render routes then run purely against the injected Service.
type Deps struct {
	Config  config.Config
	Service *pdf.Service
	Engine  *chrome.Engine
}

// New creates and configures the Fiber app with all routes mounted.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               d.Config.Server.Prefork,
		DisableStartupMessage: true,
		// Leave headroom above the HTML limit; the handler enforces the
		// precise bound with a clean 413 body.
		BodyLimit: d.Config.Limits.MaxHTMLBytes + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": msg,
				},
			})
		},
	})

	var ready func() bool
	var stats func() chrome.Stats
	if d.Engine != nil {
		ready = d.Engine.Alive
		stats = d.Engine.Snapshot
	}

	middleware.Register(app, d.Config, ready)

	h := handlers.NewPDFHandler(d.Config, d.Service, stats)
	app.Get("/health", h.HandleHealth)
	app.Post("/pdf", h.HandleRender)
	app.Get("/engine/stats", h.HandleEngineStats)

	// Ensure all responses, including 404s, return JSON.
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}
