package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/xid"

	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/config"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/infra/logging"
)

// Register attaches global middleware to the app. ready reports whether the
// rendering engine connection is usable; it backs the readiness probe and
// may be nil, in which case readiness mirrors liveness.
func Register(app *fiber.App, cfg config.Config, ready func() bool) {
	app.Use(recover.New())
	app.Use(cors.New())

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	// /livez answers while the process runs; /readyz additionally requires a
	// live engine connection so the platform stops routing to an instance
	// whose browser died.
	app.Use(healthcheck.New(healthcheck.Config{
		LivenessEndpoint:  "/livez",
		ReadinessEndpoint: "/readyz",
		ReadinessProbe: func(c *fiber.Ctx) bool {
			return ready == nil || ready()
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = c.GetRespHeader("X-Request-Id")
		}
		logging.Info("Incoming request", "method", c.Method(), "path", c.Path(), "request_id", requestID)
		return c.Next()
	})
}
