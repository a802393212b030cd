package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"

	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/config"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/http/server"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/infra/chrome"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/infra/logging"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/pdf"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)

	engine := chrome.NewEngine(cfg)
	startCtx, cancel := context.WithTimeout(context.Background(), cfg.StartupTimeout())
	err := engine.Start(startCtx)
	cancel()
	if err != nil {
		// No degraded mode: without a browser the instance must not become ready.
		logging.Fatal("Browser startup failed", "error", err)
	}
	logging.Info("Browser started", "timeout_secs", cfg.PDF.TimeoutSecs)

	svc := pdf.NewChromeService(cfg, engine)
	app := server.New(server.Deps{Config: cfg, Service: svc, Engine: engine})

	idleConnsClosed := make(chan struct{})
	startServer(app, cfg, engine, idleConnsClosed)
	<-idleConnsClosed
}

// startServer starts the Fiber app and listens for shutdown signals.
func startServer(app *fiber.App, cfg config.Config, engine *chrome.Engine, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint

	logging.Warn("Shutdown signal received, closing server...")

	// Stop accepting new requests and let in-flight renders run out their
	// deadline before the browser goes away.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RenderTimeout())
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	if engine != nil {
		engine.Stop()
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
