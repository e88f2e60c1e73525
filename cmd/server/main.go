// Command server runs the marketplace API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bigvyapaar/internal/config"
	"bigvyapaar/internal/observability"
	"bigvyapaar/internal/server"

	"github.com/gofiber/fiber/v2"
)

// @title BigVyapaar API
// @version 1.0
// @description Barter marketplace API with products, bids and asks, trade requests, and chats

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.Logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	observability.Logger = observability.NewLogger(cfg.Env)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "bigvyapaar-api",
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: cfg.TracingSampler,
	})
	if err != nil {
		observability.Logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		observability.Logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		AppName:   "BigVyapaar API",
		BodyLimit: 1 * 1024 * 1024,
	})
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		observability.Logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("server shutdown error", "error", err)
		}
		if err := srv.Shutdown(ctx); err != nil {
			observability.Logger.Error("server resource shutdown error", "error", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			observability.Logger.Error("tracer shutdown error", "error", err)
		}
	}()

	observability.Logger.Info("server starting", "port", cfg.Port, "store_backend", cfg.StoreBackend)
	if err := app.Listen(":" + cfg.Port); err != nil {
		observability.Logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
