package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"connector-service/core/loader"
	"connector-service/core/logger"
	"connector-service/core/middleware/auth"
	"connector-service/core/middleware/rayid"

	"connector-service/feature/cleanup"
	"connector-service/feature/integrity"
	"connector-service/feature/sources"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "connector-service/docs/swagger"
)

// @title Connector Service API
// @version 1.0
// @description Admin API for native connectors and sync job reconciliation.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the connector service",
	Long:  `Starts the reconciliation loop and the admin HTTP server.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := bootstrap()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		logg := rt.logg
		zap.ReplaceGlobals(logg)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Reconciliation loop
		loop := rt.newLoop()
		loopDone := make(chan struct{})
		go func() {
			defer close(loopDone)
			if err := loop.Run(ctx); err != nil {
				logger.Critical(logg, "Reconciliation loop stopped on a fatal error", zap.Error(err))
			}
		}()

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			JSONEncoder:           json.Marshal,
			JSONDecoder:           json.Unmarshal,
		})

		mgr := loader.NewManager(logg)
		mgr.Register(cleanup.NewFeature(loop, logg))
		mgr.Register(sources.NewFeature(rt.connectors, rt.registry, rt.cfg.Features, logg))
		mgr.Register(integrity.NewFeature(rt.client, rt.cfg.Storage, rt.db, logg))

		// RayID first so every later log line carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

		app.Use(auth.New(auth.Config{
			ApiKey: rt.cfg.Server.ApiKey,
			Skip:   []string{"/swagger", "/metrics"},
		}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server", zap.String("address", rt.cfg.Server.Address()))
			if err := app.Listen(rt.cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		select {
		case <-c:
		case <-loopDone:
		}
		logg.Info("Shutting down server...")

		timeout := rt.cfg.Server.ShutdownTimeout()
		loop.Stop()
		if err := app.ShutdownWithTimeout(timeout); err != nil {
			logg.Warn("Server shutdown failed", zap.Error(err))
		}

		shutdownCtx, stop := context.WithTimeout(context.Background(), timeout)
		defer stop()
		select {
		case <-loopDone:
		case <-shutdownCtx.Done():
			logg.Warn("Reconciliation loop did not stop in time")
			cancel()
		}
		rt.close(shutdownCtx)
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
