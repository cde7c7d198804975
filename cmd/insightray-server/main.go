package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insightray/insightray/internal/config"
	"github.com/insightray/insightray/internal/domain/patient"
	"github.com/insightray/insightray/internal/domain/triage"
	"github.com/insightray/insightray/internal/platform/hoppr"
	"github.com/insightray/insightray/internal/platform/media"
	"github.com/insightray/insightray/internal/platform/middleware"
	"github.com/insightray/insightray/internal/platform/webui"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "insightray-server",
		Short: "Chest radiograph AI triage server",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the triage API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Remote inference client
	client, err := hoppr.New(hoppr.Config{
		APIKey:       cfg.HopprAPIKey,
		BaseURL:      cfg.HopprBaseURL,
		Organization: cfg.HopprOrganization,
		Timeout:      cfg.HopprTimeout(),
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create inference client")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit()))

	// Domains
	store := triage.NewStore()
	triageSvc := triage.NewService(client, logger)

	apiV1 := e.Group("/api/v1")
	triage.NewHandler(triageSvc, store).RegisterRoutes(apiV1)
	patient.NewHandler(triageSvc).RegisterRoutes(apiV1)
	media.NewHandler(logger).RegisterRoutes(apiV1)

	// Built-in pages
	webui.Register(e)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
