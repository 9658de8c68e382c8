package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/janhq/money-coach/internal/config"
	"github.com/janhq/money-coach/internal/infrastructure/logger"
	"github.com/janhq/money-coach/internal/infrastructure/observability"
	"github.com/janhq/money-coach/internal/interfaces/httpserver"
)

type Application struct {
	httpServer    *httpserver.HttpServer
	metricsServer *httpserver.MetricsServer
	config        *config.Config
	logger        zerolog.Logger
}

// Start runs both listeners until ctx is cancelled or one of them fails.
func (application *Application) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return application.metricsServer.Run(ctx)
	})
	eg.Go(func() error {
		return application.httpServer.Run(ctx)
	})
	return eg.Wait()
}

func main() {
	if err := run(); err != nil {
		log := logger.GetLogger()
		log.Fatal().Err(err).Msg("money-coach exited")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, cleanup, err := CreateApplication()
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	defer cleanup()
	log := application.logger

	otelShutdown, err := observability.Setup(ctx, application.config, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	log.Info().
		Str("environment", application.config.Environment).
		Int("http_port", application.config.HTTPPort).
		Msg("money-coach starting")

	if err := application.Start(ctx); err != nil {
		return err
	}
	log.Info().Msg("money-coach stopped")
	return nil
}
