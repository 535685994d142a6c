// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rallyclub/courtbook/internal/booking"
	"github.com/rallyclub/courtbook/internal/config"
	"github.com/rallyclub/courtbook/internal/db"
	"github.com/rallyclub/courtbook/internal/notify"
	"github.com/rallyclub/courtbook/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func configPath() string {
	if path, ok := os.LookupEnv("CONFIG_PATH"); ok {
		return path
	}
	return "config/config.yaml"
}

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	service, err := booking.NewService(database, booking.Options{
		ExhaustiveSeriesCheck: cfg.Booking.ExhaustiveSeriesCheck,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create booking service")
	}

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	sink := notify.StoreSink{Store: database.Store}
	if err := scheduler.RegisterReminderJob(database, service, sink, cfg.Booking.ReminderCron, cfg.Booking.ReminderLeadTime); err != nil {
		log.Fatal().Err(err).Msg("Failed to register reminder job")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
	}()

	server := newServer(cfg, database, service)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Run server
	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
