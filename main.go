package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spendtrack/spendtrack-be/internal/api"
	"github.com/spendtrack/spendtrack-be/internal/auth"
	"github.com/spendtrack/spendtrack-be/internal/config"
	"github.com/spendtrack/spendtrack-be/internal/database"
	"github.com/spendtrack/spendtrack-be/internal/logger"
	"github.com/spendtrack/spendtrack-be/internal/monitoring"
	"github.com/spendtrack/spendtrack-be/internal/services"
	"github.com/spendtrack/spendtrack-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.JWTSecret == "" {
		// Routes still come up so the health endpoint works, but every
		// authenticated request will fail until the secret is set.
		log.Error().Msg("JWT_SECRET is not set; authentication is unusable")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the activity hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, tokens)
	expenseService := services.NewExpenseService(db, eventService, hub)
	backupService := services.NewBackupService(cfg.DatabasePath, cfg.BackupPath, cfg.BackupKeep)

	// Set up and run the background backup scheduler
	scheduler, err := monitoring.NewScheduler(backupService, cfg.BackupSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backup scheduler")
	}
	go scheduler.Run()

	// Set up router
	router := api.NewRouter(db, tokens, hub, userService, expenseService, eventService, cfg.AllowedOrigins)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
