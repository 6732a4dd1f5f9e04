package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reservaespacios/reservation-service/internal/adapters/handler"
	"github.com/reservaespacios/reservation-service/internal/adapters/mail"
	"github.com/reservaespacios/reservation-service/internal/adapters/middleware"
	"github.com/reservaespacios/reservation-service/internal/adapters/repository"
	"github.com/reservaespacios/reservation-service/internal/adapters/session"
	"github.com/reservaespacios/reservation-service/internal/config"
	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/services"
	"github.com/reservaespacios/reservation-service/internal/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("api exited with error", "error", err)
		os.Exit(1)
	}
}

func migrate() error {
	cfg, err := config.LoadMigrateConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := logging.Setup("reservation-api", cfg.Environment, cfg.LogLevel)

	db, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(db); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func run(args []string) error {
	if len(args) > 0 && args[0] == "migrate" {
		return migrate()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := logging.Setup("reservation-api", cfg.Environment, cfg.LogLevel)

	db, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(startupCtx).Err(); err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	logger.Info("connected to redis", "address", cfg.RedisAddress)

	notifier, closeNotifier, err := mail.NewTransport(cfg.Mail)
	if err != nil {
		return err
	}
	defer closeNotifier()

	location, err := cfg.Location()
	if err != nil {
		return err
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	spaceRepo := repository.NewSpaceRepository(db)
	organizationRepo := repository.NewOrganizationRepository(db)
	notificationLog := repository.NewNotificationLogRepository(db)
	revoker := session.NewRedisRevoker(redisClient)

	// Services
	dispatcher := services.NewNotificationDispatcher(notifier, notificationLog, logger, cfg.NotifyTimeout)
	generator := services.NewPasswordGenerator(nil)
	authService := services.NewAuthService(userRepo, revoker, cfg.JWTPrivateKey(), cfg.TokenTTL, logger)
	credentialService := services.NewCredentialService(userRepo, generator, dispatcher, logger)
	userService := services.NewUserService(userRepo, spaceRepo, notificationLog, generator, dispatcher, logger)
	reservationService := services.NewReservationService(
		reservationRepo,
		userRepo,
		spaceRepo,
		organizationRepo,
		location,
		domain.OverlapPolicy(cfg.OverlapPolicy),
		logger,
	)
	catalogService := services.NewCatalogService(spaceRepo, organizationRepo)

	router := handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthHandler(authService, credentialService, logger),
		Users:          handler.NewUserHandler(userService, credentialService, logger),
		Reservations:   handler.NewReservationHandler(reservationService, logger),
		Catalog:        handler.NewCatalogHandler(catalogService, logger),
		Health:         handler.NewHealthHandler(db, revoker, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(cfg.JWTPublicKey(), revoker, userRepo, logger),
		AllowedOrigins: cfg.AllowedOrigins,
		LoginRateLimit: cfg.LoginRateLimit,
		LoginRateBurst: cfg.LoginRateBurst,
		TrustProxy:     cfg.TrustProxy,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down server", "error", err)
	}

	// Emails already accepted for delivery still go out.
	dispatcher.Wait()
	logger.Info("shutdown complete")
	return nil
}
