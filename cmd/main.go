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

	"github.com/Dosada05/chess-league/config"
	"github.com/Dosada05/chess-league/db"
	"github.com/Dosada05/chess-league/handlers"
	appMiddleware "github.com/Dosada05/chess-league/middleware"
	"github.com/Dosada05/chess-league/repositories"
	api "github.com/Dosada05/chess-league/routes"
	"github.com/Dosada05/chess-league/services"
	"github.com/Dosada05/chess-league/standings"
	"github.com/Dosada05/chess-league/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Хранилище логотипов опционально: без R2-конфигурации загрузка
	// просто отключена.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("object storage is not configured, logo uploads disabled")
	}

	wsHub := standings.NewHub()
	go wsHub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	swapRepo := repositories.NewPostgresSwapRepository(dbConn)
	logger.Info("repositories initialized")

	locks := services.NewMatchLocks()

	authService := services.NewAuthService(userRepo)
	standingsService := services.NewStandingsService(tournamentRepo, teamRepo, playerRepo, matchRepo, gameRepo, logger)
	resultService := services.NewResultService(dbConn, matchRepo, gameRepo, locks, wsHub, logger)
	swapService := services.NewSwapService(
		dbConn, matchRepo, gameRepo, playerRepo, swapRepo, locks, wsHub,
		services.SwapConfig{ClearResultOnSwap: cfg.ClearResultOnSwap},
		logger,
	)
	roundService := services.NewRoundService(tournamentRepo, matchRepo, gameRepo, standingsService, logger)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, teamRepo, playerRepo, matchRepo, gameRepo, logger)
	teamService := services.NewTeamService(dbConn, teamRepo, playerRepo, tournamentRepo, uploader, logger)
	playerService := services.NewPlayerService(dbConn, playerRepo, teamRepo, gameRepo, logger)
	logger.Info("services initialized")

	if err := authService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("failed to ensure admin account", slog.Any("error", err))
		os.Exit(1)
	}

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, standingsService, roundService)
	matchHandler := handlers.NewMatchHandler(resultService, roundService)
	swapHandler := handlers.NewSwapHandler(swapService)
	teamHandler := handlers.NewTeamHandler(teamService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	authenticator := appMiddleware.NewAuthenticator(cfg.JWTSecretKey)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		authHandler,
		tournamentHandler,
		matchHandler,
		swapHandler,
		teamHandler,
		playerHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
