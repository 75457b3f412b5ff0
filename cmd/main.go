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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/MarioKartCentral/registry/config"
	"github.com/MarioKartCentral/registry/db"
	"github.com/MarioKartCentral/registry/handlers"
	"github.com/MarioKartCentral/registry/notifications"
	"github.com/MarioKartCentral/registry/repositories"
	api "github.com/MarioKartCentral/registry/routes"
	"github.com/MarioKartCentral/registry/services"
	"github.com/MarioKartCentral/registry/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
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

	// Миграции
	if err := db.Migrate(dbConn); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// Инициализация blob-хранилища (Cloudflare R2); без него работаем,
	// просто описания турниров недоступны.
	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
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
	}

	// WebSocket-хаб уведомлений
	wsHub := notifications.NewHub(logger)
	go wsHub.Run()

	// Репозитории
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	rosterRepo := repositories.NewPostgresRosterRepository(dbConn)
	memberRepo := repositories.NewPostgresTeamMemberRepository(dbConn)
	transferRepo := repositories.NewPostgresTransferRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	regRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	requestRepo := repositories.NewPostgresEditRequestRepository(dbConn)
	roleRepo := repositories.NewPostgresRoleRepository(dbConn)
	logger.Info("repositories initialized")

	// Сервисы
	txr := services.NewSQLTxRunner(dbConn)
	notifier := services.NewHubNotificationSink(wsHub, logger)
	identity := services.NewFriendCodeIdentityStore(playerRepo)
	consistency := services.NewConsistencyService(regRepo, memberRepo, logger)

	authService := services.NewAuthService(userRepo, []byte(cfg.JWTSecretKey))
	playerService := services.NewPlayerService(txr, playerRepo, userRepo)
	teamService := services.NewTeamService(txr, teamRepo, rosterRepo, memberRepo, playerRepo, identity)
	rosterService := services.NewRosterService(txr, rosterRepo, teamRepo, memberRepo, transferRepo, playerRepo, identity, consistency, notifier)
	transferService := services.NewTransferService(txr, transferRepo, rosterRepo, memberRepo, playerRepo, identity, consistency, notifier, logger)
	tournamentService := services.NewTournamentService(tournamentRepo, regRepo, uploader, logger)
	registrationService := services.NewRegistrationService(txr, regRepo, tournamentRepo, rosterRepo, memberRepo, playerRepo, consistency, notifier, logger)
	approvalService := services.NewApprovalService(txr, requestRepo, teamRepo, rosterRepo, notifier, logger)
	permissionService := services.NewPermissionService(roleRepo)
	logger.Info("services initialized")

	// Планировщик фоновых задач
	scheduler, err := services.NewScheduler(tournamentRepo, transferRepo, logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			logger.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()
	logger.Info("scheduler started")

	// HTTP-обработчики
	authHandler := handlers.NewAuthHandler(authService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	teamHandler := handlers.NewTeamHandler(teamService, rosterService)
	transferHandler := handlers.NewTransferHandler(transferService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	approvalHandler := handlers.NewApprovalHandler(approvalService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		[]byte(cfg.JWTSecretKey),
		permissionService,
		authHandler,
		playerHandler,
		teamHandler,
		transferHandler,
		tournamentHandler,
		registrationHandler,
		approvalHandler,
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
	}
	logger.Info("application exited")
}
