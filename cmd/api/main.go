package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/climcare/repair-service/internal/api/http"
	"github.com/climcare/repair-service/internal/api/http/handlers"
	"github.com/climcare/repair-service/internal/auth"
	"github.com/climcare/repair-service/internal/config"
	"github.com/climcare/repair-service/internal/events"
	"github.com/climcare/repair-service/internal/observability"
	"github.com/climcare/repair-service/internal/persistence"
	"github.com/climcare/repair-service/internal/repository"
	"github.com/climcare/repair-service/internal/service"
	"github.com/climcare/repair-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg.Auth, userRepo)
	userService := service.NewUserService(cfg.Auth, userRepo)
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: requestRepo,
		UserRepo:    userRepo,
		CommentRepo: commentRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
	})
	reportService := service.NewReportService(requestRepo)
	notificationService := service.NewNotificationService(notificationRepo, dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:            handlers.NewUsersHandler(authService, userService),
		Requests:         handlers.NewRequestsHandler(requestService),
		Stats:            handlers.NewStatsHandler(reportService),
		Notifications:    handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware:   authMiddleware,
		RedisClient:      redis.Client,
		LoginAttemptsMin: cfg.Auth.LoginAttemptsPerMin,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
