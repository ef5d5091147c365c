package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/nsu-it/helpdesk-service/internal/api/http"
	"github.com/nsu-it/helpdesk-service/internal/api/http/handlers"
	"github.com/nsu-it/helpdesk-service/internal/auth"
	"github.com/nsu-it/helpdesk-service/internal/config"
	"github.com/nsu-it/helpdesk-service/internal/events"
	"github.com/nsu-it/helpdesk-service/internal/observability"
	"github.com/nsu-it/helpdesk-service/internal/persistence"
	"github.com/nsu-it/helpdesk-service/internal/repository"
	"github.com/nsu-it/helpdesk-service/internal/service"
	"github.com/nsu-it/helpdesk-service/internal/worker"
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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	noteRepo := repository.NewTicketNoteRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		StaffRepo:  staffRepo,
		Tokens:     tokens,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		NoteRepo:    noteRepo,
		HistoryRepo: historyRepo,
		StaffRepo:   staffRepo,
		Dispatcher:  dispatcher,
	})
	statsService := service.NewStatsService(service.StatsDependencies{
		TicketRepo: ticketRepo,
		Cache:      redis.Client,
		CacheTTL:   cfg.SLA.StatsCacheTTL(),
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	slaMonitor := worker.NewSLAMonitor(worker.SLAMonitorDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Cache:      redis.Client,
		Metrics:    metrics,
		Logger:     logger,
		Interval:   cfg.SLA.MonitorInterval(),
		Cooldown:   cfg.SLA.AlertCooldown(),
	})
	go slaMonitor.Run(ctx)

	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo, staffRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(authService, staffRepo),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService),
		Stats:          handlers.NewStatsHandler(statsService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
