package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/ivovalerieviliev/help-desk-sub001/internal/api/http"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/api/http/handlers"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/access"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/auth"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/config"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/events"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/observability"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/persistence"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/queuefilter"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/repository"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/service"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/sla"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	var publisher events.Publisher
	if cfg.Broker.Enabled() {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Exchange, logger)
		if err != nil {
			logger.Warn("event broker unavailable; forwarding disabled", zap.Error(err))
		} else {
			defer amqpPublisher.Close()
			publisher = amqpPublisher
		}
	}
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(dispatcher, notifications, publisher, logger)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	slaRepo := repository.NewSLARepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	orgRepo := repository.NewOrganizationRepository(pool)
	filterRepo := repository.NewQueueFilterRepository(pool)
	handoverRepo := repository.NewHandoverRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	gate := access.NewGate(orgRepo)
	translator := queuefilter.NewTranslator(orgRepo)
	engine := sla.NewEngine(cfg.Helpdesk)
	denylist := auth.NewRedisDenylist(redis.Client)

	orgService := service.NewOrganizationService(service.OrganizationDependencies{
		OrganizationRepo: orgRepo,
		UserRepo:         userRepo,
		Gate:             gate,
		Logger:           logger,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		Joiner:   orgService,
		Denylist: denylist,
		Logger:   logger,
	})
	userService := service.NewUserService(userRepo, cfg.Auth.BcryptCost)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		SLARepo:     slaRepo,
		UserRepo:    userRepo,
		Gate:        gate,
		Translator:  translator,
		Engine:      engine,
		Helpdesk:    cfg.Helpdesk,
		Dispatcher:  dispatcher,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		SLARepo:     slaRepo,
		Gate:        gate,
		Dispatcher:  dispatcher,
	})
	assignmentService := service.NewAssignmentService(ticketService, userRepo)
	filterService := service.NewQueueFilterService(service.QueueFilterDependencies{
		FilterRepo:    filterRepo,
		Gate:          gate,
		Translator:    translator,
		TicketService: ticketService,
	})
	handoverService := service.NewHandoverService(service.HandoverDependencies{
		HandoverRepo: handoverRepo,
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		Dispatcher:   dispatcher,
	})
	analyticsService := service.NewAnalyticsService(analyticsRepo, cfg.Helpdesk, nil)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, denylist)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	health := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
		handlers.Dependency{Name: "postgres", Pinger: pg},
		handlers.Dependency{Name: "redis", Pinger: redis},
	)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         health,
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Tickets:        handlers.NewTicketsHandler(ticketService, commentService, assignmentService),
		Organizations:  handlers.NewOrganizationsHandler(orgService),
		QueueFilters:   handlers.NewQueueFiltersHandler(filterService),
		Handovers:      handlers.NewHandoversHandler(handoverService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
