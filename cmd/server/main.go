package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"triagedesk/config"
	"triagedesk/internal/api"
	"triagedesk/internal/repository"
	"triagedesk/internal/service"
	"triagedesk/pkg/db"
	"triagedesk/pkg/logger"
	"triagedesk/pkg/mq"
	"triagedesk/pkg/outbox"
	redisclient "triagedesk/pkg/redis"
	"triagedesk/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Redis
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()
	deduper := util.NewDeduper(rdb, cfg.Import.DedupTTL, log)

	// Outbox + dispatcher. A dead broker is not fatal: events accumulate as
	// pending and the dispatcher drains them once connectivity returns.
	outboxRepo := outbox.NewRepository(dbConn)
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Warn("MQ unavailable, events stay queued in the outbox", zap.Error(err))
	} else {
		defer publisher.Close()
		dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)
		go dispatcher.Start(ctx)
	}

	// Repositories
	customerRepo := repository.NewCustomerRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn, outboxRepo)
	profileRepo := repository.NewProfileRepository(dbConn)
	assignmentRepo := repository.NewAssignmentRepository(dbConn, outboxRepo)
	cannedRepo := repository.NewCannedMessageRepository(dbConn)
	agentRepo := repository.NewAgentRepository(dbConn)

	// Services
	triageService := service.NewTriageService(customerRepo, messageRepo, profileRepo, deduper, log)
	assignmentService := service.NewAssignmentService(messageRepo, assignmentRepo, log)
	authService := service.NewAuthService(agentRepo, cfg.JWT.Secret)
	cannedService := service.NewCannedService(cannedRepo, rdb, log)

	// Handlers
	authHandler := api.NewAuthHandler(authService)
	messageHandler := api.NewMessageHandler(triageService, messageRepo)
	assignmentHandler := api.NewAssignmentHandler(assignmentService)
	customerHandler := api.NewCustomerHandler(triageService, customerRepo, profileRepo, messageRepo)
	cannedHandler := api.NewCannedHandler(cannedService)

	router := api.NewRouter(
		authHandler,
		messageHandler,
		assignmentHandler,
		customerHandler,
		cannedHandler,
		cfg.JWT.Secret,
	)

	log.Info("Starting triage API", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
