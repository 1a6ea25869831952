package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"triagedesk/config"
	"triagedesk/internal/mqhandler"
	"triagedesk/internal/repository"
	"triagedesk/internal/stream"
	"triagedesk/pkg/db"
	"triagedesk/pkg/logger"
	"triagedesk/pkg/mq"
	redisclient "triagedesk/pkg/redis"
	"triagedesk/pkg/util"
)

const dashboardSnapshotSize = 50

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting triage worker...")

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

	// Repositories
	triageLogRepo := repository.NewTriageLogRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn, nil)

	// Publisher for parking poison messages.
	dlqPublisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Warn("MQ publisher unavailable, poison messages will requeue", zap.Error(err))
	} else {
		defer dlqPublisher.Close()
	}

	// (1) Audit log consumer: one durable queue per routing key so each
	// event type can be drained and redelivered independently.
	logHandler := mqhandler.NewTriageLogHandler(triageLogRepo, deduper, log)
	routingKeys := []string{
		stream.RKMessageCreated,
		stream.RKMessageReplied,
		stream.RKAssignmentClaimed,
		stream.RKAssignmentReleased,
	}
	for _, key := range routingKeys {
		queue := "triage." + key + ".log.q"
		log.Info("Initializing audit consumer",
			zap.String("queue", queue),
			zap.String("routing_key", key),
		)
		consumer, err := mq.NewConsumer(cfg.MQ.URL, queue, key, log)
		if err != nil {
			log.Fatal("failed to init audit consumer",
				zap.String("routing_key", key),
				zap.Error(err),
			)
		}
		if dlqPublisher != nil {
			if _, err := consumer.WithDLQ(dlqPublisher); err != nil {
				log.Fatal("failed to set up DLQ",
					zap.String("routing_key", key),
					zap.Error(err),
				)
			}
		}
		consumer.SetHandler(logHandler.Handle)
		defer consumer.Close()
		go func(key string) {
			if err := consumer.StartConsuming(); err != nil {
				log.Fatal("audit consumer failed",
					zap.String("routing_key", key),
					zap.Error(err),
				)
			}
		}(key)
	}

	// (2) Dashboard snapshot refresher. Broker-backed subscription when the
	// MQ is reachable; otherwise fall back to polling the dashboard view.
	var source stream.Source
	subscriber, err := stream.NewSubscriber(cfg.MQ.URL, "triage.dashboard.refresh.q", log)
	if err != nil {
		log.Warn("Broker unavailable, falling back to dashboard polling",
			zap.Duration("poll_interval", cfg.Stream.PollInterval),
			zap.Error(err),
		)
		source = stream.NewPoller(messageRepo, cfg.Stream.PollInterval, dashboardSnapshotSize, log)
	} else {
		source = subscriber
	}

	go func() {
		if err := source.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("Event source stopped", zap.Error(err))
		}
	}()

	refresher := stream.NewCacheRefresher(source, messageRepo, rdb, dashboardSnapshotSize, log)
	go func() {
		if err := refresher.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("Snapshot refresher stopped", zap.Error(err))
		}
	}()

	log.Info("All consumers started, worker is ready")
	<-ctx.Done()
	log.Info("Shutting down worker")
}
