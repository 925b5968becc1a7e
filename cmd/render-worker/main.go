package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/mintmotion/mintmotion-backend/internal/orders"
	"github.com/mintmotion/mintmotion-backend/internal/paymentlog"
	"github.com/mintmotion/mintmotion-backend/internal/render"
	"github.com/mintmotion/mintmotion-backend/pkg/config"
	"github.com/mintmotion/mintmotion-backend/pkg/db"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
	"github.com/mintmotion/mintmotion-backend/pkg/migrate"
	"github.com/mintmotion/mintmotion-backend/pkg/outbox"
	"github.com/mintmotion/mintmotion-backend/pkg/outbox/idempotency"
	"github.com/mintmotion/mintmotion-backend/pkg/pubsub"
	"github.com/mintmotion/mintmotion-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "render-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "render-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	auditSvc, err := paymentlog.NewService(dbClient.DB(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment log service", err)
		os.Exit(1)
	}
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	ordersSvc, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, outboxSvc, auditSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	guard, err := idempotency.NewManager(redisClient, cfg.Outbox.ProcessedTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := render.NewConsumer(ordersSvc, guard, pubsubClient.RenderSubscription(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create render consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"subscription": cfg.PubSub.RenderSubscription,
	})
	logg.Info(ctx, "starting render worker")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "render worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "render worker shutting down gracefully")
}
