package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mintmotion/mintmotion-backend/api/routes"
	"github.com/mintmotion/mintmotion-backend/internal/cart"
	"github.com/mintmotion/mintmotion-backend/internal/catalog"
	"github.com/mintmotion/mintmotion-backend/internal/checkout"
	"github.com/mintmotion/mintmotion-backend/internal/networks"
	"github.com/mintmotion/mintmotion-backend/internal/orders"
	"github.com/mintmotion/mintmotion-backend/internal/paymentlog"
	"github.com/mintmotion/mintmotion-backend/internal/pricing"
	"github.com/mintmotion/mintmotion-backend/internal/users"
	"github.com/mintmotion/mintmotion-backend/pkg/chain"
	"github.com/mintmotion/mintmotion-backend/pkg/config"
	"github.com/mintmotion/mintmotion-backend/pkg/db"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
	"github.com/mintmotion/mintmotion-backend/pkg/metrics"
	"github.com/mintmotion/mintmotion-backend/pkg/migrate"
	"github.com/mintmotion/mintmotion-backend/pkg/oracle"
	"github.com/mintmotion/mintmotion-backend/pkg/outbox"
	"github.com/mintmotion/mintmotion-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	oracleClient, err := oracle.NewClient(cfg.Oracle.BaseURL, oracle.WithAPIKey(cfg.Oracle.APIKey))
	if err != nil {
		logg.Error(context.Background(), "failed to create oracle client", err)
		os.Exit(1)
	}

	chainClient, err := chain.New(context.Background(), cfg.Chain)
	if err != nil {
		logg.Error(context.Background(), "failed to connect to chain rpc", err)
		os.Exit(1)
	}
	defer chainClient.Close()

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	usersRepo, err := users.NewRepository(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create users repository", err)
		os.Exit(1)
	}
	catalogRepo := catalog.NewRepository(dbClient.DB())
	networksRepo := networks.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	auditSvc, err := paymentlog.NewService(dbClient.DB(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment log service", err)
		os.Exit(1)
	}

	cartStore, err := cart.NewStore(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}
	cartSvc, err := cart.NewService(cartStore, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	pricingSvc, err := pricing.NewService(oracleClient, redisClient, cfg.Oracle.CacheTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	networksSvc, err := networks.NewService(networksRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create networks service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(ordersRepo, dbClient, outboxSvc, auditSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutSvc, err := checkout.NewService(
		cartSvc,
		pricingSvc,
		networksSvc,
		chainClient,
		ordersSvc,
		redisClient,
		auditSvc,
		checkoutMetrics,
		cfg.Chain.PaymentGuardTTL,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Cfg:         cfg,
			Logg:        logg,
			Redis:       redisClient,
			DBPinger:    dbClient,
			ChainPinger: chainClient,
			Registry:    registry,
			Users:       usersRepo,
			Catalog:     catalogRepo,
			CartSvc:     cartSvc,
			PricingSvc:  pricingSvc,
			NetworksSvc: networksSvc,
			CheckoutSvc: checkoutSvc,
			OrdersSvc:   ordersSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
