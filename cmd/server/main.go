package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/payment"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/upstream"
	"storefront/internal/util"
	"storefront/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer("storefront", cfg.Observ.JaegerEndpoint, cfg.Observ.SampleRatio)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		migrateCancel()
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrateCancel()
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSettlements)
	defer producer.Close()
	eventPublisher := broker.NewEventPublisher(producer)

	upstreamClient := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logger.Named("upstream"))
	gateway := payment.NewClient(payment.Config{
		BaseURL:    cfg.Payment.BaseURL,
		APIKey:     cfg.Payment.APIKey,
		Currency:   cfg.Business.Currency,
		SuccessURL: cfg.Payment.SuccessURL,
		CancelURL:  cfg.Payment.CancelURL,
		Timeout:    cfg.Payment.Timeout,
	}, logger.Named("payment"))

	catalogService := service.NewCatalogService(upstreamClient, redisClient, cfg.Business.ProductsPerPage, cfg.Business.CatalogCacheTTL)
	cartService := service.NewCartService(upstreamClient, cfg.Business.SummaryConfig(), cfg.Business.CurrencyUnit)
	checkoutService := service.NewCheckoutService(upstreamClient, gateway, redisClient, redisClient, db, eventPublisher, service.CheckoutConfig{
		Summary:       cfg.Business.SummaryConfig(),
		Currency:      cfg.Business.CurrencyUnit,
		LockTTL:       cfg.Business.CheckoutLockTTL,
		CompletionTTL: cfg.Business.CompletionTTL,
	})
	orderService := service.NewOrderService(upstreamClient)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	paymentConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPayments, cfg.Kafka.ConsumerGroup)
	paymentWorker := worker.NewPaymentWorker(paymentConsumer, checkoutService)
	go func() {
		if err := paymentWorker.Start(workerCtx); err != nil {
			logger.Error("Payment worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set: settlements are keyed by bearer token and do not survive token rotation")
	}

	router := gin.New()
	handler := api.NewHandler(
		catalogService,
		cartService,
		checkoutService,
		orderService,
		api.NewAuthenticator(cfg.Auth.JWTSecret),
		map[string]api.Pinger{"postgres": db, "redis": redisClient},
	)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := paymentWorker.Stop(); err != nil {
		logger.Error("Error stopping payment worker", zap.Error(err))
	}

	logger.Info("Server exited")
}
