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

	"procurement-service/config"
	"procurement-service/internal/agent"
	"procurement-service/internal/api"
	"procurement-service/internal/broker"
	"procurement-service/internal/redisclient"
	"procurement-service/internal/service"
	"procurement-service/internal/store"
	"procurement-service/internal/util"
	"procurement-service/internal/vendor"
	"procurement-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting procurement service", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer(cfg.Observ.JaegerEndpoint, cfg.Observ.SamplingRatio)
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

	if err := db.Migrate(context.Background()); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Vendors.SearchCacheTTL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicProcurement)
	defer producer.Close()
	eventPublisher := broker.NewEventPublisher(producer)

	vendors, err := vendor.NewRegistry(cfg.Vendors)
	if err != nil {
		logger.Fatal("Failed to build vendor registry", zap.Error(err))
	}
	logger.Info("Vendors registered", zap.Strings("vendors", cfg.Vendors.Enabled))

	customerService := service.NewCustomerService(db)
	orderService := service.NewOrderService(db)
	procurementService := service.NewProcurementService(
		db, eventPublisher, redisClient, vendors, cfg.Policy, cfg.Vendors.SearchTimeout,
	)
	procurementService.UseSearchCache(redisClient)
	procurementService.UseIdempotency(redisClient)
	if cfg.Server.Env == "production" {
		procurementService.UseExecutor(agent.NewVendorExecutor(vendors))
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicProcurement, cfg.Kafka.ConsumerGroup)
	procurementWorker := worker.NewProcurementWorker(consumer, procurementService)
	go func() {
		if err := procurementWorker.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Procurement worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(customerService, orderService, procurementService)
	handler.AddReadinessCheck("database", db.Ping)
	handler.AddReadinessCheck("redis", redisClient.Ping)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
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
	if err := procurementWorker.Stop(); err != nil {
		logger.Error("Error stopping worker", zap.Error(err))
	}

	logger.Info("Server exited")
}
