package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloud-wave-best-zizon/basket-service/internal/events"
	"github.com/cloud-wave-best-zizon/basket-service/internal/handler"
	"github.com/cloud-wave-best-zizon/basket-service/internal/locker"
	"github.com/cloud-wave-best-zizon/basket-service/internal/repository"
	"github.com/cloud-wave-best-zizon/basket-service/internal/service"
	"github.com/cloud-wave-best-zizon/basket-service/pkg/config"
	pkglogger "github.com/cloud-wave-best-zizon/basket-service/pkg/logger"
	"github.com/cloud-wave-best-zizon/basket-service/pkg/middleware"
	pkgtls "github.com/cloud-wave-best-zizon/basket-service/pkg/tls"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Config 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Logger 초기화
	logger, err := pkglogger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	productRepo, dealRepo := newCatalog(ctx, cfg, logger)
	basketRepo := newBasketStore(ctx, cfg, logger)

	var lk locker.Locker = locker.NewGlobal()
	if cfg.LockStrategy == config.LockKeyed {
		lk = locker.NewKeyed()
	}

	// Kafka Producer 초기화
	var publisher service.EventPublisher = service.NopPublisher
	var producer *events.KafkaProducer
	if cfg.KafkaEnabled() {
		producer = events.NewKafkaProducer(cfg.KafkaBrokers, cfg.BasketEventsTopic, logger)
		publisher = producer
	} else {
		logger.Info("Kafka is disabled, basket events are not published")
	}

	// Service, Handler 초기화
	ledger := service.NewStockLedger(productRepo, cfg.ReserveMaxAttempts, cfg.ReserveBackoff)
	basketService := service.NewBasketService(productRepo, basketRepo, ledger, lk, publisher, logger)
	receiptService := service.NewReceiptService(basketRepo, service.NewDiscountEngine(dealRepo), logger)
	adminService := service.NewAdminService(productRepo, dealRepo, ledger, lk, logger)

	basketHandler := handler.NewBasketHandler(basketService, receiptService, logger)
	adminHandler := handler.NewAdminHandler(adminService, logger)

	// Kafka Consumer 시작
	var consumer *events.KafkaConsumer
	if cfg.KafkaEnabled() {
		consumer = events.NewKafkaConsumer(cfg.KafkaBrokers, cfg.InventoryEventsTopic, cfg.InventoryDeadLetterTopic,
			cfg.KafkaGroupID, adminService, logger)
		consumer.Start(ctx)
	}

	// Gin Router 설정
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	// Routes
	v1 := router.Group("/api/v1")
	{
		basketHandler.Register(v1)
		adminHandler.Register(v1)
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})
	}

	// Server 시작
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	var tlsSource *pkgtls.Source
	if cfg.TLSEnabled {
		tlsConfig, source, err := pkgtls.LoadServerConfig(ctx, cfg.SpireSocketPath, logger)
		if err != nil {
			logger.Fatal("Failed to load TLS config", zap.Error(err))
		}
		srv.TLSConfig = tlsConfig
		tlsSource = source
		go tlsSource.Watch(ctx, 30*time.Second)
	}

	go func() {
		logger.Info("Starting server",
			zap.String("port", cfg.Port),
			zap.Bool("tls", cfg.TLSEnabled),
			zap.String("lock_strategy", cfg.LockStrategy))

		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	stop()
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.Error("Failed to stop Kafka consumer", zap.Error(err))
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("Failed to close Kafka producer", zap.Error(err))
		}
	}
	if err := tlsSource.Close(); err != nil {
		logger.Error("Failed to close X509 source", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.ProductRepository, repository.DealRepository) {
	if cfg.StoreBackend != config.BackendDynamoDB {
		logger.Info("Using in-memory catalog")
		return repository.NewMemoryProductRepository(), repository.NewMemoryDealRepository()
	}

	// DynamoDB 클라이언트 초기화
	client, err := repository.NewDynamoDBClient(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create DynamoDB client", zap.Error(err))
	}

	logger.Info("Using DynamoDB catalog",
		zap.String("product_table", cfg.ProductTableName),
		zap.String("deal_table", cfg.DealTableName))

	return repository.NewDynamoProductRepository(client, cfg.ProductTableName, cfg.CounterTableName),
		repository.NewDynamoDealRepository(client, cfg.DealTableName, cfg.DealProductIndex, cfg.CounterTableName)
}

func newBasketStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) repository.BasketRepository {
	if cfg.BasketBackend != config.BackendRedis {
		logger.Info("Using in-memory basket store")
		return repository.NewMemoryBasketRepository()
	}

	client, err := repository.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	logger.Info("Using Redis basket store", zap.String("addr", cfg.RedisAddr))
	return repository.NewRedisBasketRepository(client, cfg.BasketTTL)
}
