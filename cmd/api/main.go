package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/wms-platform/stock-service/internal/application"
	"github.com/wms-platform/stock-service/internal/config"
	"github.com/wms-platform/stock-service/internal/infrastructure/memory"
	mongoRepo "github.com/wms-platform/stock-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/stock-service/pkg/cloudevents"
	"github.com/wms-platform/stock-service/pkg/kafka"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/metrics"
	"github.com/wms-platform/stock-service/pkg/mongodb"
	"github.com/wms-platform/stock-service/pkg/outbox"
	"github.com/wms-platform/stock-service/pkg/resilience"
	"github.com/wms-platform/stock-service/pkg/temporal"
	"github.com/wms-platform/stock-service/pkg/tracing"
)

const serviceName = "stock-service"

func main() {
	// Setup logger
	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()

	logger.Info("Starting stock-service API")

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = cfg.LogLevel
	logger = logging.New(logConfig)
	logger.SetDefault()

	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracerProvider, err := tracing.Initialize(ctx, cfg.Tracing)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", cfg.Tracing.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	retry := application.DefaultTxRetryConfig(cfg.TxMaxAttempts)

	var (
		services  *application.Services
		readiness func(*gin.Context) error
	)

	switch cfg.StorageBackend {
	case config.StorageMemory:
		store := memory.NewStore()
		services = application.NewServices(memoryRepositories(store), retry, m, logger)
		readiness = func(*gin.Context) error { return nil }
		logger.Warn("Using in-memory storage, nothing is persisted and no events are published")

	default:
		// Initialize MongoDB with command monitoring
		cfg.MongoDB.Monitor = mongodb.NewCommandMonitor(m)
		mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to MongoDB")
			os.Exit(1)
		}
		defer mongoClient.Close(ctx)
		logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

		mongoBreaker := mongoRepo.NewCircuitBreaker(m, logger.Logger)
		kafkaBreakerConfig := resilience.DefaultCircuitBreakerConfig("kafka")
		kafkaBreakerConfig.OnStateChange = func(name string, to gobreaker.State) {
			m.SetCircuitBreakerState(name, int(to))
		}
		kafkaBreaker := resilience.NewCircuitBreaker(kafkaBreakerConfig, logger.Logger)

		// Initialize Kafka producer with instrumentation
		kafkaProducer := kafka.NewProducer(cfg.Kafka)
		defer kafkaProducer.Close()
		instrumentedProducer := kafka.NewInstrumentedProducer(kafkaProducer, kafkaBreaker, m, logger)
		logger.Info("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)

		// Initialize CloudEvents factory
		eventFactory := cloudevents.NewEventFactory(cloudevents.SourceStockService)

		store := mongoRepo.NewStore(mongoClient, mongoBreaker, eventFactory, 0)
		if err := store.EnsureIndexes(ctx); err != nil {
			logger.WithError(err).Warn("Failed to ensure indexes")
		}

		// Initialize and start outbox publisher
		outboxPublisher := outbox.NewPublisher(store.Outbox(), instrumentedProducer, logger, m, cfg.Outbox)
		if err := outboxPublisher.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start outbox publisher")
			os.Exit(1)
		}
		defer outboxPublisher.Stop()
		logger.Info("Outbox publisher started")

		services = application.NewServices(mongoRepositories(store), retry, m, logger)
		readiness = func(c *gin.Context) error { return store.HealthCheck(c.Request.Context()) }
	}

	// Temporal is optional; without it the transfer workflow routes are not served
	var workflows transferWorkflowClient
	if cfg.Temporal != nil {
		temporalClient, err := temporal.NewClient(ctx, cfg.Temporal, logger)
		if err != nil {
			logger.WithError(err).Warn("Temporal unavailable, transfer workflows disabled")
		} else {
			defer temporalClient.Close()
			workflows = temporalClient
			logger.Info("Connected to Temporal", "hostPort", cfg.Temporal.HostPort)
		}
	}

	router := newRouter(routerDeps{
		services:  services,
		workflows: workflows,
		readiness: readiness,
		metrics:   m,
		logger:    logger,
	})

	// Start server
	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", cfg.ServerAddr, "storage", cfg.StorageBackend)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

func memoryRepositories(store *memory.Store) application.Repositories {
	return application.Repositories{
		UnitOfWork:     store,
		Inventory:      store.Inventory(),
		PurchaseOrders: store.PurchaseOrders(),
		SalesOrders:    store.SalesOrders(),
		Transfers:      store.Transfers(),
		Adjustments:    store.Adjustments(),
		Movements:      store.Movements(),
		Requests:       store.ProcessedRequests(),
	}
}

func mongoRepositories(store *mongoRepo.Store) application.Repositories {
	return application.Repositories{
		UnitOfWork:     store,
		Inventory:      store.Inventory(),
		PurchaseOrders: store.PurchaseOrders(),
		SalesOrders:    store.SalesOrders(),
		Transfers:      store.Transfers(),
		Adjustments:    store.Adjustments(),
		Movements:      store.Movements(),
		Requests:       store.ProcessedRequests(),
	}
}
