package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/wms-platform/stock-service/internal/activities"
	"github.com/wms-platform/stock-service/internal/application"
	"github.com/wms-platform/stock-service/internal/config"
	mongoRepo "github.com/wms-platform/stock-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/stock-service/internal/workflows"
	"github.com/wms-platform/stock-service/pkg/cloudevents"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/metrics"
	"github.com/wms-platform/stock-service/pkg/mongodb"
	"github.com/wms-platform/stock-service/pkg/temporal"
	"github.com/wms-platform/stock-service/pkg/tracing"
)

const serviceName = "stock-worker"

func main() {
	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()

	logger.Info("Starting stock-service worker")

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	ctx := context.Background()

	tracerProvider, err := tracing.Initialize(ctx, cfg.Tracing)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	// Initialize MongoDB
	cfg.MongoDB.Monitor = mongodb.NewCommandMonitor(m)
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

	breaker := mongoRepo.NewCircuitBreaker(m, logger.Logger)
	store := mongoRepo.NewStore(mongoClient, breaker, cloudevents.NewEventFactory(cloudevents.SourceStockService), 0)

	services := application.NewServices(application.Repositories{
		UnitOfWork:     store,
		Inventory:      store.Inventory(),
		PurchaseOrders: store.PurchaseOrders(),
		SalesOrders:    store.SalesOrders(),
		Transfers:      store.Transfers(),
		Adjustments:    store.Adjustments(),
		Movements:      store.Movements(),
		Requests:       store.ProcessedRequests(),
	}, application.DefaultTxRetryConfig(cfg.TxMaxAttempts), m, logger)

	// Initialize Temporal client
	temporalClient, err := temporal.NewClient(ctx, cfg.Temporal, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to create Temporal client")
		os.Exit(1)
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", "hostPort", cfg.Temporal.HostPort)

	transferActivities := activities.NewTransferActivities(services.Transfers, m, logger)

	// Create worker
	workerOpts := temporal.DefaultWorkerOptions(temporal.TaskQueues.StockTransfers)
	workerOpts.Interceptors = append(workerOpts.Interceptors, temporal.NewWorkflowMetricsInterceptor(m))
	w := temporalClient.NewWorker(workerOpts)

	// Register workflow
	w.RegisterWorkflow(workflows.StockTransferWorkflow)
	logger.Info("Registered workflow", "workflow", temporal.WorkflowNames.StockTransfer)

	// Register activities under the names the workflow schedules
	register := func(name string, fn interface{}) {
		w.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
	register(workflows.ActivityApproveTransfer, transferActivities.ApproveTransfer)
	register(workflows.ActivityDispatchTransfer, transferActivities.DispatchTransfer)
	register(workflows.ActivityCompleteTransfer, transferActivities.CompleteTransfer)
	register(workflows.ActivityCancelTransfer, transferActivities.CancelTransfer)
	logger.Info("Registered activities")

	// Start worker in background
	go func() {
		if err := w.Run(nil); err != nil {
			logger.WithError(err).Error("Worker failed")
			os.Exit(1)
		}
	}()
	logger.Info("Worker started", "taskQueue", temporal.TaskQueues.StockTransfers)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down worker...")

	w.Stop()
	logger.Info("Worker stopped")
}

// Config holds worker configuration
type Config struct {
	TxMaxAttempts int
	MongoDB       *mongodb.Config
	Temporal      *temporal.Config
	Tracing       *tracing.Config
}

func loadConfig() (*Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	tracingCfg := tracing.DefaultConfig(serviceName)
	tracingCfg.Enabled = cfg.Tracing.Enabled
	tracingCfg.OTLPEndpoint = cfg.Tracing.Endpoint

	return &Config{
		TxMaxAttempts: cfg.TxMaxAttempts,
		Tracing:       tracingCfg,
		MongoDB: &mongodb.Config{
			URI:            cfg.MongoDB.URI,
			Database:       cfg.MongoDB.Database,
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    50,
			MinPoolSize:    5,
		},
		Temporal: &temporal.Config{
			HostPort:  cfg.Temporal.Host,
			Namespace: cfg.Temporal.Namespace,
			Identity:  serviceName,
		},
	}, nil
}
