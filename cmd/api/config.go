package main

import (
	"time"

	"github.com/wms-platform/stock-service/internal/config"
	"github.com/wms-platform/stock-service/pkg/kafka"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/mongodb"
	"github.com/wms-platform/stock-service/pkg/outbox"
	"github.com/wms-platform/stock-service/pkg/temporal"
	"github.com/wms-platform/stock-service/pkg/tracing"
)

// Config holds application configuration
type Config struct {
	ServerAddr     string
	StorageBackend string
	TxMaxAttempts  int
	LogLevel       logging.LogLevel
	MongoDB        *mongodb.Config
	Kafka          *kafka.Config
	Outbox         *outbox.PublisherConfig
	Temporal       *temporal.Config
	Tracing        *tracing.Config
}

func loadConfig() (*Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	tracingCfg := tracing.DefaultConfig(serviceName)
	tracingCfg.Enabled = cfg.Tracing.Enabled
	tracingCfg.OTLPEndpoint = cfg.Tracing.Endpoint
	tracingCfg.Environment = cfg.Environment

	kafkaCfg := kafka.DefaultConfig()
	kafkaCfg.Brokers = cfg.Kafka.Brokers
	kafkaCfg.ClientID = serviceName

	var temporalCfg *temporal.Config
	if cfg.Temporal.Host != "" {
		temporalCfg = &temporal.Config{
			HostPort:  cfg.Temporal.Host,
			Namespace: cfg.Temporal.Namespace,
			Identity:  serviceName,
		}
	}

	return &Config{
		ServerAddr:     cfg.ServerAddr,
		StorageBackend: cfg.StorageBackend,
		TxMaxAttempts:  cfg.TxMaxAttempts,
		LogLevel:       logging.ParseLevel(cfg.LogLevel),
		MongoDB: &mongodb.Config{
			URI:            cfg.MongoDB.URI,
			Database:       cfg.MongoDB.Database,
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: kafkaCfg,
		Outbox: &outbox.PublisherConfig{
			PollInterval: cfg.Outbox.PollInterval,
			BatchSize:    cfg.Outbox.BatchSize,
			Retention:    cfg.Outbox.Retention,
		},
		Temporal: temporalCfg,
		Tracing:  tracingCfg,
	}, nil
}
