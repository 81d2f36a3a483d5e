// Package config loads the settings shared by the stock service binaries.
// Values come from built-in defaults, then an optional YAML file named by
// CONFIG_FILE, then environment variables (a local .env file is read first).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StorageMemory  = "memory"
	StorageMongoDB = "mongodb"
)

// Config holds every setting the binaries read
type Config struct {
	ServerAddr     string `yaml:"serverAddr"`
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"logLevel"`
	StorageBackend string `yaml:"storageBackend"`
	TxMaxAttempts  int    `yaml:"txMaxAttempts"`

	MongoDB  MongoDBConfig  `yaml:"mongodb"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Temporal TemporalConfig `yaml:"temporal"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Outbox   OutboxConfig   `yaml:"outbox"`
}

// MongoDBConfig holds the MongoDB connection settings
type MongoDBConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// KafkaConfig holds the broker list
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

// TemporalConfig holds the Temporal frontend address. An empty host
// disables workflow routes in the API.
type TemporalConfig struct {
	Host      string `yaml:"host"`
	Namespace string `yaml:"namespace"`
}

// TracingConfig holds the OTLP exporter settings
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// OutboxConfig tunes the outbox relay
type OutboxConfig struct {
	PollInterval time.Duration `yaml:"pollInterval"`
	BatchSize    int           `yaml:"batchSize"`
	Retention    time.Duration `yaml:"retention"`
}

// Defaults returns the settings used when nothing overrides them
func Defaults() *Config {
	return &Config{
		ServerAddr:     ":8020",
		Environment:    "development",
		LogLevel:       "info",
		StorageBackend: StorageMongoDB,
		TxMaxAttempts:  5,
		MongoDB: MongoDBConfig{
			URI:      "mongodb://localhost:27017/?replicaSet=rs0",
			Database: "stock_db",
		},
		Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}},
		Temporal: TemporalConfig{
			Host:      "localhost:7233",
			Namespace: "default",
		},
		Tracing: TracingConfig{Endpoint: "localhost:4317"},
		Outbox: OutboxConfig{
			PollInterval: time.Second,
			BatchSize:    100,
			Retention:    7 * 24 * time.Hour,
		},
	}
}

// Load builds the configuration from defaults, CONFIG_FILE and the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.ServerAddr = getEnv("SERVER_ADDR", c.ServerAddr)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.StorageBackend = getEnv("STORAGE_BACKEND", c.StorageBackend)
	c.MongoDB.URI = getEnv("MONGODB_URI", c.MongoDB.URI)
	c.MongoDB.Database = getEnv("MONGODB_DATABASE", c.MongoDB.Database)
	c.Temporal.Host = getEnv("TEMPORAL_HOST", c.Temporal.Host)
	c.Temporal.Namespace = getEnv("TEMPORAL_NAMESPACE", c.Temporal.Namespace)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}

	var err error
	if c.Tracing.Enabled, err = getBool("TRACING_ENABLED", c.Tracing.Enabled); err != nil {
		return err
	}
	if c.TxMaxAttempts, err = getInt("TX_MAX_ATTEMPTS", c.TxMaxAttempts); err != nil {
		return err
	}
	if c.Outbox.BatchSize, err = getInt("OUTBOX_BATCH_SIZE", c.Outbox.BatchSize); err != nil {
		return err
	}
	if c.Outbox.PollInterval, err = getDuration("OUTBOX_POLL_INTERVAL", c.Outbox.PollInterval); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings no binary can start with
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageMongoDB:
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.TxMaxAttempts < 1 {
		return fmt.Errorf("TX_MAX_ATTEMPTS must be at least 1, got %d", c.TxMaxAttempts)
	}
	if c.Outbox.BatchSize < 1 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be at least 1, got %d", c.Outbox.BatchSize)
	}
	if c.Outbox.PollInterval <= 0 {
		return fmt.Errorf("OUTBOX_POLL_INTERVAL must be positive, got %s", c.Outbox.PollInterval)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
