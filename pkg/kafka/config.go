package kafka

import "time"

// Config holds Kafka producer configuration
type Config struct {
	Brokers  []string
	ClientID string

	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:      []string{"localhost:9092"},
		ClientID:     "stock-service",
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,
		WriteTimeout: 10 * time.Second,
	}
}

// Topics contains the Kafka topics the stock service writes to
var Topics = struct {
	StockEvents     string
	InventoryEvents string
}{
	StockEvents:     "wms.stock.events",
	InventoryEvents: "wms.inventory.events",
}

// TopicConfig holds configuration for a Kafka topic
type TopicConfig struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	RetentionMs       int64
}

// DefaultTopicConfigs returns default configurations for stock topics
func DefaultTopicConfigs() []TopicConfig {
	const week = 7 * 24 * 60 * 60 * 1000
	return []TopicConfig{
		{Name: Topics.StockEvents, Partitions: 6, ReplicationFactor: 3, RetentionMs: week},
		{Name: Topics.InventoryEvents, Partitions: 6, ReplicationFactor: 3, RetentionMs: week},
	}
}
