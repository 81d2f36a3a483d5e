package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing, which keeps unit tests free of registry setup.
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	// Stock engine
	StockOperations        *prometheus.CounterVec
	StockOperationDuration *prometheus.HistogramVec
	InventoryConflicts     *prometheus.CounterVec
	InventoryUnitsMoved    *prometheus.CounterVec
	IdempotentReplays      *prometheus.CounterVec

	// Outbox
	OutboxPending   prometheus.Gauge
	OutboxPublished *prometheus.CounterVec
	OutboxRetries   prometheus.Counter

	// Temporal
	WorkflowsCompleted *prometheus.CounterVec
	ActivityDuration   *prometheus.HistogramVec

	// Circuit breaker
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
	}
}

// New creates and registers all collectors on a private registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ns := config.Namespace
	service := prometheus.Labels{"service": config.ServiceName}
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: name, Help: help, ConstLabels: service}, labels)
	}
	histogram := func(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: name, Help: help, Buckets: buckets, ConstLabels: service}, labels)
	}
	fast := []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}
	slow := []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,

		HTTPRequestsTotal:   counter("http_requests_total", "Total number of HTTP requests", "method", "path", "status"),
		HTTPRequestDuration: histogram("http_request_duration_seconds", "HTTP request duration in seconds", slow, "method", "path"),
		HTTPRequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "http_requests_in_flight", Help: "HTTP requests currently being processed", ConstLabels: service,
		}),

		KafkaEventsPublished: counter("kafka_events_published_total", "Total number of Kafka events published", "topic", "event_type", "status"),
		KafkaPublishDuration: histogram("kafka_publish_duration_seconds", "Kafka publish duration in seconds", fast, "topic"),

		MongoDBOperations:        counter("mongodb_operations_total", "Total number of MongoDB commands", "command", "status"),
		MongoDBOperationDuration: histogram("mongodb_operation_duration_seconds", "MongoDB command duration in seconds", fast, "command"),

		StockOperations:        counter("stock_operations_total", "Stock engine operations by outcome", "operation", "status"),
		StockOperationDuration: histogram("stock_operation_duration_seconds", "Stock engine operation duration in seconds", slow, "operation"),
		InventoryConflicts:     counter("inventory_delta_conflicts_total", "Optimistic lock conflicts retried", "operation"),
		InventoryUnitsMoved:    counter("inventory_units_total", "Units applied to inventory records", "field", "direction"),
		IdempotentReplays:      counter("idempotent_replays_total", "Requests answered from a processed request id", "operation"),

		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "outbox_pending_events", Help: "Unpublished outbox events", ConstLabels: service,
		}),
		OutboxPublished: counter("outbox_published_total", "Outbox events handed to Kafka", "status"),
		OutboxRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "outbox_retries_total", Help: "Outbox publish retries", ConstLabels: service,
		}),

		WorkflowsCompleted: counter("workflows_completed_total", "Temporal workflows completed", "workflow_type", "status"),
		ActivityDuration:   histogram("activity_duration_seconds", "Temporal activity duration in seconds", slow, "activity_type"),

		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Name: "circuit_breaker_state", Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)", ConstLabels: service,
		}, []string{"name"}),
		CircuitBreakerTrips: counter("circuit_breaker_trips_total", "Times the circuit breaker opened", "name"),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration, m.HTTPRequestsInFlight,
		m.KafkaEventsPublished, m.KafkaPublishDuration,
		m.MongoDBOperations, m.MongoDBOperationDuration,
		m.StockOperations, m.StockOperationDuration, m.InventoryConflicts, m.InventoryUnitsMoved, m.IdempotentReplays,
		m.OutboxPending, m.OutboxPublished, m.OutboxRetries,
		m.WorkflowsCompleted, m.ActivityDuration,
		m.CircuitBreakerState, m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns the HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) IncrementHTTPRequestsInFlight() {
	if m != nil {
		m.HTTPRequestsInFlight.Inc()
	}
}

func (m *Metrics) DecrementHTTPRequestsInFlight() {
	if m != nil {
		m.HTTPRequestsInFlight.Dec()
	}
}

// RecordKafkaPublish records a publish attempt
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.KafkaEventsPublished.WithLabelValues(topic, eventType, status(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// RecordMongoDBOperation records a driver command
func (m *Metrics) RecordMongoDBOperation(command string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.MongoDBOperations.WithLabelValues(command, status(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordStockOperation records the outcome of one unit of work. outcome is
// "success" or the failure kind.
func (m *Metrics) RecordStockOperation(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.StockOperations.WithLabelValues(operation, outcome).Inc()
	m.StockOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordInventoryConflict counts an optimistic lock conflict
func (m *Metrics) RecordInventoryConflict(operation string) {
	if m != nil {
		m.InventoryConflicts.WithLabelValues(operation).Inc()
	}
}

// RecordInventoryDelta counts units added to or removed from on hand and reserved
func (m *Metrics) RecordInventoryDelta(onHandDelta, reservedDelta int) {
	if m == nil {
		return
	}
	record := func(field string, delta int) {
		switch {
		case delta > 0:
			m.InventoryUnitsMoved.WithLabelValues(field, "in").Add(float64(delta))
		case delta < 0:
			m.InventoryUnitsMoved.WithLabelValues(field, "out").Add(float64(-delta))
		}
	}
	record("on_hand", onHandDelta)
	record("reserved", reservedDelta)
}

// RecordIdempotentReplay counts a request answered without re-applying it
func (m *Metrics) RecordIdempotentReplay(operation string) {
	if m != nil {
		m.IdempotentReplays.WithLabelValues(operation).Inc()
	}
}

// SetOutboxPending sets the number of unpublished outbox events
func (m *Metrics) SetOutboxPending(count int64) {
	if m != nil {
		m.OutboxPending.Set(float64(count))
	}
}

// RecordOutboxPublish records an outbox publish outcome
func (m *Metrics) RecordOutboxPublish(success bool) {
	if m != nil {
		m.OutboxPublished.WithLabelValues(status(success)).Inc()
	}
}

// RecordOutboxRetry counts a failed publish that will be retried
func (m *Metrics) RecordOutboxRetry() {
	if m != nil {
		m.OutboxRetries.Inc()
	}
}

// RecordWorkflowCompleted records a finished workflow
func (m *Metrics) RecordWorkflowCompleted(workflowType string, success bool) {
	if m != nil {
		m.WorkflowsCompleted.WithLabelValues(workflowType, status(success)).Inc()
	}
}

// RecordActivity records an activity execution time
func (m *Metrics) RecordActivity(activityType string, duration time.Duration) {
	if m != nil {
		m.ActivityDuration.WithLabelValues(activityType).Observe(duration.Seconds())
	}
}

// SetCircuitBreakerState exports a breaker state; state follows gobreaker (0 closed, 1 half-open, 2 open)
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	if state == 2 {
		m.CircuitBreakerTrips.WithLabelValues(name).Inc()
	}
}
