package temporal

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/wms-platform/stock-service/pkg/logging"
)

// Config holds Temporal client configuration
type Config struct {
	HostPort  string
	Namespace string
	Identity  string
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HostPort:  "localhost:7233",
		Namespace: "default",
		Identity:  "stock-worker",
	}
}

// TaskQueues contains the stock service task queue names
var TaskQueues = struct {
	StockTransfers string
}{
	StockTransfers: "stock-transfer-queue",
}

// WorkflowNames contains the stock service workflow names
var WorkflowNames = struct {
	StockTransfer string
}{
	StockTransfer: "StockTransferWorkflow",
}

// SignalNames contains signals accepted by stock workflows
var SignalNames = struct {
	TransferDispatched string
	TransferArrived    string
	TransferCancel     string
}{
	TransferDispatched: "transfer-dispatched",
	TransferArrived:    "transfer-arrived",
	TransferCancel:     "transfer-cancel",
}

// Client wraps the Temporal client
type Client struct {
	client client.Client
	config *Config
}

// NewClient dials Temporal, routing SDK logs through logger
func NewClient(ctx context.Context, config *Config, logger *logging.Logger) (*Client, error) {
	options := client.Options{
		HostPort:  config.HostPort,
		Namespace: config.Namespace,
		Identity:  config.Identity,
	}
	if logger != nil {
		options.Logger = tlog.NewStructuredLogger(logger.WithComponent("temporal").Logger)
	}

	c, err := client.DialContext(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	return &Client{client: c, config: config}, nil
}

// Client returns the underlying Temporal client
func (c *Client) Client() client.Client {
	return c.client
}

// Close closes the client connection
func (c *Client) Close() {
	c.client.Close()
}

// StartWorkflow starts a workflow execution
func (c *Client) StartWorkflow(ctx context.Context, workflowID, taskQueue, workflowName string, args ...interface{}) (client.WorkflowRun, error) {
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: taskQueue,
	}
	return c.client.ExecuteWorkflow(ctx, options, workflowName, args...)
}

// SignalWorkflow sends a signal to the latest run of a workflow
func (c *Client) SignalWorkflow(ctx context.Context, workflowID, signalName string, arg interface{}) error {
	return c.client.SignalWorkflow(ctx, workflowID, "", signalName, arg)
}

// CheckHealth pings the frontend service
func (c *Client) CheckHealth(ctx context.Context) error {
	_, err := c.client.CheckHealth(ctx, &client.CheckHealthRequest{})
	return err
}

// WorkerOptions contains options for creating a worker
type WorkerOptions struct {
	TaskQueue               string
	MaxConcurrentActivities int
	MaxConcurrentWorkflows  int
	Interceptors            []interceptor.WorkerInterceptor
}

// DefaultWorkerOptions returns default worker options
func DefaultWorkerOptions(taskQueue string) *WorkerOptions {
	return &WorkerOptions{
		TaskQueue:               taskQueue,
		MaxConcurrentActivities: 50,
		MaxConcurrentWorkflows:  50,
	}
}

// NewWorker creates a new Temporal worker
func (c *Client) NewWorker(opts *WorkerOptions) worker.Worker {
	return worker.New(c.client, opts.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     opts.MaxConcurrentActivities,
		MaxConcurrentWorkflowTaskExecutionSize: opts.MaxConcurrentWorkflows,
		Interceptors:                           opts.Interceptors,
	})
}
