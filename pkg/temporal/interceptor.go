package temporal

import (
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/workflow"

	"github.com/wms-platform/stock-service/pkg/metrics"
)

// WorkflowMetricsInterceptor counts finished workflow executions by type and outcome
type WorkflowMetricsInterceptor struct {
	interceptor.WorkerInterceptorBase
	metrics *metrics.Metrics
}

// NewWorkflowMetricsInterceptor creates the interceptor. m may be nil.
func NewWorkflowMetricsInterceptor(m *metrics.Metrics) *WorkflowMetricsInterceptor {
	return &WorkflowMetricsInterceptor{metrics: m}
}

func (i *WorkflowMetricsInterceptor) InterceptWorkflow(ctx workflow.Context, next interceptor.WorkflowInboundInterceptor) interceptor.WorkflowInboundInterceptor {
	return &workflowMetricsInbound{
		WorkflowInboundInterceptorBase: interceptor.WorkflowInboundInterceptorBase{Next: next},
		metrics:                        i.metrics,
	}
}

type workflowMetricsInbound struct {
	interceptor.WorkflowInboundInterceptorBase
	metrics *metrics.Metrics
}

func (w *workflowMetricsInbound) ExecuteWorkflow(ctx workflow.Context, in *interceptor.ExecuteWorkflowInput) (interface{}, error) {
	result, err := w.Next.ExecuteWorkflow(ctx, in)
	if !workflow.IsReplaying(ctx) {
		w.metrics.RecordWorkflowCompleted(workflow.GetInfo(ctx).WorkflowType.Name, err == nil)
	}
	return result, err
}
