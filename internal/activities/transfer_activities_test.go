package activities

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/wms-platform/stock-service/internal/application"
	"github.com/wms-platform/stock-service/internal/domain"
	"github.com/wms-platform/stock-service/internal/infrastructure/memory"
	"github.com/wms-platform/stock-service/internal/workflows"
	apperrors "github.com/wms-platform/stock-service/pkg/errors"
	"github.com/wms-platform/stock-service/pkg/logging"
)

// MockTransferCommands is a mock implementation of TransferCommands
type MockTransferCommands struct {
	mock.Mock
}

func (m *MockTransferCommands) result(args mock.Arguments) (*application.TransferDTO, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.TransferDTO), args.Error(1)
}

func (m *MockTransferCommands) GetTransfer(ctx context.Context, id string) (*application.TransferDTO, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockTransferCommands) Approve(ctx context.Context, id, approver string) (*application.TransferDTO, error) {
	return m.result(m.Called(ctx, id, approver))
}

func (m *MockTransferCommands) MarkInTransit(ctx context.Context, id, actor string) (*application.TransferDTO, error) {
	return m.result(m.Called(ctx, id, actor))
}

func (m *MockTransferCommands) Complete(ctx context.Context, id, actor string) (*application.TransferDTO, error) {
	return m.result(m.Called(ctx, id, actor))
}

func (m *MockTransferCommands) Cancel(ctx context.Context, id, reason, actor string) (*application.TransferDTO, error) {
	return m.result(m.Called(ctx, id, reason, actor))
}

func testLogger() *logging.Logger {
	return logging.New(&logging.Config{Level: logging.LevelError, ServiceName: "stock-worker-test", Output: io.Discard})
}

type fixture struct {
	store     *memory.Store
	transfers *application.TransferService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	logger := testLogger()
	tx := application.NewTxRunner(store, nil, nil, logger)
	return &fixture{
		store:     store,
		transfers: application.NewTransferService(store.Transfers(), store.Inventory(), store.Movements(), tx, logger),
	}
}

func (f *fixture) initiate(t *testing.T, onHand, quantity int) string {
	t.Helper()
	ctx := context.Background()
	_, err := f.store.Inventory().ApplyDelta(ctx, "P", "WH-A", onHand, 0)
	require.NoError(t, err)
	tr, err := f.transfers.InitiateTransfer(ctx, application.InitiateTransferCommand{
		FromWarehouseID: "WH-A",
		ToWarehouseID:   "WH-B",
		ProductID:       "P",
		Quantity:        quantity,
		InitiatedBy:     "alice",
	})
	require.NoError(t, err)
	return tr.TransferID
}

func TestTransferActivities_DriveTransferToCompletion(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	f := newFixture(t)
	id := f.initiate(t, 20, 15)

	activities := NewTransferActivities(f.transfers, nil, testLogger())
	env.RegisterActivity(activities)

	steps := []struct {
		fn         interface{}
		actor      string
		wantStatus string
	}{
		{fn: activities.ApproveTransfer, actor: "bob", wantStatus: "approved"},
		{fn: activities.DispatchTransfer, actor: "carol", wantStatus: "in_transit"},
		{fn: activities.CompleteTransfer, actor: "dave", wantStatus: "completed"},
	}

	for _, step := range steps {
		val, err := env.ExecuteActivity(step.fn, workflows.TransferStepInput{TransferID: id, Actor: step.actor})
		require.NoError(t, err)

		var result workflows.TransferStepResult
		require.NoError(t, val.Get(&result))
		assert.Equal(t, step.wantStatus, result.Status)
	}

	src, err := f.store.Inventory().Get(context.Background(), "P", "WH-A")
	require.NoError(t, err)
	assert.Equal(t, 5, src.QuantityOnHand)
	dst, err := f.store.Inventory().Get(context.Background(), "P", "WH-B")
	require.NoError(t, err)
	assert.Equal(t, 15, dst.QuantityOnHand)
}

func TestTransferActivities_BusinessFailureIsNonRetryable(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	f := newFixture(t)
	id := f.initiate(t, 20, 15)

	activities := NewTransferActivities(f.transfers, nil, testLogger())
	env.RegisterActivity(activities)

	// completing straight from pending is not a valid transition
	_, err := env.ExecuteActivity(activities.CompleteTransfer, workflows.TransferStepInput{TransferID: id, Actor: "dave"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr), "business failures must be application errors")
	assert.True(t, appErr.NonRetryable())
	assert.Equal(t, apperrors.CodeInvalidTransition, appErr.Type())

	_, err = env.ExecuteActivity(activities.CancelTransfer, workflows.TransferStepInput{TransferID: "missing", Actor: "bob", Reason: "x"})
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeNotFound, appErr.Type())
}

func TestTransferActivities_UnavailableStaysRetryable(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	mockTransfers := new(MockTransferCommands)
	mockTransfers.On("Approve", mock.Anything, "t-1", "bob").
		Return(nil, fmt.Errorf("%w: connection refused", domain.ErrUnavailable))

	activities := NewTransferActivities(mockTransfers, nil, testLogger())
	env.RegisterActivity(activities)

	_, err := env.ExecuteActivity(activities.ApproveTransfer, workflows.TransferStepInput{TransferID: "t-1", Actor: "bob"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		assert.False(t, appErr.NonRetryable())
	}
	mockTransfers.AssertExpectations(t)
}

func TestReached(t *testing.T) {
	tests := []struct {
		current string
		target  domain.TransferStatus
		want    bool
	}{
		{current: "pending", target: domain.TransferStatusApproved, want: false},
		{current: "approved", target: domain.TransferStatusApproved, want: true},
		{current: "in_transit", target: domain.TransferStatusApproved, want: true},
		{current: "approved", target: domain.TransferStatusInTransit, want: false},
		{current: "completed", target: domain.TransferStatusCompleted, want: true},
		{current: "cancelled", target: domain.TransferStatusCompleted, want: false},
		{current: "cancelled", target: domain.TransferStatusCancelled, want: true},
		{current: "approved", target: domain.TransferStatusCancelled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.current+"->"+string(tt.target), func(t *testing.T) {
			assert.Equal(t, tt.want, reached(tt.current, tt.target))
		})
	}
}

func TestTransferActivities_StepRunsInsideSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	f := newFixture(t)
	id := f.initiate(t, 20, 15)

	activities := NewTransferActivities(f.transfers, nil, testLogger())
	env.RegisterActivity(activities)

	_, err := env.ExecuteActivity(activities.ApproveTransfer, workflows.TransferStepInput{TransferID: id, Actor: "bob"})
	require.NoError(t, err)
	_, err = env.ExecuteActivity(activities.CompleteTransfer, workflows.TransferStepInput{TransferID: id, Actor: "dave"})
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "activity.ApproveTransfer", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("temporal.activity.type", "ApproveTransfer"))
	assert.Equal(t, "activity.CompleteTransfer", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
