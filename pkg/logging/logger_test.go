package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LevelInfo, ServiceName: "stock-service", Environment: "test", Output: &buf})

	logger.WithComponent("transfers").WithError(errors.New("boom")).Info("transfer failed", "transferId", "t-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stock-service", entry["service"])
	assert.Equal(t, "transfers", entry["component"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "t-1", entry["transferId"])
}

func TestLogger_AuditIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LevelDebug, ServiceName: "stock-service", Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-42")
	logger.Audit(ctx, "approve", "purchase_order", "po-1", "alice", map[string]any{"status": "approved"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["requestId"])
	assert.Equal(t, "approve", entry["auditAction"])
	assert.Equal(t, "approved", entry["status"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}
