package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wms-platform/stock-service/pkg/errors"
	"github.com/wms-platform/stock-service/pkg/logging"
	"github.com/wms-platform/stock-service/pkg/metrics"
)

func newRouter(t *testing.T) (*gin.Engine, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	buf := &bytes.Buffer{}
	cfg := logging.DefaultConfig("middleware-test")
	cfg.Output = buf
	logger := logging.New(cfg)

	r := gin.New()
	Setup(r, DefaultConfig("middleware-test", logger, metrics.New(metrics.DefaultConfig("middleware-test"))))
	return r, buf
}

type createRequest struct {
	ProductID string `json:"productId" binding:"required,entity_id"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Currency  string `json:"currency" binding:"omitempty,currency"`
}

func TestRequestIDPropagation(t *testing.T) {
	r, _ := newRouter(t)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c)+"|"+GetUserID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	req.Header.Set(HeaderUserID, "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42|alice", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.True(t, strings.HasSuffix(w.Body.String(), "|system"))
}

func TestTraceIDHeader(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	otel.SetTextMapPropagator(propagation.TraceContext{})

	r, _ := newRouter(t)
	r.GET("/stock", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/stock", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", w.Header().Get(HeaderTraceID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stock", nil))
	assert.Len(t, w.Header().Get(HeaderTraceID), 32)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /stock", spans[0].Name())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
}

func TestBindAndValidate(t *testing.T) {
	r, _ := newRouter(t)
	r.POST("/items", func(c *gin.Context) {
		var req createRequest
		if appErr := BindAndValidate(c, &req); appErr != nil {
			NewErrorResponder(c, nil).RespondWithAppError(appErr)
			return
		}
		c.Status(http.StatusCreated)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusCreated, post(`{"productId":"SKU-1","quantity":2}`).Code)

	w := post(`{"productId":"bad:id","quantity":0,"currency":"usd"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.CodeValidationError, resp.Code)
	assert.Contains(t, resp.Details, "productId")
	assert.Contains(t, resp.Details, "quantity")
	assert.Contains(t, resp.Details, "currency")
}

func TestContentType(t *testing.T) {
	r, _ := newRouter(t)
	r.POST("/items", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader("x=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRecovery(t *testing.T) {
	r, logs := newRouter(t)
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), errors.CodeInternalError)
	assert.Contains(t, logs.String(), "kaboom")
}

func TestNoRoute(t *testing.T) {
	r, _ := newRouter(t)
	r.GET("/present", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "ROUTE_NOT_FOUND")
}
