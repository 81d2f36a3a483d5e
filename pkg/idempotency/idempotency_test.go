package idempotency

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want error
	}{
		{"uuid", "5b1c7c0e-3f2d-4e59-9a0b-2b7d7f1e6a11", nil},
		{"scoped", "receipt:PO-1.2", nil},
		{"empty", "", ErrKeyRequired},
		{"spaces", "a b", ErrKeyInvalid},
		{"too long", strings.Repeat("k", DefaultMaxKeyLength+1), ErrKeyTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateKey(tt.key), tt.want)
		})
	}
}

func TestNewProcessedRequest(t *testing.T) {
	rec := NewProcessedRequest("po.receive", "r-1", "po-9", time.Hour)
	assert.Equal(t, "po.receive/r-1", rec.ID)
	assert.Equal(t, "po-9", rec.AggregateID)
	assert.WithinDuration(t, rec.ProcessedAt.Add(time.Hour), rec.ExpiresAt, time.Millisecond)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(true))
	r.POST("/x", func(c *gin.Context) { c.String(http.StatusOK, KeyFromContext(c)) })
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "get") })

	do := func(method, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/x", nil)
		if key != "" {
			req.Header.Set(HeaderIdempotencyKey, key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, " abc-1 ")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-1", w.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "bad key!").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "").Code)
}
