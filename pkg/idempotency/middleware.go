package idempotency

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware validates the Idempotency-Key header and stores it on the
// gin context. When required is set, mutating requests without a key are
// rejected with 400.
func Middleware(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := NormalizeKey(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			if required && isMutatingMethod(c.Request.Method) {
				abort(c, ErrKeyRequired)
				return
			}
			c.Next()
			return
		}

		if err := ValidateKey(key); err != nil {
			abort(c, err)
			return
		}

		c.Set(ContextKey, key)
		c.Next()
	}
}

// KeyFromContext returns the validated key, or "" when none was sent
func KeyFromContext(c *gin.Context) string {
	return c.GetString(ContextKey)
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"code":    "BAD_REQUEST",
		"message": err.Error(),
	})
}

func isMutatingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
