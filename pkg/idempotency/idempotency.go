// Package idempotency records which client requests have already been
// applied so that retried receipts and fulfillments have no second effect.
package idempotency

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	// HeaderIdempotencyKey is the HTTP header carrying the request id
	HeaderIdempotencyKey = "Idempotency-Key"

	// ContextKey is the gin context key holding the validated request id
	ContextKey = "idempotency_key"

	// DefaultMaxKeyLength bounds request ids
	DefaultMaxKeyLength = 255

	// DefaultRetention is how long a processed request is remembered
	DefaultRetention = 7 * 24 * time.Hour
)

var (
	ErrKeyRequired = errors.New("idempotency key is required for this operation")
	ErrKeyInvalid  = errors.New("invalid idempotency key format")
	ErrKeyTooLong  = errors.New("idempotency key exceeds maximum length of 255 characters")
)

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_:.-]+$`)

// ProcessedRequest marks one request id as applied to one aggregate
type ProcessedRequest struct {
	ID          string    `bson:"_id"`
	RequestID   string    `bson:"requestId"`
	Scope       string    `bson:"scope"`
	AggregateID string    `bson:"aggregateId"`
	ProcessedAt time.Time `bson:"processedAt"`
	ExpiresAt   time.Time `bson:"expiresAt"`
}

// NewProcessedRequest builds a record. The document id combines scope and
// request id so a unique index rejects a second insert.
func NewProcessedRequest(scope, requestID, aggregateID string, retention time.Duration) *ProcessedRequest {
	now := time.Now().UTC()
	return &ProcessedRequest{
		ID:          DocumentID(scope, requestID),
		RequestID:   requestID,
		Scope:       scope,
		AggregateID: aggregateID,
		ProcessedAt: now,
		ExpiresAt:   now.Add(retention),
	}
}

// DocumentID is the storage key for a scoped request id
func DocumentID(scope, requestID string) string {
	return scope + "/" + requestID
}

// NormalizeKey trims whitespace
func NormalizeKey(key string) string {
	return strings.TrimSpace(key)
}

// ValidateKey validates request id format and length
func ValidateKey(key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	if len(key) > DefaultMaxKeyLength {
		return ErrKeyTooLong
	}
	if !keyPattern.MatchString(key) {
		return ErrKeyInvalid
	}
	return nil
}
