package resilience

import "time"

// Circuit breaker defaults
const (
	DefaultMaxRequests           uint32        = 3
	DefaultInterval              time.Duration = 60 * time.Second
	DefaultTimeout               time.Duration = 30 * time.Second
	DefaultFailureThreshold      uint32        = 5
	DefaultFailureRatioThreshold float64       = 0.5
	DefaultMinRequestsToTrip     uint32        = 10
)

// Retry defaults, tuned for short optimistic-lock conflicts
const (
	DefaultRetryMaxAttempts   int           = 5
	DefaultRetryInitialDelay  time.Duration = 10 * time.Millisecond
	DefaultRetryMaxDelay      time.Duration = 500 * time.Millisecond
	DefaultRetryBackoffFactor float64       = 2.0
)
