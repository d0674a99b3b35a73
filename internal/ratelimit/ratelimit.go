// Package ratelimit throttles API callers with a sliding window per caller.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Result describes a single rate limit decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is set in whole seconds when the request was denied.
	RetryAfter int
}

// Store counts requests per key within a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

func retryAfter(resetAt, now time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	return max(secs, 1)
}
