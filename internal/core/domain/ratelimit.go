package domain

import "time"

// RateTier is the rate-limit classification of a client IP.
type RateTier string

const (
	TierLocal  RateTier = "zim"
	TierGlobal RateTier = "global"
)

// RateDecision is the outcome of one admission check.
type RateDecision struct {
	Allowed    bool
	Tier       RateTier
	Count      int64
	Limit      int64
	RetryAfter time.Duration // zero when allowed
}
