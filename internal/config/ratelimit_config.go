package config

import "time"

type RateLimitConfig interface {
	GetLoginAttemptLimit() int
	GetLoginAttemptWindow() time.Duration
	GetRateLimitRetention() time.Duration
	GetServerRequestsPerSecond() int
}

type RateLimits struct{}

var _ RateLimitConfig = RateLimits{}

func (RateLimits) GetLoginAttemptLimit() int {
	return 5
}

func (RateLimits) GetLoginAttemptWindow() time.Duration {
	return 60 * time.Second
}

// GetRateLimitRetention is the age past which idle rate-limit entries are
// swept, independent of any per-call window.
func (RateLimits) GetRateLimitRetention() time.Duration {
	return time.Hour
}

func (RateLimits) GetServerRequestsPerSecond() int {
	return 50
}
