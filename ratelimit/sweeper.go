package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper evicts idle rate-limit entries on a fixed interval, independent of
// request handling, so the counter map stays bounded.
type Sweeper struct {
	limiter   Limiter
	interval  time.Duration
	retention time.Duration
	logger    zerolog.Logger
}

func NewSweeper(limiter Limiter, interval, retention time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		limiter:   limiter,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.limiter.Sweep(s.retention); evicted > 0 {
				s.logger.Debug().Int("evicted", evicted).Msg("rate limit sweep")
			}
		}
	}
}
