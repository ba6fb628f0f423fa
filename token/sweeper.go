package token

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper deletes expired revocation records on a fixed interval so the store
// stays bounded to currently live but revoked tokens.
type Sweeper struct {
	store    RevocationStore
	interval time.Duration
	logger   zerolog.Logger
}

func NewSweeper(store RevocationStore, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{store: store, interval: interval, logger: logger}
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
			deleted, err := s.store.Sweep(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("revocation sweep failed")
				continue
			}
			if deleted > 0 {
				s.logger.Debug().Int64("deleted", deleted).Msg("revocation sweep")
			}
		}
	}
}
