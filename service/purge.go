package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TokenPurger drops expired admission tokens.
type TokenPurger interface {
	PurgeExpired() int
}

// RunTokenPurge purges expired tokens every interval until ctx is done. A
// non-positive interval disables purging.
func RunTokenPurge(ctx context.Context, purger TokenPurger, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		logger.Warn().Dur("interval", interval).Msg("admission token purge disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := purger.PurgeExpired(); n > 0 {
				logger.Debug().Int("purged", n).Msg("expired admission tokens dropped")
			}
		}
	}
}
