package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Evicter drops finished jobs older than cutoff (implementation: memory.JobRepository).
type Evicter interface {
	EvictBefore(cutoff time.Time) int
}

// RunEvictor removes terminal jobs once they are older than retention,
// checking every interval until ctx is done. A zero retention disables it.
func RunEvictor(ctx context.Context, store Evicter, retention, interval time.Duration, logger zerolog.Logger) {
	if retention <= 0 || interval <= 0 {
		return
	}
	log := logger.With().Str("component", "evictor").Logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := store.EvictBefore(now.Add(-retention)); n > 0 {
				log.Info().Int("evicted", n).Dur("retention", retention).Msg("evicted finished jobs")
			}
		}
	}
}
