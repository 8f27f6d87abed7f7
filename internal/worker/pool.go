package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// JobProcessor runs one claimed job to a terminal state (implementation: *Processor).
type JobProcessor interface {
	Process(ctx context.Context, jobID string) error
}

type Pool struct {
	queue      Queue
	processor  JobProcessor
	workers    int
	claimDelay time.Duration
	log        zerolog.Logger
}

func NewPool(queue Queue, processor JobProcessor, workers int, logger zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	return &Pool{
		queue:      queue,
		processor:  processor,
		workers:    workers,
		claimDelay: 5 * time.Second,
		log:        logger.With().Str("component", "worker").Logger(),
	}
}

// Run claims queued jobs and hands them to the workers until ctx is done.
// It returns once every in-flight job has finished.
func (p *Pool) Run(ctx context.Context) {
	p.log.Info().Int("workers", p.workers).Msg("worker pool started")

	jobCh := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for jobID := range jobCh {
				if err := p.processor.Process(ctx, jobID); err != nil {
					p.log.Error().Err(err).Int("worker", n).Str("job_id", jobID).Msg("process job")
				}
			}
		}(i + 1)
	}

	defer func() {
		close(jobCh)
		wg.Wait()
		p.log.Info().Msg("worker pool stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		jobID, err := p.queue.ClaimBlocking(ctx, p.claimDelay)
		if err != nil {
			// empty queue or ctx cancel, not fatal
			continue
		}
		select {
		case jobCh <- jobID:
		case <-ctx.Done():
			return
		}
	}
}
