package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"research-api/internal/entity"
	"research-api/internal/pipeline"
	"research-api/internal/repository/memory"
)

type JobRepo interface {
	GetByID(id uuid.UUID) (entity.ResearchJob, error)
	Update(id uuid.UUID, mutate func(*entity.ResearchJob) error) (entity.ResearchJob, error)
}

// ProgressPublisher receives a snapshot after every applied update
// (implementation: redis.ProgressPublisher).
type ProgressPublisher interface {
	Publish(ctx context.Context, job entity.ResearchJob) error
}

// JobArchive receives every job once it is terminal (implementation: postgresql.ArchiveRepository).
type JobArchive interface {
	Save(ctx context.Context, job entity.ResearchJob) error
}

const (
	sideEffectTimeout = 5 * time.Second
	// how long a finished run may keep its channel open before we stop reading
	drainTimeout = 30 * time.Second
)

type ProcessorOptions struct {
	Repo      JobRepo
	Pipeline  pipeline.Pipeline
	Timeout   time.Duration
	Publisher ProgressPublisher
	Archive   JobArchive
	Logger    zerolog.Logger
}

// Processor drives one job through the pipeline and records every event on
// the job. Whatever happens, the job ends completed or failed.
type Processor struct {
	repo      JobRepo
	pipeline  pipeline.Pipeline
	timeout   time.Duration
	publisher ProgressPublisher
	archive   JobArchive
	log       zerolog.Logger
}

func NewProcessor(opts ProcessorOptions) *Processor {
	return &Processor{
		repo:      opts.Repo,
		pipeline:  opts.Pipeline,
		timeout:   opts.Timeout,
		publisher: opts.Publisher,
		archive:   opts.Archive,
		log:       opts.Logger.With().Str("component", "worker").Logger(),
	}
}

func (p *Processor) Process(ctx context.Context, jobID string) (err error) {
	start := time.Now()

	id, err := uuid.Parse(jobID)
	if err != nil {
		return fmt.Errorf("parse job id %q: %w", jobID, err)
	}

	job, err := p.repo.GetByID(id)
	if err != nil {
		return fmt.Errorf("get job %s: %w", id, err)
	}
	if job.Status.Terminal() {
		return nil
	}

	log := p.log.With().Str("job_id", id.String()).Str("trace_id", job.TraceID).Str("mode", string(job.Mode)).Logger()
	log.Info().Str("status", string(job.Status)).Msg("job started")

	runCtx, cancel := p.runContext(ctx)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("job execution panicked")
			p.fail(ctx, id, entity.JobError{Code: entity.CodeInternal, Message: "internal error while running research"})
			err = nil
		}
		final, getErr := p.repo.GetByID(id)
		if getErr != nil {
			return
		}
		ev := log.Info()
		if final.Status == entity.StatusFailed {
			ev = log.Warn()
			if final.Error != nil {
				ev = ev.Str("error", final.Error.String())
			}
		}
		ev.Str("status", string(final.Status)).
			Int("progress", final.Progress).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("job finished")
	}()

	events, runErr := p.pipeline.Run(runCtx, pipeline.Request{
		TraceID: job.TraceID,
		Query:   job.Query,
		Mode:    job.Mode,
	})
	if runErr != nil {
		p.fail(ctx, id, pipeline.Translate(runErr).JobError())
		return nil
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// a channel closed by cancellation still counts as the watchdog or shutdown
				if runCtx.Err() != nil {
					p.fail(ctx, id, p.contextFailure(ctx))
					return nil
				}
				p.fail(ctx, id, entity.JobError{Code: entity.CodeInternal, Message: "research pipeline ended without a result"})
				return nil
			}
			if p.apply(ctx, id, job.Mode, ev) {
				// stop reading; anything still sent by the pipeline is ignored
				go drain(events, drainTimeout)
				return nil
			}
		case <-runCtx.Done():
			p.fail(ctx, id, p.contextFailure(ctx))
			go drain(events, drainTimeout)
			return nil
		}
	}
}

func (p *Processor) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout > 0 {
		return context.WithTimeout(ctx, p.timeout)
	}
	return context.WithCancel(ctx)
}

// contextFailure tells the watchdog firing apart from the service shutting down.
func (p *Processor) contextFailure(parent context.Context) entity.JobError {
	if parent.Err() != nil {
		return entity.JobError{Code: entity.CodeCanceled, Message: "research was canceled because the service is shutting down"}
	}
	return entity.JobError{Code: entity.CodeTimeout, Message: fmt.Sprintf("research did not finish within %s", p.timeout)}
}

// apply records one pipeline event and reports whether the job is now terminal.
func (p *Processor) apply(ctx context.Context, id uuid.UUID, mode entity.Mode, ev pipeline.Event) bool {
	switch {
	case ev.Err != nil:
		p.fail(ctx, id, ev.Err.JobError())
		return true
	case ev.Result != nil:
		if ev.Result.Mode() != mode {
			p.fail(ctx, id, entity.JobError{
				Code:    entity.CodeInternal,
				Message: fmt.Sprintf("research pipeline returned a %s result for a %s job", ev.Result.Mode(), mode),
			})
			return true
		}
		msg := "Research completed"
		if mode == entity.ModeTrends {
			msg = "Trend analysis completed"
		}
		job, err := p.repo.Update(id, func(j *entity.ResearchJob) error {
			j.Complete(ev.Result, msg)
			return nil
		})
		p.afterUpdate(ctx, id, job, err)
		return true
	default:
		status, _ := ev.Phase.Status()
		job, err := p.repo.Update(id, func(j *entity.ResearchJob) error {
			j.Advance(status, ev.Percent, ev.Message)
			return nil
		})
		p.afterUpdate(ctx, id, job, err)
		return errors.Is(err, memory.ErrTerminal)
	}
}

func (p *Processor) fail(ctx context.Context, id uuid.UUID, jobErr entity.JobError) {
	job, err := p.repo.Update(id, func(j *entity.ResearchJob) error {
		j.Fail(jobErr)
		return nil
	})
	p.afterUpdate(ctx, id, job, err)
}

// afterUpdate fans the stored snapshot out to the optional publisher and
// archive. Their failures are logged and never affect the job.
func (p *Processor) afterUpdate(ctx context.Context, id uuid.UUID, job entity.ResearchJob, updateErr error) {
	if updateErr != nil {
		if !errors.Is(updateErr, memory.ErrTerminal) {
			p.log.Error().Err(updateErr).Str("job_id", id.String()).Msg("update job")
		}
		return
	}

	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if p.publisher != nil {
		if err := p.publisher.Publish(sideCtx, job); err != nil {
			p.log.Warn().Err(err).Str("job_id", job.ID.String()).Msg("publish progress")
		}
	}
	if p.archive != nil && job.Status.Terminal() {
		if err := p.archive.Save(sideCtx, job); err != nil {
			p.log.Warn().Err(err).Str("job_id", job.ID.String()).Msg("archive job")
		}
	}
}

// drain unblocks a pipeline still sending after the job is settled. It gives
// up after limit if the channel is never closed.
func drain(events <-chan pipeline.Event, limit time.Duration) {
	timer := time.NewTimer(limit)
	defer timer.Stop()
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-timer.C:
			return
		}
	}
}
