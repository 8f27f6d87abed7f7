package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"research-api/internal/entity"
	"research-api/internal/pipeline"
	"research-api/internal/repository/memory"
)

// Repository port (implementation: memory.JobRepository)
type JobRepository interface {
	Create(mode entity.Mode, query, traceID string) entity.ResearchJob
	GetByID(id uuid.UUID) (entity.ResearchJob, error)
	Update(id uuid.UUID, mutate func(*entity.ResearchJob) error) (entity.ResearchJob, error)
}

// Queue port, only the submit side (implementation: worker.MemoryQueue)
type JobQueue interface {
	Enqueue(ctx context.Context, jobID string) error
}

type ResearchService struct {
	repo       JobRepository
	queue      JobQueue
	newTraceID func() string
}

func NewResearchService(repo JobRepository, queue JobQueue) *ResearchService {
	return &ResearchService{repo: repo, queue: queue, newTraceID: pipeline.NewTraceID}
}

type SubmitRequest struct {
	Query string
	Mode  entity.Mode
}

type Submission struct {
	ID      uuid.UUID
	Status  entity.Status
	TraceID string
}

// Submit validates the request, records a queued job and schedules it.
// It never waits for the research itself.
func (s *ResearchService) Submit(ctx context.Context, req SubmitRequest) (Submission, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Submission{}, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	if !req.Mode.Valid() {
		return Submission{}, fmt.Errorf("%w: invalid mode %q, allowed: report, trends", ErrInvalidRequest, req.Mode)
	}

	job := s.repo.Create(req.Mode, query, s.newTraceID())

	// scheduling must not depend on the submitting request staying connected
	if err := s.queue.Enqueue(context.WithoutCancel(ctx), job.ID.String()); err != nil {
		// never reached a worker, so the progress and archive sinks never saw it
		_, _ = s.repo.Update(job.ID, func(j *entity.ResearchJob) error {
			j.Fail(entity.JobError{Code: entity.CodeInternal, Message: "research could not be scheduled"})
			return nil
		})
		return Submission{}, fmt.Errorf("enqueue research %s: %w", job.ID, err)
	}

	return Submission{ID: job.ID, Status: job.Status, TraceID: job.TraceID}, nil
}

func (s *ResearchService) Get(ctx context.Context, id string) (entity.ResearchJob, error) {
	jobID, err := uuid.Parse(id)
	if err != nil {
		return entity.ResearchJob{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	job, err := s.repo.GetByID(jobID)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			return entity.ResearchJob{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return entity.ResearchJob{}, err
	}
	return job, nil
}

func (s *ResearchService) Report(ctx context.Context, id string) (ReportView, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return ReportView{}, err
	}
	return ProjectReport(job)
}

func (s *ResearchService) Trends(ctx context.Context, id string) (TrendsView, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return TrendsView{}, err
	}
	return ProjectTrends(job)
}
