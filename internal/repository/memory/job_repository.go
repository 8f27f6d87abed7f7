package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"research-api/internal/entity"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrTerminal is returned by Update when the job already completed or failed.
	ErrTerminal = errors.New("job is in a terminal state")
)

// JobRepository keeps research jobs in process memory. Every mutation goes
// through Update under a single lock; readers always get copies.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*entity.ResearchJob
	now  func() time.Time
}

func NewJobRepository() *JobRepository {
	return &JobRepository{
		jobs: make(map[uuid.UUID]*entity.ResearchJob),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *JobRepository) Create(mode entity.Mode, query, traceID string) entity.ResearchJob {
	now := r.now()
	j := &entity.ResearchJob{
		ID:              uuid.New(),
		Mode:            mode,
		Query:           query,
		Status:          entity.StatusQueued,
		ProgressMessage: "Waiting to start...",
		TraceID:         traceID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// uuid v4 collisions are not expected, but ids must never be reused.
	for {
		if _, exists := r.jobs[j.ID]; !exists {
			break
		}
		j.ID = uuid.New()
	}
	r.jobs[j.ID] = j
	return j.Clone()
}

func (r *JobRepository) GetByID(id uuid.UUID) (entity.ResearchJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return entity.ResearchJob{}, ErrNotFound
	}
	return j.Clone(), nil
}

// Update applies mutate atomically. The mutator works on a private copy; if it
// returns an error nothing is stored.
func (r *JobRepository) Update(id uuid.UUID, mutate func(*entity.ResearchJob) error) (entity.ResearchJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.jobs[id]
	if !ok {
		return entity.ResearchJob{}, ErrNotFound
	}
	if cur.Status.Terminal() {
		return cur.Clone(), ErrTerminal
	}

	next := cur.Clone()
	if err := mutate(&next); err != nil {
		return cur.Clone(), err
	}
	next.ID = cur.ID
	next.Mode = cur.Mode
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.now()
	// the mutator may have attached values the caller still holds
	stored := next.Clone()
	r.jobs[id] = &stored
	return stored.Clone(), nil
}

// EvictBefore drops terminal jobs last updated before cutoff and returns how
// many were removed. Running and queued jobs are never evicted.
func (r *JobRepository) EvictBefore(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, j := range r.jobs {
		if j.Status.Terminal() && j.UpdatedAt.Before(cutoff) {
			delete(r.jobs, id)
			n++
		}
	}
	return n
}

func (r *JobRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
