package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"research-api/internal/entity"
)

var ErrNotTerminal = errors.New("job is not finished")

// execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ArchiveRepository writes finished research jobs to research_jobs.
// Rows are never read back by the service.
type ArchiveRepository struct {
	db execer
}

func NewArchiveRepository(db execer) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS research_jobs (
	id               UUID PRIMARY KEY,
	mode             TEXT NOT NULL,
	query            TEXT NOT NULL,
	trace_id         TEXT NOT NULL,
	status           TEXT NOT NULL,
	progress         INT NOT NULL,
	progress_message TEXT NOT NULL,
	result           JSONB,
	error_code       TEXT,
	error_message    TEXT,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	archived_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (r *ArchiveRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create research_jobs: %w", err)
	}
	return nil
}

const upsertSQL = `
INSERT INTO research_jobs
	(id, mode, query, trace_id, status, progress, progress_message, result, error_code, error_message, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id)
DO UPDATE SET
	status = EXCLUDED.status,
	progress = EXCLUDED.progress,
	progress_message = EXCLUDED.progress_message,
	result = EXCLUDED.result,
	error_code = EXCLUDED.error_code,
	error_message = EXCLUDED.error_message,
	updated_at = EXCLUDED.updated_at,
	archived_at = now();
`

func (r *ArchiveRepository) Save(ctx context.Context, job entity.ResearchJob) error {
	if !job.Status.Terminal() {
		return fmt.Errorf("archive %s: %w (status %s)", job.ID, ErrNotTerminal, job.Status)
	}

	args, err := archiveArgs(job)
	if err != nil {
		return fmt.Errorf("archive %s: %w", job.ID, err)
	}
	if _, err := r.db.Exec(ctx, upsertSQL, args...); err != nil {
		return fmt.Errorf("upsert research_jobs %s: %w", job.ID, err)
	}
	return nil
}

func archiveArgs(job entity.ResearchJob) ([]any, error) {
	var (
		result  []byte // NULL for failed jobs
		errCode *string
		errMsg  *string
	)
	if job.Result != nil {
		b, err := json.Marshal(job.Result)
		if err != nil {
			return nil, fmt.Errorf("marshal result: %w", err)
		}
		result = b
	}
	if job.Error != nil {
		code := string(job.Error.Code)
		errCode = &code
		errMsg = &job.Error.Message
	}

	return []any{
		job.ID,
		string(job.Mode),
		job.Query,
		job.TraceID,
		string(job.Status),
		job.Progress,
		job.ProgressMessage,
		result,
		errCode,
		errMsg,
		job.CreatedAt,
		job.UpdatedAt,
	}, nil
}
