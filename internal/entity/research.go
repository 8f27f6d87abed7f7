package entity

import (
	"time"

	"github.com/google/uuid"
)

type Mode string

const (
	ModeReport Mode = "report"
	ModeTrends Mode = "trends"
)

func (m Mode) Valid() bool {
	return m == ModeReport || m == ModeTrends
}

type Status string

const (
	StatusQueued    Status = "queued"
	StatusPlanning  Status = "planning"
	StatusSearching Status = "searching"
	StatusWriting   Status = "writing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ResearchJob is the lifecycle record of one research request.
// Result is set only when Status is completed, Error only when it is failed.
type ResearchJob struct {
	ID              uuid.UUID `json:"id"`
	Mode            Mode      `json:"mode"`
	Query           string    `json:"query"`
	Status          Status    `json:"status"`
	Progress        int       `json:"progress"`
	ProgressMessage string    `json:"progress_message"`
	TraceID         string    `json:"trace_id"`
	Result          Result    `json:"result,omitempty"`
	Error           *JobError `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Advance records a running-phase update. Progress never moves backwards and
// stays below 100 until the job completes.
func (j *ResearchJob) Advance(status Status, progress int, message string) {
	if status != "" && !status.Terminal() {
		j.Status = status
	}
	if progress > 99 {
		progress = 99
	}
	if progress > j.Progress {
		j.Progress = progress
	}
	if message != "" {
		j.ProgressMessage = message
	}
}

func (j *ResearchJob) Complete(result Result, message string) {
	j.Status = StatusCompleted
	j.Progress = 100
	j.Result = result
	j.Error = nil
	if message != "" {
		j.ProgressMessage = message
	}
}

// Fail moves the job to failed. Progress keeps its last value.
func (j *ResearchJob) Fail(jobErr JobError) {
	j.Status = StatusFailed
	j.Result = nil
	j.Error = &jobErr
	j.ProgressMessage = jobErr.Message
}

// Clone returns a deep copy so callers never share slices with the store.
func (j ResearchJob) Clone() ResearchJob {
	out := j
	if j.Result != nil {
		out.Result = j.Result.clone()
	}
	if j.Error != nil {
		e := *j.Error
		out.Error = &e
	}
	return out
}

type ErrorCode string

const (
	CodeInvalidMode   ErrorCode = "invalid_mode"
	CodeInvalidInput  ErrorCode = "invalid_input"
	CodeConfiguration ErrorCode = "configuration"
	CodeRateLimited   ErrorCode = "rate_limited"
	CodeUpstream      ErrorCode = "upstream"
	CodeInvalidOutput ErrorCode = "invalid_output"
	CodeTimeout       ErrorCode = "timeout"
	CodeCanceled      ErrorCode = "canceled"
	CodeInternal      ErrorCode = "internal"
)

// JobError is the failure cause stored on a failed job.
type JobError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e JobError) String() string {
	return string(e.Code) + ": " + e.Message
}
