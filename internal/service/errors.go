package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"research-api/internal/entity"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("research not found")
	ErrNotReady       = errors.New("research is not completed yet")
	ErrWrongMode      = errors.New("research was run in a different mode")
	ErrJobFailed      = errors.New("research failed")
)

// JobFailedError carries the cause stored on a failed job. It matches ErrJobFailed.
type JobFailedError struct {
	ID    uuid.UUID
	Cause entity.JobError
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("research %s failed: %s", e.ID, e.Cause)
}

func (e *JobFailedError) Is(target error) bool {
	return target == ErrJobFailed
}
