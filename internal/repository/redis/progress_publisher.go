package redisrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"research-api/internal/entity"
)

const DefaultChannelPrefix = "research:progress"

// publisher is the part of redis.UniversalClient used here.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// ProgressPublisher fans job snapshots out on <prefix>:<job_id>.
// Subscribers that are not listening miss the message; polling stays the source of truth.
type ProgressPublisher struct {
	rdb    publisher
	prefix string
}

func NewProgressPublisher(rdb publisher, prefix string) *ProgressPublisher {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &ProgressPublisher{rdb: rdb, prefix: prefix}
}

type progressMessage struct {
	ResearchID      string           `json:"research_id"`
	Mode            entity.Mode      `json:"mode"`
	TraceID         string           `json:"trace_id"`
	Status          entity.Status    `json:"status"`
	Progress        int              `json:"progress"`
	ProgressMessage string           `json:"progress_message"`
	Done            bool             `json:"done"`
	Error           *entity.JobError `json:"error,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (p *ProgressPublisher) Channel(jobID string) string {
	return p.prefix + ":" + jobID
}

func (p *ProgressPublisher) Publish(ctx context.Context, job entity.ResearchJob) error {
	payload, err := json.Marshal(progressMessage{
		ResearchID:      job.ID.String(),
		Mode:            job.Mode,
		TraceID:         job.TraceID,
		Status:          job.Status,
		Progress:        job.Progress,
		ProgressMessage: job.ProgressMessage,
		Done:            job.Status.Terminal(),
		Error:           job.Error,
		UpdatedAt:       job.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal progress %s: %w", job.ID, err)
	}

	channel := p.Channel(job.ID.String())
	if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return nil
}
