package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"research-api/internal/entity"
	"research-api/internal/pipeline"
)

// scriptedPipeline replays a fixed list of events and closes the channel.
type scriptedPipeline struct {
	events []pipeline.Event
	err    error

	mu       sync.Mutex
	requests []pipeline.Request
}

func (p *scriptedPipeline) Run(ctx context.Context, req pipeline.Request) (<-chan pipeline.Event, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	ch := make(chan pipeline.Event, len(p.events))
	for _, ev := range p.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (p *scriptedPipeline) calls() []pipeline.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pipeline.Request(nil), p.requests...)
}

// hangingPipeline emits its events and then never finishes.
type hangingPipeline struct {
	events []pipeline.Event
}

func (p *hangingPipeline) Run(ctx context.Context, req pipeline.Request) (<-chan pipeline.Event, error) {
	ch := make(chan pipeline.Event, len(p.events))
	for _, ev := range p.events {
		ch <- ev
	}
	return ch, nil
}

// cancelClosingPipeline sends one event and closes its channel only when
// the run context is done, the way a well-behaved adapter stops on cancel.
type cancelClosingPipeline struct {
	event pipeline.Event
}

func (p *cancelClosingPipeline) Run(ctx context.Context, req pipeline.Request) (<-chan pipeline.Event, error) {
	ch := make(chan pipeline.Event, 1)
	ch <- p.event
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

type panickingPipeline struct{}

func (panickingPipeline) Run(ctx context.Context, req pipeline.Request) (<-chan pipeline.Event, error) {
	panic("adapter bug")
}

// recordingPublisher keeps every published snapshot in order.
type recordingPublisher struct {
	mu   sync.Mutex
	jobs []entity.ResearchJob
}

func (p *recordingPublisher) Publish(ctx context.Context, job entity.ResearchJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *recordingPublisher) snapshots() []entity.ResearchJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.ResearchJob(nil), p.jobs...)
}

// slowPublisher holds every update long enough for the watchdog to fire.
type slowPublisher struct {
	delay time.Duration
}

func (p slowPublisher) Publish(ctx context.Context, job entity.ResearchJob) error {
	time.Sleep(p.delay)
	return nil
}

func progress(phase pipeline.Phase, pct int, msg string) pipeline.Event {
	return pipeline.Event{Phase: phase, Percent: pct, Message: msg}
}

func reportResult() *entity.ReportResult {
	return &entity.ReportResult{
		Summary:           "AI changes jobs",
		Markdown:          "# AI and jobs\n\nLong report.",
		FollowUpQuestions: []string{"Which sectors are most affected?"},
	}
}

func mustParse(t *testing.T, id string) uuid.UUID {
	t.Helper()
	u, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("parse %q: %v", id, err)
	}
	return u
}
