// Package pipeline runs the multi-agent research pipeline and reports its
// progress as a stream of events.
package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"research-api/internal/entity"
)

type Phase string

const (
	PhaseStarting  Phase = "starting"
	PhasePlanning  Phase = "planning"
	PhaseSearching Phase = "searching"
	PhaseWriting   Phase = "writing"
	PhaseAnalyzing Phase = "analyzing"
)

// Status maps a phase label to the job status it represents. Unknown labels
// report false and leave the job status unchanged.
func (p Phase) Status() (entity.Status, bool) {
	switch p {
	case PhaseStarting, PhasePlanning:
		return entity.StatusPlanning, true
	case PhaseSearching:
		return entity.StatusSearching, true
	case PhaseWriting, PhaseAnalyzing:
		return entity.StatusWriting, true
	default:
		return "", false
	}
}

type Request struct {
	TraceID string
	Query   string
	Mode    entity.Mode
}

// Event is either a progress update or the terminal outcome of a run.
// Exactly one terminal event (Result or Err set) is sent, then the channel is closed.
type Event struct {
	Phase   Phase
	Percent int
	Message string

	Result entity.Result
	Err    *Error
}

func (e Event) Terminal() bool {
	return e.Result != nil || e.Err != nil
}

// Pipeline starts a research run. Input errors are returned synchronously;
// everything after that is reported through the event channel.
//
// Run must close the channel after sending the terminal event, or once ctx
// is done, whichever comes first. Sends must not block forever: the reader
// stops consuming after the job is settled and only drains for a bounded time.
type Pipeline interface {
	Run(ctx context.Context, req Request) (<-chan Event, error)
}

// NewTraceID returns an id for correlating a job with the pipeline trace.
func NewTraceID() string {
	return "trace_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func validate(req Request) error {
	if !req.Mode.Valid() {
		return newError(entity.CodeInvalidMode, "unsupported mode "+quote(string(req.Mode))+", allowed: report, trends", nil)
	}
	if strings.TrimSpace(req.Query) == "" {
		return newError(entity.CodeInvalidInput, "query is required", nil)
	}
	return nil
}

func quote(s string) string {
	return `"` + s + `"`
}

type emitter struct {
	ctx context.Context
	ch  chan<- Event
}

// send delivers ev unless the run's context is done first.
func (e emitter) send(ev Event) bool {
	select {
	case e.ch <- ev:
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (e emitter) progress(phase Phase, percent int, message string) {
	e.send(Event{Phase: phase, Percent: percent, Message: message})
}
