package worker_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	openai "github.com/meguminnnnnnnnn/go-openai"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"research-api/internal/entity"
	"research-api/internal/pipeline"
	"research-api/internal/repository/memory"
	"research-api/internal/worker"
)

//go:generate mockgen -destination=mock_sinks_test.go -package=worker_test research-api/internal/worker ProgressPublisher,JobArchive

func newProcessor(repo *memory.JobRepository, p pipeline.Pipeline, opts ...func(*worker.ProcessorOptions)) *worker.Processor {
	o := worker.ProcessorOptions{
		Repo:     repo,
		Pipeline: p,
		Timeout:  time.Minute,
		Logger:   zerolog.Nop(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return worker.NewProcessor(o)
}

func TestProcessor_ReportJobWalksAllStates(t *testing.T) {
	repo := memory.NewJobRepository()
	job := repo.Create(entity.ModeReport, "AI and jobs", "trace_a")

	pub := &recordingPublisher{}
	p := &scriptedPipeline{events: []pipeline.Event{
		progress(pipeline.PhaseStarting, 5, "Starting research..."),
		progress(pipeline.PhasePlanning, 10, "Planning searches..."),
		progress(pipeline.PhasePlanning, 20, "Will perform 3 searches"),
		progress(pipeline.PhaseSearching, 25, "Starting web searches..."),
		progress(pipeline.PhaseSearching, 60, "All searches completed"),
		progress(pipeline.PhaseWriting, 65, "Thinking about report..."),
		progress(pipeline.PhaseWriting, 95, "Report completed"),
		{Result: reportResult()},
	}}

	proc := newProcessor(repo, p, func(o *worker.ProcessorOptions) { o.Publisher = pub })
	require.NoError(t, proc.Process(context.Background(), job.ID.String()))

	got, err := repo.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Nil(t, got.Error)
	require.IsType(t, &entity.ReportResult{}, got.Result)
	assert.Equal(t, "AI changes jobs", got.Result.(*entity.ReportResult).Summary)

	calls := p.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, pipeline.Request{TraceID: "trace_a", Query: "AI and jobs", Mode: entity.ModeReport}, calls[0])

	var statuses []entity.Status
	prev := 0
	for _, snap := range pub.snapshots() {
		if len(statuses) == 0 || statuses[len(statuses)-1] != snap.Status {
			statuses = append(statuses, snap.Status)
		}
		assert.GreaterOrEqual(t, snap.Progress, prev)
		prev = snap.Progress
		if snap.Status != entity.StatusCompleted {
			assert.Less(t, snap.Progress, 100)
			assert.Nil(t, snap.Result)
		}
	}
	assert.Equal(t, []entity.Status{
		entity.StatusPlanning,
		entity.StatusSearching,
		entity.StatusWriting,
		entity.StatusCompleted,
	}, statuses)
}

func TestProcessor_ClampsProgressRegression(t *testing.T) {
	repo := memory.NewJobRepository()
	job := repo.Create(entity.ModeReport, "q", "t")

	pub := &recordingPublisher{}
	p := &hangingPipeline{events: []pipeline.Event{
		progress(pipeline.PhaseSearching, 40, "Searching... 2/4 completed"),
		progress(pipeline.PhaseSearching, 30, "Searching... 3/4 completed"),
		{Err: &pipeline.Error{Code: entity.CodeUpstream, Message: "upstream error: bad gateway"}},
	}}

	proc := newProcessor(repo, p, func(o *worker.ProcessorOptions) { o.Publisher = pub })
	require.NoError(t, proc.Process(context.Background(), job.ID.String()))

	snaps := pub.snapshots()
	require.Len(t, snaps, 3)
	assert.Equal(t, 40, snaps[0].Progress)
	assert.Equal(t, 40, snaps[1].Progress)
	assert.Equal(t, "Searching... 3/4 completed", snaps[1].ProgressMessage)
}

func TestProcessor_FailureKeepsLastProgress(t *testing.T) {
	repo := memory.NewJobRepository()
	job := repo.Create(entity.ModeReport, "q", "t")

	p := &scriptedPipeline{events: []pipeline.Event{
		progress(pipeline.PhasePlanning, 10, "Planning searches..."),
		progress(pipeline.PhaseSearching, 35, "Searching... 1/3 completed"),
		{Err: pipeline.Translate(&openai.APIError{HTTPStatusCode: http.StatusBadGateway, Message: "bad gateway"})},
	}}

	require.NoError(t, newProcessor(repo, p).Process(context.Background(), job.ID.String()))

	got, err := repo.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, got.Status)
	assert.Equal(t, 35, got.Progress)
	assert.Nil(t, got.Result)
	require.NotNil(t, got.Error)
	assert.Equal(t, entity.CodeUpstream, got.Error.Code)
}

func TestProcessor_IgnoresEventsAfterTerminal(t *testing.T) {
	repo := memory.NewJobRepository()
	job := repo.Create(entity.ModeReport, "q", "t")

	p := &scriptedPipeline{events: []pipeline.Event{
		progress(pipeline.PhaseWriting, 80, "Writing report..."),
		{Result: reportResult()},
		progress(pipeline.PhaseSearching, 30, "late event"),
		{Err: &pipeline.Error{Code: entity.CodeUpstream, Message: "late failure"}},
	}}

	require.NoError(t, newProcessor(repo, p).Process(context.Background(), job.ID.String()))

	got, _ := repo.GetByID(job.ID)
	assert.Equal(t, entity.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Nil(t, got.Error)
	assert.NotNil(t, got.Result)
}

func TestProcessor_WatchdogFailsHangingRun(t *testing.T) {
	repo := memory.NewJobRepository()
	job := repo.Create(entity.ModeTrends, "HR trends", "t")

	p := &hangingPipeline{events: []pipeline.Event{progress(pipeline.PhaseSearching, 30, "Searching...")}}
	proc := newProcessor(repo, p, func(o *worker.ProcessorOptions) { o.Timeout = 50 * time.Millisecond })

	done := make(chan struct{})
	go func() {
		_ = proc.Process(context.Background(), job.ID.String())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("processor did not give up on a hanging pipeline")
	}

	got, _ := repo.GetByID(job.ID)
	assert.Equal(t, entity.StatusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, entity.CodeTimeout, got.Error.Code)
	assert.Equal(t, 30, got.Progress)
}

func TestProcessor_WatchdogWinsOverClosedChannel(t *testing.T) {
	for i := 0; i < 40; i++ {
		repo := memory.NewJobRepository()
		job := repo.Create(entity.ModeReport, "AI and jobs", "t")

		p := &cancelClosingPipeline{event: progress(pipeline.PhasePlanning, 10, "Planning searches...")}
		proc := newProcessor(repo, p, func(o *worker.ProcessorOptions) {
			o.Timeout = 5 * time.Millisecond
			o.Publisher = slowPublisher{delay: 30 * time.Millisecond}
		})
		require.NoError(t, proc.Process(context.Background(), job.ID.String()))

		got, err := repo.GetByID(job.ID)
		require.NoError(t, err)
		require.Equal(t, entity.StatusFailed, got.Status, "run %d", i)
		require.NotNil(t, got.Error, "run %d", i)
		require.Equal(t, entity.CodeTimeout, got.Error.Code, "run %d", i)
	}
}

func TestProcessor_ShutdownCancelsRun(t *testing.T) {
	repo := memory.NewJobRepository()
	job := repo.Create(entity.ModeReport, "q", "t")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, newProcessor(repo, &hangingPipeline{}).Process(ctx, job.ID.String()))

	got, _ := repo.GetByID(job.ID)
	assert.Equal(t, entity.StatusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, entity.CodeCanceled, got.Error.Code)
}

func TestProcessor_UnexpectedEndsAreForcedToFailed(t *testing.T) {
	tests := []struct {
		name     string
		mode     entity.Mode
		pipeline pipeline.Pipeline
		want     entity.ErrorCode
	}{
		{
			name:     "channel closed without result",
			mode:     entity.ModeReport,
			pipeline: &scriptedPipeline{events: []pipeline.Event{progress(pipeline.PhasePlanning, 10, "")}},
			want:     entity.CodeInternal,
		},
		{
			name:     "run panics",
			mode:     entity.ModeReport,
			pipeline: panickingPipeline{},
			want:     entity.CodeInternal,
		},
		{
			name:     "run rejects request",
			mode:     entity.ModeReport,
			pipeline: &scriptedPipeline{err: &pipeline.Error{Code: entity.CodeInvalidMode, Message: "unsupported mode"}},
			want:     entity.CodeInvalidMode,
		},
		{
			name:     "run returns native error",
			mode:     entity.ModeReport,
			pipeline: &scriptedPipeline{err: errors.New("boom")},
			want:     entity.CodeInternal,
		},
		{
			name:     "result for the wrong mode",
			mode:     entity.ModeTrends,
			pipeline: &scriptedPipeline{events: []pipeline.Event{{Result: reportResult()}}},
			want:     entity.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewJobRepository()
			job := repo.Create(tt.mode, "q", "t")

			require.NoError(t, newProcessor(repo, tt.pipeline).Process(context.Background(), job.ID.String()))

			got, _ := repo.GetByID(job.ID)
			assert.Equal(t, entity.StatusFailed, got.Status)
			require.NotNil(t, got.Error)
			assert.Equal(t, tt.want, got.Error.Code)
			assert.Nil(t, got.Result)
		})
	}
}

func TestProcessor_ArchivesTerminalJobOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	archive := NewMockJobArchive(ctrl)
	publisher := NewMockProgressPublisher(ctrl)

	repo := memory.NewJobRepository()
	job := repo.Create(entity.ModeReport, "q", "t")

	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("redis down")).Times(2)
	archive.EXPECT().
		Save(gomock.Any(), gomock.Cond(func(j entity.ResearchJob) bool {
			return j.ID == job.ID && j.Status == entity.StatusCompleted && j.Result != nil
		})).
		Return(nil).
		Times(1)

	p := &scriptedPipeline{events: []pipeline.Event{
		progress(pipeline.PhasePlanning, 10, ""),
		{Result: reportResult()},
	}}
	proc := newProcessor(repo, p, func(o *worker.ProcessorOptions) {
		o.Archive = archive
		o.Publisher = publisher
	})

	require.NoError(t, proc.Process(context.Background(), job.ID.String()))

	got, _ := repo.GetByID(job.ID)
	assert.Equal(t, entity.StatusCompleted, got.Status, "publisher errors never affect the job")
}

func TestProcessor_SkipsFinishedAndUnknownJobs(t *testing.T) {
	repo := memory.NewJobRepository()
	job := repo.Create(entity.ModeReport, "q", "t")
	_, err := repo.Update(job.ID, func(j *entity.ResearchJob) error {
		j.Fail(entity.JobError{Code: entity.CodeInternal, Message: "x"})
		return nil
	})
	require.NoError(t, err)

	p := &scriptedPipeline{}
	proc := newProcessor(repo, p)

	assert.NoError(t, proc.Process(context.Background(), job.ID.String()))
	assert.Empty(t, p.calls())

	assert.Error(t, proc.Process(context.Background(), "not-a-uuid"))
	assert.ErrorIs(t, proc.Process(context.Background(), "11111111-1111-1111-1111-111111111111"), memory.ErrNotFound)
}
