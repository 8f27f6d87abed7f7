package service

import (
	"fmt"

	"github.com/google/uuid"

	"research-api/internal/entity"
)

type ReportView struct {
	ID                uuid.UUID
	Summary           string
	Report            string
	FollowUpQuestions []string
}

type TrendsView struct {
	ID      uuid.UUID
	Topic   string
	Summary string
	Trends  []entity.Trend
}

// ProjectReport returns the stored report unchanged.
func ProjectReport(job entity.ResearchJob) (ReportView, error) {
	if err := readyFor(job, entity.ModeReport); err != nil {
		return ReportView{}, err
	}
	res, ok := job.Result.(*entity.ReportResult)
	if !ok {
		return ReportView{}, fmt.Errorf("research %s: stored result has type %T", job.ID, job.Result)
	}
	questions := res.FollowUpQuestions
	if questions == nil {
		questions = []string{}
	}
	return ReportView{
		ID:                job.ID,
		Summary:           res.Summary,
		Report:            res.Markdown,
		FollowUpQuestions: questions,
	}, nil
}

// ProjectTrends returns all stored trends, even when the pipeline produced
// fewer than entity.TrendsTarget.
func ProjectTrends(job entity.ResearchJob) (TrendsView, error) {
	if err := readyFor(job, entity.ModeTrends); err != nil {
		return TrendsView{}, err
	}
	res, ok := job.Result.(*entity.TrendsResult)
	if !ok {
		return TrendsView{}, fmt.Errorf("research %s: stored result has type %T", job.ID, job.Result)
	}
	trends := res.Trends
	if trends == nil {
		trends = []entity.Trend{}
	}
	return TrendsView{
		ID:      job.ID,
		Topic:   res.Topic,
		Summary: res.Summary,
		Trends:  trends,
	}, nil
}

// readyFor checks mode first: asking a report job for trends is wrong in
// every state, not only once it completes.
func readyFor(job entity.ResearchJob, view entity.Mode) error {
	if job.Mode != view {
		return fmt.Errorf("%w: research %s was run in %s mode, not %s", ErrWrongMode, job.ID, job.Mode, view)
	}
	switch job.Status {
	case entity.StatusCompleted:
		return nil
	case entity.StatusFailed:
		cause := entity.JobError{Code: entity.CodeInternal, Message: "unknown failure"}
		if job.Error != nil {
			cause = *job.Error
		}
		return &JobFailedError{ID: job.ID, Cause: cause}
	default:
		return fmt.Errorf("%w: research %s is %s (%d%%)", ErrNotReady, job.ID, job.Status, job.Progress)
	}
}
