package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"research-api/internal/entity"
	"research-api/internal/llm"
)

// Completer is the single model call every agent is built on (implementation: llm.OpenAI).
type Completer interface {
	Complete(ctx context.Context, p llm.Prompt) (string, error)
}

const (
	defaultMaxSearches       = 5
	defaultSearchConcurrency = 3
	maxWriterInput           = 50000

	noResultsText = "No search results found. Please try a different query or check your internet connection."
)

type Options struct {
	Completer         Completer
	MaxSearches       int
	SearchConcurrency int
	Logger            zerolog.Logger
}

// Research is the planner -> searches -> writer pipeline. In trends mode the
// writer is replaced by the trends analyst.
type Research struct {
	completer   Completer
	maxSearches int
	concurrency int
	log         zerolog.Logger
}

func NewResearch(opts Options) (*Research, error) {
	if opts.Completer == nil {
		return nil, newError(entity.CodeConfiguration, "research pipeline needs a model client", nil)
	}
	if opts.MaxSearches <= 0 {
		opts.MaxSearches = defaultMaxSearches
	}
	if opts.SearchConcurrency <= 0 {
		opts.SearchConcurrency = defaultSearchConcurrency
	}
	return &Research{
		completer:   opts.Completer,
		maxSearches: opts.MaxSearches,
		concurrency: opts.SearchConcurrency,
		log:         opts.Logger.With().Str("component", "pipeline").Logger(),
	}, nil
}

func (p *Research) Run(ctx context.Context, req Request) (<-chan Event, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		out := emitter{ctx: ctx, ch: events}

		defer func() {
			if rec := recover(); rec != nil {
				p.log.Error().Str("trace_id", req.TraceID).Interface("panic", rec).Msg("pipeline panic")
				out.send(Event{Err: newError(entity.CodeInternal, "research pipeline crashed", fmt.Errorf("panic: %v", rec))})
			}
		}()

		result, err := p.execute(ctx, req, out)
		if err != nil {
			out.send(Event{Err: Translate(err)})
			return
		}
		out.send(Event{Result: result})
	}()
	return events, nil
}

func (p *Research) execute(ctx context.Context, req Request, out emitter) (entity.Result, error) {
	out.progress(PhaseStarting, 5, "Starting research...")

	plan, err := p.plan(ctx, req, out)
	if err != nil {
		return nil, err
	}

	results, err := p.search(ctx, req, plan, out)
	if err != nil {
		return nil, err
	}

	if req.Mode == entity.ModeTrends {
		return p.analyzeTrends(ctx, req, results, out)
	}
	return p.writeReport(ctx, req, results, out)
}

type searchItem struct {
	Query  string `json:"query"`
	Reason string `json:"reason"`
}

type searchPlan struct {
	Searches []searchItem `json:"searches"`
}

// plan asks the planner for searches. A failed or empty plan falls back to
// searching the query itself; only credential and context errors abort.
func (p *Research) plan(ctx context.Context, req Request, out emitter) (searchPlan, error) {
	out.progress(PhasePlanning, 10, "Planning searches...")

	fallback := searchPlan{Searches: []searchItem{{Query: req.Query, Reason: "Direct search for the query"}}}

	text, err := p.completer.Complete(ctx, llm.Prompt{
		Agent:  "planner",
		System: plannerInstructions,
		User:   "Query: " + req.Query,
		JSON:   true,
	})
	if err == nil {
		var plan searchPlan
		if err = decodeObject(text, &plan); err == nil {
			plan.Searches = cleanSearches(plan.Searches, p.maxSearches)
			if len(plan.Searches) > 0 {
				out.progress(PhasePlanning, 20, fmt.Sprintf("Will perform %d searches", len(plan.Searches)))
				return plan, nil
			}
			err = errors.New("planner returned no searches")
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return searchPlan{}, ctxErr
	}
	if te := Translate(err); te.Code == entity.CodeConfiguration {
		return searchPlan{}, te
	}

	p.log.Warn().Err(err).Str("trace_id", req.TraceID).Msg("planner failed, using fallback plan")
	out.progress(PhasePlanning, 20, "Created fallback plan")
	return fallback, nil
}

func cleanSearches(items []searchItem, limit int) []searchItem {
	out := make([]searchItem, 0, len(items))
	for _, it := range items {
		it.Query = strings.TrimSpace(it.Query)
		if it.Query == "" {
			continue
		}
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	return out
}

type searchOutcome struct {
	item searchItem
	text string
	err  error
}

// search runs the planned searches concurrently and reports 25..60 percent as
// they finish. Failed searches are skipped.
func (p *Research) search(ctx context.Context, req Request, plan searchPlan, out emitter) ([]string, error) {
	total := len(plan.Searches)
	out.progress(PhaseSearching, 25, "Starting web searches...")

	outcomes := make(chan searchOutcome, total)
	go func() {
		var g errgroup.Group
		g.SetLimit(p.concurrency)
		for _, item := range plan.Searches {
			g.Go(func() error {
				text, err := p.completer.Complete(ctx, llm.Prompt{
					Agent:  "search",
					System: searchInstructions,
					User:   fmt.Sprintf("Search term: %s\nReason for searching: %s", item.Query, item.Reason),
				})
				outcomes <- searchOutcome{item: item, text: text, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(outcomes)
	}()

	results := make([]string, 0, total)
	done := 0
	for o := range outcomes {
		done++
		if o.err != nil {
			p.log.Warn().Err(o.err).Str("trace_id", req.TraceID).Str("search", o.item.Query).Msg("search failed")
		} else if strings.TrimSpace(o.text) != "" {
			results = append(results, o.text)
		}
		out.progress(PhaseSearching, 25+done*35/total, fmt.Sprintf("Searching... %d/%d completed", done, total))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out.progress(PhaseSearching, 60, "All searches completed")

	if len(results) == 0 {
		results = append(results, noResultsText)
	}
	return results, nil
}

type reportPayload struct {
	ShortSummary      string   `json:"short_summary"`
	MarkdownReport    string   `json:"markdown_report"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

func (p *Research) writeReport(ctx context.Context, req Request, results []string, out emitter) (entity.Result, error) {
	out.progress(PhaseWriting, 65, "Thinking about report...")

	input := fmt.Sprintf("Original query: %s\nSummarized search results: %s",
		req.Query, truncate(strings.Join(results, "\n\n"), maxWriterInput))

	out.progress(PhaseWriting, 70, "Writing report...")
	text, err := p.completer.Complete(ctx, llm.Prompt{
		Agent:  "writer",
		System: writerInstructions,
		User:   input,
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	var payload reportPayload
	if err := decodeObject(text, &payload); err != nil {
		return nil, newError(entity.CodeInvalidOutput, "writer output could not be parsed", err)
	}
	if strings.TrimSpace(payload.ShortSummary) == "" || strings.TrimSpace(payload.MarkdownReport) == "" {
		return nil, newError(entity.CodeInvalidOutput, "writer output is missing summary or report", nil)
	}

	questions := make([]string, 0, len(payload.FollowUpQuestions))
	for _, q := range payload.FollowUpQuestions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}

	out.progress(PhaseWriting, 95, "Report completed")
	return &entity.ReportResult{
		Summary:           payload.ShortSummary,
		Markdown:          payload.MarkdownReport,
		FollowUpQuestions: questions,
	}, nil
}

type trendsPayload struct {
	Topic   string         `json:"topic"`
	Summary string         `json:"summary"`
	Trends  []entity.Trend `json:"trends"`
}

func (p *Research) analyzeTrends(ctx context.Context, req Request, results []string, out emitter) (entity.Result, error) {
	out.progress(PhaseAnalyzing, 65, "Analyzing trends...")

	input := fmt.Sprintf("Topic for trend analysis: %s\nSearch results: %s",
		req.Query, truncate(strings.Join(results, "\n\n"), maxWriterInput))

	out.progress(PhaseAnalyzing, 70, "Analyzing trends...")
	text, err := p.completer.Complete(ctx, llm.Prompt{
		Agent:  "trends",
		System: trendsInstructions,
		User:   input,
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	var payload trendsPayload
	if err := decodeObject(text, &payload); err != nil {
		return nil, newError(entity.CodeInvalidOutput, "trends output could not be parsed", err)
	}

	trends := make([]entity.Trend, 0, entity.TrendsTarget)
	for _, tr := range payload.Trends {
		tr.Title = strings.TrimSpace(tr.Title)
		tr.Description = strings.TrimSpace(tr.Description)
		if tr.Title == "" || tr.Description == "" {
			continue
		}
		trends = append(trends, tr)
		if len(trends) == entity.TrendsTarget {
			break
		}
	}
	if len(trends) == 0 {
		return nil, newError(entity.CodeInvalidOutput, "trends output contains no trends", nil)
	}
	if len(trends) < entity.TrendsTarget {
		p.log.Warn().Str("trace_id", req.TraceID).Int("trends", len(trends)).Msg("fewer trends than requested")
	}

	topic := strings.TrimSpace(payload.Topic)
	if topic == "" {
		topic = req.Query
	}

	out.progress(PhaseAnalyzing, 95, "Trend analysis completed")
	return &entity.TrendsResult{
		Topic:   topic,
		Summary: payload.Summary,
		Trends:  trends,
	}, nil
}
