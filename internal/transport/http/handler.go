package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"research-api/internal/entity"
	"research-api/internal/service"
)

const apiVersion = "1.0.0"

type Handler struct {
	svc    *service.ResearchService
	logger zerolog.Logger
}

func NewHandler(svc *service.ResearchService, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.With().Str("component", "http").Logger()}
}

type createResearchDTO struct {
	Query string `json:"query" example:"Impact of AI on the labour market"`
	Mode  string `json:"mode,omitempty" enums:"report,trends" default:"report"`
	// accepted for compatibility, never called
	CallbackURL *string `json:"callback_url,omitempty"`
}

type createResearchResp struct {
	ResearchID string        `json:"research_id"`
	Status     entity.Status `json:"status"`
	TraceID    string        `json:"trace_id"`
}

type trendDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type jobErrorDTO struct {
	Code    entity.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

type researchStatusResp struct {
	ResearchID        string        `json:"research_id"`
	Mode              entity.Mode   `json:"mode"`
	TraceID           string        `json:"trace_id"`
	Status            entity.Status `json:"status"`
	Progress          int           `json:"progress"`
	ProgressMessage   string        `json:"progress_message"`
	ReportSummary     *string       `json:"report_summary"`
	ReportMarkdown    *string       `json:"report_markdown"`
	FollowUpQuestions []string      `json:"follow_up_questions"`
	Topic             *string       `json:"topic"`
	Summary           *string       `json:"summary"`
	Trends            []trendDTO    `json:"trends"`
	Error             *jobErrorDTO  `json:"error"`
	CreatedAt         string        `json:"created_at"`
	UpdatedAt         string        `json:"updated_at"`
}

type reportResp struct {
	ResearchID        string   `json:"research_id"`
	Summary           string   `json:"summary"`
	Report            string   `json:"report"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

type trendsResp struct {
	ResearchID string     `json:"research_id"`
	Topic      string     `json:"topic"`
	Summary    string     `json:"summary"`
	Trends     []trendDTO `json:"trends"`
}

type rootResp struct {
	Message       string   `json:"message"`
	Version       string   `json:"version"`
	Documentation string   `json:"documentation"`
	Modes         []string `json:"modes"`
	Auth          string   `json:"auth"`
}

// Root godoc
// @Summary Describe the API
// @Tags meta
// @Produce json
// @Success 200 {object} rootResp
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResp{
		Message:       "Research API is running",
		Version:       apiVersion,
		Documentation: "/swagger/index.html",
		Modes:         []string{string(entity.ModeReport), string(entity.ModeTrends)},
		Auth:          "API key required (" + HeaderAPIKey + " or " + HeaderAPIKeyAlt + " header)",
	})
}

// CreateResearch godoc
// @Summary Start a research job
// @Description Creates a queued research job and schedules it for background processing.
// @Tags research
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body createResearchDTO true "research request (mode: report or trends)"
// @Success 200 {object} createResearchResp
// @Failure 400 {object} apiError
// @Failure 401 {object} apiError
// @Failure 403 {object} apiError
// @Failure 500 {object} apiError
// @Router /research [post]
func (h *Handler) CreateResearch(w http.ResponseWriter, r *http.Request) {
	var dto createResearchDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	mode := entity.Mode(dto.Mode)
	if mode == "" {
		mode = entity.ModeReport
	}

	sub, err := h.svc.Submit(r.Context(), service.SubmitRequest{Query: dto.Query, Mode: mode})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info().
		Str("job_id", sub.ID.String()).
		Str("trace_id", sub.TraceID).
		Str("mode", string(mode)).
		Msg("research submitted")

	writeJSON(w, http.StatusOK, createResearchResp{
		ResearchID: sub.ID.String(),
		Status:     sub.Status,
		TraceID:    sub.TraceID,
	})
}

// GetResearch godoc
// @Summary Get research status
// @Description Result fields stay null until the job is completed.
// @Tags research
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "research id (uuid)"
// @Success 200 {object} researchStatusResp
// @Failure 401 {object} apiError
// @Failure 403 {object} apiError
// @Failure 404 {object} apiError
// @Router /research/{id} [get]
func (h *Handler) GetResearch(w http.ResponseWriter, r *http.Request) {
	j, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResp(j))
}

// GetReport godoc
// @Summary Get the finished report
// @Tags research
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "research id (uuid)"
// @Success 200 {object} reportResp
// @Failure 400 {object} apiError "job was run in trends mode"
// @Failure 404 {object} apiError
// @Failure 409 {object} apiError "job not completed or failed"
// @Router /research/{id}/report [get]
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportResp{
		ResearchID:        v.ID.String(),
		Summary:           v.Summary,
		Report:            v.Report,
		FollowUpQuestions: v.FollowUpQuestions,
	})
}

// GetTrends godoc
// @Summary Get the trend digest
// @Tags research
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "research id (uuid)"
// @Success 200 {object} trendsResp
// @Failure 400 {object} apiError "job was run in report mode"
// @Failure 404 {object} apiError
// @Failure 409 {object} apiError "job not completed or failed"
// @Router /research/{id}/trends [get]
func (h *Handler) GetTrends(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Trends(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trendsResp{
		ResearchID: v.ID.String(),
		Topic:      v.Topic,
		Summary:    v.Summary,
		Trends:     toTrendDTOs(v.Trends),
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var failed *service.JobFailedError
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeErr(w, http.StatusNotFound, "research not found")
	case errors.Is(err, service.ErrWrongMode):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotReady):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.As(err, &failed):
		writeJSON(w, http.StatusConflict, apiError{Message: failed.Cause.Message, Code: string(failed.Cause.Code)})
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func toStatusResp(j entity.ResearchJob) researchStatusResp {
	resp := researchStatusResp{
		ResearchID:      j.ID.String(),
		Mode:            j.Mode,
		TraceID:         j.TraceID,
		Status:          j.Status,
		Progress:        j.Progress,
		ProgressMessage: j.ProgressMessage,
		CreatedAt:       j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       j.UpdatedAt.Format(time.RFC3339),
	}

	switch res := j.Result.(type) {
	case *entity.ReportResult:
		resp.ReportSummary = &res.Summary
		resp.ReportMarkdown = &res.Markdown
		resp.FollowUpQuestions = res.FollowUpQuestions
		if resp.FollowUpQuestions == nil {
			resp.FollowUpQuestions = []string{}
		}
	case *entity.TrendsResult:
		resp.Topic = &res.Topic
		resp.Summary = &res.Summary
		resp.Trends = toTrendDTOs(res.Trends)
	}

	if j.Error != nil {
		resp.Error = &jobErrorDTO{Code: j.Error.Code, Message: j.Error.Message}
	}
	return resp
}

func toTrendDTOs(trends []entity.Trend) []trendDTO {
	out := make([]trendDTO, 0, len(trends))
	for _, t := range trends {
		out = append(out, trendDTO{Title: t.Title, Description: t.Description})
	}
	return out
}
