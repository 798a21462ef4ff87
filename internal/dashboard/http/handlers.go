package dashboardhttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vistara/donation-dashboard/internal/controller"
	"github.com/vistara/donation-dashboard/internal/dashboard"
	"github.com/vistara/donation-dashboard/internal/dashboard/export"
	"github.com/vistara/donation-dashboard/internal/platform/httpx"
)

// Tracks is the controller surface the handlers drive.
type Tracks interface {
	Dashboard() controller.DashboardState
	Insights() controller.InsightsState
	Period() dashboard.Period
	SelectPeriod(ctx context.Context, period dashboard.Period) controller.DashboardState
	RefreshDashboard(ctx context.Context) controller.DashboardState
	ActivateInsights(ctx context.Context) controller.InsightsState
	RefreshInsights(ctx context.Context) controller.InsightsState
}

// Handler exposes both tracks as JSON endpoints.
type Handler struct {
	logger    *slog.Logger
	tracks    Tracks
	validator *validator.Validate
}

// NewHandler constructs the dashboard handler.
func NewHandler(logger *slog.Logger, tracks Tracks) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, tracks: tracks, validator: validator.New()}
}

type periodQuery struct {
	Period string `validate:"omitempty,oneof=weekly monthly yearly all"`
}

type periodOption struct {
	Value dashboard.Period `json:"value"`
	Label string           `json:"label"`
}

type dashboardResponse struct {
	Status      controller.DashboardStatus `json:"status"`
	Refreshing  bool                       `json:"refreshing"`
	Period      dashboard.Period           `json:"period"`
	PeriodLabel string                     `json:"period_label"`
	Source      controller.Source          `json:"source,omitempty"`
	Periods     []periodOption             `json:"periods"`
	Cards       []dashboard.Card           `json:"cards,omitempty"`
	Model       *dashboard.ViewModel       `json:"model,omitempty"`
	UpdatedAt   *time.Time                 `json:"updated_at,omitempty"`
}

type insightsResponse struct {
	controller.InsightsState
	Retryable bool `json:"retryable"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	query := periodQuery{Period: r.URL.Query().Get("period")}
	if err := h.validator.Struct(query); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: period must be one of weekly, monthly, yearly, all", httpx.ErrValidation))
		return
	}
	period := h.tracks.Period()
	if query.Period != "" {
		parsed, err := dashboard.ParsePeriod(query.Period)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
			return
		}
		period = parsed
	}
	state := h.tracks.SelectPeriod(r.Context(), period)
	httpx.JSON(w, http.StatusOK, presentDashboard(state))
}

func (h *Handler) handleDashboardState(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, presentDashboard(h.tracks.Dashboard()))
}

func (h *Handler) handleDashboardRefresh(w http.ResponseWriter, r *http.Request) {
	state := h.tracks.RefreshDashboard(r.Context())
	httpx.JSON(w, http.StatusOK, presentDashboard(state))
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	state := h.tracks.Dashboard()
	if state.Model == nil {
		state = h.tracks.SelectPeriod(r.Context(), h.tracks.Period())
	}
	if state.Model == nil {
		httpx.RespondError(w, fmt.Errorf("%w: dashboard not loaded", httpx.ErrNotFound))
		return
	}

	var buf bytes.Buffer
	if err := export.WriteDashboardCSV(&buf, *state.Model); err != nil {
		h.logger.Error("export dashboard csv", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	filename := fmt.Sprintf("donations-%s.csv", state.Model.Period)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	h.respondInsights(w, h.tracks.ActivateInsights(r.Context()))
}

func (h *Handler) handleInsightsRefresh(w http.ResponseWriter, r *http.Request) {
	h.respondInsights(w, h.tracks.RefreshInsights(r.Context()))
}

func (h *Handler) respondInsights(w http.ResponseWriter, state controller.InsightsState) {
	switch state.Status {
	case controller.InsightsFailed:
		httpx.WriteProblem(w, httpx.ProblemDetail{
			Title:     "Bad Gateway",
			Status:    http.StatusBadGateway,
			Detail:    state.Error,
			Retryable: state.Retryable(),
		})
	case controller.InsightsLoading:
		httpx.JSON(w, http.StatusAccepted, insightsResponse{InsightsState: state})
	default:
		httpx.JSON(w, http.StatusOK, insightsResponse{InsightsState: state, Retryable: state.Retryable()})
	}
}

func presentDashboard(state controller.DashboardState) dashboardResponse {
	resp := dashboardResponse{
		Status:      state.Status,
		Refreshing:  state.Refreshing,
		Period:      state.Period,
		PeriodLabel: state.Period.Label(),
		Source:      state.Source,
		Periods:     periodOptions(),
		Model:       state.Model,
	}
	if state.Model != nil {
		resp.Cards = dashboard.Cards(*state.Model)
	}
	if !state.UpdatedAt.IsZero() {
		at := state.UpdatedAt
		resp.UpdatedAt = &at
	}
	return resp
}

func periodOptions() []periodOption {
	options := make([]periodOption, 0, len(dashboard.Periods))
	for _, p := range dashboard.Periods {
		options = append(options, periodOption{Value: p, Label: p.Label()})
	}
	return options
}
