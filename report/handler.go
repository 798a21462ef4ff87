package report

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/vistara/donation-dashboard/internal/platform/httpx"
)

const (
	rateLimit  = 10
	rateWindow = time.Minute
)

// Handler manages report endpoints.
type Handler struct {
	service   *Service
	logger    *slog.Logger
	validator *validator.Validate
	now       func() time.Time
}

// NewHandler creates a report handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger, validator: validator.New(), now: time.Now}
}

// MountRoutes registers report routes. Downloads share a per-IP limit.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "report download limit reached")
		}),
	)
	r.Get("/reports/progress", h.progress)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/reports/{type}", h.download)
	})
}

type downloadQuery struct {
	Type string `validate:"required,oneof=weekly monthly yearly"`
	Year int    `validate:"gte=2000,lte=2100"`
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	query := downloadQuery{Type: chi.URLParam(r, "type"), Year: h.now().Year()}
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: year must be a number", httpx.ErrValidation))
			return
		}
		query.Year = year
	}
	if err := h.validator.Struct(query); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, describe(err)))
		return
	}

	file, err := h.service.Download(r.Context(), Type(query.Type), query.Year)
	if err != nil {
		var derr *DownloadError
		switch {
		case errors.Is(err, ErrBusy):
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrConflict, err))
		case errors.As(err, &derr):
			httpx.WriteProblem(w, httpx.ProblemDetail{
				Title:     "Bad Gateway",
				Status:    http.StatusBadGateway,
				Detail:    derr.Error(),
				Retryable: true,
			})
		default:
			h.logger.Error("report download", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("X-Report-ID", file.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Body)
}

func (h *Handler) progress(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Progress())
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Type":
		return "report type must be one of weekly, monthly, yearly"
	case "Year":
		return "year must be between 2000 and 2100"
	}
	return fe.Error()
}
