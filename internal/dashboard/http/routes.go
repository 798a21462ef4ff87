package dashboardhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/vistara/donation-dashboard/internal/platform/httpx"
)

// MountRoutes registers dashboard and insights endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil || h.tracks == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "refresh limit reached")
		}),
	)

	r.Get("/dashboard", h.handleDashboard)
	r.Get("/dashboard/state", h.handleDashboardState)
	r.Get("/dashboard/export.csv", h.handleCSV)
	r.Get("/insights", h.handleInsights)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/dashboard/refresh", h.handleDashboardRefresh)
		gr.Post("/insights/refresh", h.handleInsightsRefresh)
	})
}
