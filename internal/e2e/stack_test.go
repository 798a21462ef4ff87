package e2e

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/vistara/donation-dashboard/internal/app"
	"github.com/vistara/donation-dashboard/internal/controller"
	dashboardhttp "github.com/vistara/donation-dashboard/internal/dashboard/http"
	"github.com/vistara/donation-dashboard/internal/insights"
	"github.com/vistara/donation-dashboard/internal/observability"
	"github.com/vistara/donation-dashboard/internal/upstream"
	"github.com/vistara/donation-dashboard/report"
)

type stack struct {
	router   http.Handler
	ctrl     *controller.Controller
	metrics  *observability.Metrics
	reports  *report.Service
	redis    *miniredis.Miniredis
	upstream *httptest.Server
}

// newStack wires the BFF the same way cmd/dashboard does, against backend.
func newStack(t *testing.T, backend http.Handler) *stack {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	metrics := observability.NewMetrics()
	cache := upstream.NewCache(rdb, time.Minute, nil).WithObserver(metrics)
	client, err := upstream.NewClient(srv.URL, srv.Client(), cache, nil)
	if err != nil {
		t.Fatalf("new upstream client: %v", err)
	}
	client.WithObserver(metrics)

	ctrl := controller.New(controller.Config{
		Dashboard:   client,
		Insights:    insights.NewLoader(client, nil),
		Invalidator: client,
		Observer:    metrics,
	})
	reports := report.NewService(client, nil).WithResetDelay(10 * time.Millisecond)
	router := app.NewRouter(app.RouterParams{
		Config:           &app.Config{AppEnv: "test"},
		DashboardHandler: dashboardhttp.NewHandler(nil, ctrl),
		ReportHandler:    report.NewHandler(reports, nil),
		Metrics:          metrics,
	})
	return &stack{router: router, ctrl: ctrl, metrics: metrics, reports: reports, redis: mr, upstream: srv}
}

func (s *stack) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func (s *stack) scrape(t *testing.T) string {
	t.Helper()
	rr := s.do(t, http.MethodGet, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status %d", rr.Code)
	}
	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}
