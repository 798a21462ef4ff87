package e2e

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vistara/donation-dashboard/internal/controller"
	"github.com/vistara/donation-dashboard/internal/dashboard"
	"github.com/vistara/donation-dashboard/internal/insights"
	"github.com/vistara/donation-dashboard/report"
)

type flowResponse struct {
	Status      controller.DashboardStatus `json:"status"`
	PeriodLabel string                     `json:"period_label"`
	Source      controller.Source          `json:"source"`
	Cards       []dashboard.Card           `json:"cards"`
	Model       *dashboard.ViewModel       `json:"model"`
}

func TestDashboardInsightsAndReportFlow(t *testing.T) {
	var dashboardHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		dashboardHits.Add(1)
		_, _ = w.Write([]byte(`{"kpis":{"total_donations":250000,"total_transactions":40,"total_campaigns":3,"avg_donation":6250},
			"trend":[{"date":"Oct 01","total":250000,"transaction_count":40,"unique_donors":31}]}`))
	})
	mux.HandleFunc("/api/ai-insights-complete", http.NotFound)
	mux.HandleFunc("/api/ai-insights", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"weekend_performance":-50}`))
	})
	mux.HandleFunc("/api/forecast", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"growth_rate":20}`))
	})
	mux.HandleFunc("/reports/yearly/2024", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="donations-2024.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.4"))
	})
	s := newStack(t, mux)

	rr := s.do(t, http.MethodGet, "/api/v1/dashboard?period=monthly")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status %d: %s", rr.Code, rr.Body.String())
	}
	var dash flowResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.Source != controller.SourceLive || dash.PeriodLabel != "Last 30 Days" {
		t.Fatalf("unexpected dashboard %+v", dash)
	}
	if dash.Model == nil || len(dash.Model.Trend) != 1 || dash.Model.Trend[0].Transactions != 40 {
		t.Fatalf("unexpected trend %+v", dash.Model)
	}
	if len(dash.Cards) != 4 {
		t.Fatalf("expected four cards, got %+v", dash.Cards)
	}

	// Served from the payload cache until a manual refresh bumps the version.
	s.do(t, http.MethodGet, "/api/v1/dashboard?period=monthly")
	if got := dashboardHits.Load(); got != 1 {
		t.Fatalf("expected cached second fetch, backend hit %d times", got)
	}
	if rr := s.do(t, http.MethodPost, "/api/v1/dashboard/refresh"); rr.Code != http.StatusOK {
		t.Fatalf("refresh status %d", rr.Code)
	}
	if got := dashboardHits.Load(); got != 2 {
		t.Fatalf("refresh must reach the backend, hit %d times", got)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/insights")
	if rr.Code != http.StatusOK {
		t.Fatalf("insights status %d: %s", rr.Code, rr.Body.String())
	}
	var ins struct {
		Status controller.InsightsStatus `json:"status"`
		Model  *insights.ViewModel       `json:"model"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &ins); err != nil {
		t.Fatalf("decode insights: %v", err)
	}
	if ins.Status != controller.InsightsReady || ins.Model == nil {
		t.Fatalf("unexpected insights %+v", ins)
	}
	if got := ins.Model.PatternInsights[0].Metric; got != "-50.0%" {
		t.Fatalf("unexpected weekend metric %q", got)
	}
	if got := ins.Model.MLPredictions.GrowthRate; got != 20 {
		t.Fatalf("unexpected growth rate %v", got)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/reports/yearly?year=2024")
	if rr.Code != http.StatusOK {
		t.Fatalf("report status %d: %s", rr.Code, rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "donations-2024.pdf") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if rr.Body.String() != "%PDF-1.4" {
		t.Fatalf("unexpected report body %q", rr.Body.String())
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		var progress report.Progress
		if err := json.Unmarshal(s.do(t, http.MethodGet, "/api/v1/reports/progress").Body.Bytes(), &progress); err != nil {
			t.Fatalf("decode progress: %v", err)
		}
		if !progress.Active && progress.Percent == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("progress never reset: %+v", progress)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
