package controller

import (
	"time"

	"github.com/vistara/donation-dashboard/internal/dashboard"
	"github.com/vistara/donation-dashboard/internal/insights"
)

// Track identifies one of the two independent view-model slots.
type Track string

const (
	TrackDashboard Track = "dashboard"
	TrackInsights  Track = "insights"
)

// DashboardStatus is the Track A lifecycle.
type DashboardStatus string

const (
	DashboardLoading DashboardStatus = "loading"
	DashboardReady   DashboardStatus = "ready"
)

// Source records where the current dashboard model came from.
type Source string

const (
	SourceLive      Source = "live"
	SourceSynthetic Source = "synthetic"
)

// DashboardState is a snapshot of Track A. Refreshing is only set while
// Ready, so the previous model stays visible during a fetch.
type DashboardState struct {
	Status     DashboardStatus      `json:"status"`
	Refreshing bool                 `json:"refreshing"`
	Period     dashboard.Period     `json:"period"`
	Source     Source               `json:"source,omitempty"`
	Model      *dashboard.ViewModel `json:"model,omitempty"`
	Seq        uint64               `json:"seq"`
	UpdatedAt  time.Time            `json:"updated_at,omitempty"`
}

// InsightsStatus is the Track B lifecycle.
type InsightsStatus string

const (
	InsightsIdle    InsightsStatus = "idle"
	InsightsLoading InsightsStatus = "loading"
	InsightsReady   InsightsStatus = "ready"
	InsightsFailed  InsightsStatus = "failed"
)

// InsightsState is a snapshot of Track B.
type InsightsState struct {
	Status    InsightsStatus      `json:"status"`
	Model     *insights.ViewModel `json:"model,omitempty"`
	Error     string              `json:"error,omitempty"`
	Seq       uint64              `json:"seq"`
	UpdatedAt time.Time           `json:"updated_at,omitempty"`
}

// Retryable reports whether the presentation should offer a manual retry.
func (s InsightsState) Retryable() bool {
	return s.Status == InsightsFailed
}

// Event is delivered to subscribers after every transition. Only the field
// matching Track is populated.
type Event struct {
	Track     Track
	Dashboard DashboardState
	Insights  InsightsState
}
