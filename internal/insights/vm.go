package insights

import (
	"time"

	"github.com/vistara/donation-dashboard/internal/dashboard"
)

// Confidence grades a forecast.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Importance ranks a pattern insight.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Semantic colour tags attached to insights.
const (
	ColorGreen  = "green"
	ColorOrange = "orange"
	ColorIndigo = "indigo"
	ColorBlue   = "blue"
	ColorPurple = "purple"
)

// Predictions extends the dashboard forecast block with confidence data.
type Predictions struct {
	dashboard.Predictions
	Confidence    Confidence `json:"confidence"`
	ForecastBasis string     `json:"forecast_basis"`
}

// PatternInsight is one card of the AI insights pane.
type PatternInsight struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Metric      string     `json:"metric"`
	Icon        string     `json:"icon"`
	Color       string     `json:"color"`
	Importance  Importance `json:"importance"`
}

// AnalysisMetadata describes the run that produced the insights.
type AnalysisMetadata struct {
	LastUpdated        time.Time `json:"last_updated"`
	DataPointsAnalyzed string    `json:"data_points_analyzed"`
	ModelVersion       string    `json:"model_version"`
	AccuracyScore      float64   `json:"accuracy_score"`
}

// ViewModel is the canonical shape of the AI insights pane.
type ViewModel struct {
	MLPredictions    Predictions      `json:"ml_predictions"`
	PatternInsights  []PatternInsight `json:"pattern_insights"`
	AnalysisMetadata AnalysisMetadata `json:"analysis_metadata"`
}
