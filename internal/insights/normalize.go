package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vistara/donation-dashboard/internal/dashboard"
	"github.com/vistara/donation-dashboard/internal/format"
)

// ErrNoPayload is returned when neither the complete body nor the full
// legacy pair is supplied.
var ErrNoPayload = errors.New("insights: no payload to normalise")

// Source holds the raw upstream bodies for one normalisation. Complete
// takes precedence; otherwise both Insights and Forecast are required.
type Source struct {
	Complete []byte
	Insights []byte
	Forecast []byte
}

const (
	defaultNextMonth     = 850000
	defaultGrowthRate    = 10.0
	defaultRetentionPct  = 40.0
	defaultConfidence    = ConfidenceMedium
	defaultForecastBasis = "Historical data analysis"

	defaultRate          = 0.4
	defaultUPIPercentage = 19.1
	defaultPeakDay       = "Friday"
	defaultSeasonalTrend = "Other"
	rateTarget           = 0.5

	defaultDataPoints   = "All successful transactions"
	defaultModelVersion = "1.0"
	defaultAccuracy     = 0.85
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Normalize reduces the upstream insight payloads to a ViewModel.
func Normalize(src Source, now time.Time) (ViewModel, error) {
	switch {
	case src.Complete != nil:
		var body complete
		if err := json.Unmarshal(src.Complete, &body); err != nil {
			return ViewModel{}, fmt.Errorf("insights: decode complete payload: %w", err)
		}
		return fromComplete(body, now), nil
	case src.Insights != nil && src.Forecast != nil:
		var legacy legacyInsights
		if err := json.Unmarshal(src.Insights, &legacy); err != nil {
			return ViewModel{}, fmt.Errorf("insights: decode insights payload: %w", err)
		}
		var fc forecast
		if err := json.Unmarshal(src.Forecast, &fc); err != nil {
			return ViewModel{}, fmt.Errorf("insights: decode forecast payload: %w", err)
		}
		return fromLegacy(legacy, fc, now), nil
	default:
		return ViewModel{}, ErrNoPayload
	}
}

func fromComplete(body complete, now time.Time) ViewModel {
	var raw completePredictions
	if body.MLPredictions != nil {
		raw = *body.MLPredictions
	}

	campaigns := make([]string, 0, len(raw.RecommendedCampaigns))
	for _, c := range raw.RecommendedCampaigns {
		if c.value != "" {
			campaigns = append(campaigns, c.value)
		}
	}
	nextMonth := raw.NextMonthPrediction
	if !nextMonth.present() {
		nextMonth = raw.PredictedAmount
	}
	basis := raw.ForecastBasis
	if basis.kind == shapeAbsent {
		basis = raw.Basis
	}

	vm := ViewModel{
		MLPredictions: Predictions{
			Predictions: dashboard.Predictions{
				NextMonthPrediction:   nextMonth.ifAbsent(defaultNextMonth),
				GrowthRate:            raw.GrowthRate.ifAbsent(defaultGrowthRate),
				TopPredictedSchool:    raw.TopPredictedSchool.value,
				PredictedSchoolAmount: raw.PredictedSchoolAmount.value,
				DonorRetentionRate:    raw.DonorRetentionRate.value,
				PeakHourPrediction:    raw.PeakHourPrediction.value,
				RecommendedCampaigns:  campaigns,
			},
			Confidence:    parseConfidence(raw.Confidence),
			ForecastBasis: basis.orDefault(defaultForecastBasis),
		},
		PatternInsights:  make([]PatternInsight, 0, len(body.PatternInsights)),
		AnalysisMetadata: defaultMetadata(now),
	}

	for _, in := range body.PatternInsights {
		vm.PatternInsights = append(vm.PatternInsights, rederive(in, raw.OrganizationEngagement))
	}

	if md := body.AnalysisMetadata; md != nil {
		vm.AnalysisMetadata = AnalysisMetadata{
			LastUpdated:        parseTimestamp(md.LastUpdated.value, now),
			DataPointsAnalyzed: md.DataPointsAnalyzed.orDefault(defaultDataPoints),
			ModelVersion:       md.ModelVersion.orDefault(defaultModelVersion),
			AccuracyScore:      clampUnit(md.AccuracyScore.ifAbsent(defaultAccuracy)),
		}
	}
	return vm
}

// rederive rebuilds the insights whose text depends on a signed value so
// their wording agrees with the value's sign. Others pass through.
func rederive(in rawInsight, org engagement) PatternInsight {
	out := PatternInsight{
		ID:          in.ID.value,
		Title:       in.Title.value,
		Description: in.Description.value,
		Metric:      in.Metric.value,
		Icon:        in.Icon.value,
		Color:       in.Color.value,
		Importance:  parseImportance(in.Importance, ImportanceMedium),
	}

	switch out.ID {
	case "weekend_performance":
		derived := weekendInsight(in.MetricValue.resolve(defaultWeekendPerformance))
		derived.Icon = in.Icon.orDefault(derived.Icon)
		derived.Importance = parseImportance(in.Importance, derived.Importance)
		return derived
	case "corporate_engagement", "organization_engagement":
		avg, diff := org.resolve()
		derived := organizationInsight(avg, diff)
		derived.Icon = in.Icon.orDefault(derived.Icon)
		derived.Importance = parseImportance(in.Importance, derived.Importance)
		return derived
	}
	return out
}

func fromLegacy(legacy legacyInsights, fc forecast, now time.Time) ViewModel {
	weekend := legacy.WeekendPerformance.resolve(defaultWeekendPerformance)
	orgAvg, orgDiff := legacy.OrganizationEngagement.resolve()
	repeat := legacy.RepeatDonorRate.orDefault(defaultRate)
	upi := legacy.UPIPercentage.orDefault(defaultUPIPercentage)
	retention := legacy.DonorRetentionRate.orDefault(defaultRate)
	schoolName, schoolAmount := legacy.TopSchool.resolve()
	peakDay := legacy.PeakDonationDay.orDefault(defaultPeakDay)
	seasonal := legacy.SeasonalTrend.orDefault(defaultSeasonalTrend)

	nextMonth := fc.NextMonthPrediction
	if nextMonth.orDefault(0) == 0 {
		nextMonth = fc.PredictedAmount
	}

	insights := []PatternInsight{
		weekendInsight(weekend),
		organizationInsight(orgAvg, orgDiff),
		{
			ID:          "repeat_donors",
			Title:       "Repeat Donor Rate",
			Description: format.Fixed1(repeat*100) + "% of donors make multiple donations",
			Metric:      format.Fixed1(repeat*100) + "%",
			Icon:        "Users",
			Color:       thresholdColor(repeat),
			Importance:  ImportanceHigh,
		},
		{
			ID:          "upi_dominance",
			Title:       "UPI Payment Usage",
			Description: format.Fixed1(upi) + "% of payments are made through UPI",
			Metric:      format.Fixed1(upi) + "% UPI",
			Icon:        "CreditCard",
			Color:       ColorIndigo,
			Importance:  ImportanceMedium,
		},
		{
			ID:          "donor_retention",
			Title:       "Donor Retention Rate",
			Description: format.Fixed1(retention*100) + "% of donors return to donate again",
			Metric:      format.Fixed1(retention*100) + "%",
			Icon:        "UsersRound",
			Color:       thresholdColor(retention),
			Importance:  ImportanceHigh,
		},
		{
			ID:          "top_school_funding",
			Title:       "Top School Funding",
			Description: schoolName + " received the highest total funding",
			Metric:      format.CurrencySymbol + format.Crores(schoolAmount) + " Cr",
			Icon:        "School",
			Color:       ColorBlue,
			Importance:  ImportanceHigh,
		},
		{
			ID:          "peak_donation_day",
			Title:       "Peak Donation Day",
			Description: peakDay + " has the highest donation activity",
			Metric:      peakDay,
			Icon:        "Calendar",
			Color:       ColorPurple,
			Importance:  ImportanceMedium,
		},
		{
			ID:          "seasonal_trend",
			Title:       "Seasonal Pattern",
			Description: "Donations peak during " + seasonal,
			Metric:      seasonal,
			Icon:        "TrendingUp",
			Color:       ColorGreen,
			Importance:  ImportanceMedium,
		},
	}

	retentionPct := retention * 100
	if retentionPct == 0 {
		retentionPct = defaultRetentionPct
	}

	return ViewModel{
		MLPredictions: Predictions{
			Predictions: dashboard.Predictions{
				NextMonthPrediction:   nextMonth.orDefault(defaultNextMonth),
				GrowthRate:            fc.GrowthRate.orDefault(defaultGrowthRate),
				TopPredictedSchool:    schoolName,
				PredictedSchoolAmount: schoolAmount,
				DonorRetentionRate:    retentionPct,
				PeakHourPrediction:    peakDay,
				RecommendedCampaigns:  []string{},
			},
			Confidence:    parseConfidence(fc.Confidence),
			ForecastBasis: fc.Basis.orDefault(defaultForecastBasis),
		},
		PatternInsights:  insights,
		AnalysisMetadata: defaultMetadata(now),
	}
}

// thresholdColor grades a [0,1] rate against the 50% target.
func thresholdColor(rate float64) string {
	if rate > rateTarget {
		return ColorGreen
	}
	return ColorOrange
}

func weekendInsight(value float64) PatternInsight {
	in := PatternInsight{
		ID:         "weekend_performance",
		Title:      "Weekend vs Weekday Donations",
		Metric:     format.Fixed1(value) + "%",
		Icon:       "CalendarDays",
		Importance: ImportanceHigh,
	}
	if value < 0 {
		in.Description = fmt.Sprintf("Weekend donations are %s%% LOWER than weekdays", format.Fixed1(math.Abs(value)))
		in.Color = ColorOrange
	} else {
		in.Description = fmt.Sprintf("Donations increase by %s%% on weekends", format.Plain(value))
		in.Color = ColorGreen
	}
	return in
}

func organizationInsight(avg, diff float64) PatternInsight {
	in := PatternInsight{
		ID:         "organization_engagement",
		Title:      "Organization vs Individual Donations",
		Metric:     format.CurrencySymbol + format.Lakhs(avg) + "L avg",
		Icon:       "Building",
		Importance: ImportanceHigh,
	}
	if diff < 0 {
		in.Description = fmt.Sprintf("Organizations donate %s%s on average (%s%% LESS than individuals)",
			format.CurrencySymbol, format.Indian(avg), format.Plain(math.Abs(diff)))
		in.Color = ColorOrange
	} else {
		in.Description = fmt.Sprintf("Organizations donate %s%% MORE than individuals on average", format.Plain(diff))
		in.Color = ColorGreen
	}
	return in
}

func defaultMetadata(now time.Time) AnalysisMetadata {
	return AnalysisMetadata{
		LastUpdated:        now,
		DataPointsAnalyzed: defaultDataPoints,
		ModelVersion:       defaultModelVersion,
		AccuracyScore:      defaultAccuracy,
	}
}

func parseConfidence(t text) Confidence {
	switch strings.ToLower(strings.TrimSpace(t.value)) {
	case "high":
		return ConfidenceHigh
	case "low":
		return ConfidenceLow
	case "medium":
		return ConfidenceMedium
	}
	return defaultConfidence
}

func parseImportance(t text, def Importance) Importance {
	switch Importance(strings.ToLower(strings.TrimSpace(t.value))) {
	case ImportanceHigh:
		return ImportanceHigh
	case ImportanceMedium:
		return ImportanceMedium
	case ImportanceLow:
		return ImportanceLow
	}
	return def
}

func parseTimestamp(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return fallback
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
