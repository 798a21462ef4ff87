package insights

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Upstream fields arrive in several encodings. Each tolerant field is a
// small tagged union decoded here; nothing outside this file inspects raw
// JSON types.

type shape uint8

const (
	shapeAbsent shape = iota
	shapeNumber
	shapeText
	shapePair
	shapeObject
)

var signedDecimal = regexp.MustCompile(`-?\d+(\.\d+)?`)

func isNull(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

func leading(b []byte) byte {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

// number is a numeric field that may also arrive as a numeric string.
type number struct {
	kind  shape
	value float64
}

func (n *number) UnmarshalJSON(b []byte) error {
	*n = number{}
	if isNull(b) {
		return nil
	}
	if leading(b) == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*n = number{kind: shapeText, value: v}
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	*n = number{kind: shapeNumber, value: v}
	return nil
}

func (n number) present() bool { return n.kind != shapeAbsent }

// orDefault treats zero like absence, matching how the upstream reports
// metrics it could not compute.
func (n number) orDefault(def float64) float64 {
	if !n.present() || n.value == 0 {
		return def
	}
	return n.value
}

// ifAbsent only substitutes def when the field was missing.
func (n number) ifAbsent(def float64) float64 {
	if !n.present() {
		return def
	}
	return n.value
}

// text is a string field; numbers are rendered in their shortest form.
type text struct {
	kind  shape
	value string
}

func (t *text) UnmarshalJSON(b []byte) error {
	*t = text{}
	if isNull(b) {
		return nil
	}
	if leading(b) == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*t = text{kind: shapeText, value: s}
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err == nil {
		*t = text{kind: shapeNumber, value: strconv.FormatFloat(v, 'f', -1, 64)}
	}
	return nil
}

func (t text) orDefault(def string) string {
	if t.kind == shapeAbsent || t.value == "" {
		return def
	}
	return t.value
}

// signedMetric is a percentage delivered either as a number or as prose
// containing a signed decimal, e.g. "-79.1% lower".
type signedMetric struct {
	kind   shape
	number float64
	text   string
}

const defaultWeekendPerformance = -79.1

func (m *signedMetric) UnmarshalJSON(b []byte) error {
	*m = signedMetric{}
	if isNull(b) {
		return nil
	}
	if leading(b) == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*m = signedMetric{kind: shapeText, text: s}
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err == nil {
		*m = signedMetric{kind: shapeNumber, number: v}
	}
	return nil
}

func (m signedMetric) resolve(def float64) float64 {
	switch m.kind {
	case shapeNumber:
		if m.number != 0 {
			return m.number
		}
	case shapeText:
		if match := signedDecimal.FindString(m.text); match != "" {
			if v, err := strconv.ParseFloat(match, 64); err == nil {
				return v
			}
		}
	}
	return def
}

// engagement compares organisation giving with individuals. Upstream sends
// either [avg_amount, percent_diff] or an object.
type engagement struct {
	kind        shape
	avgAmount   float64
	percentDiff float64
}

const (
	defaultOrgAvgAmount   = 185677
	defaultOrgPercentDiff = -34.1
)

func (e *engagement) UnmarshalJSON(b []byte) error {
	*e = engagement{}
	switch leading(b) {
	case '[':
		var pair []number
		if err := json.Unmarshal(b, &pair); err != nil {
			return nil
		}
		*e = engagement{kind: shapePair}
		if len(pair) > 0 {
			e.avgAmount = pair[0].value
		}
		if len(pair) > 1 {
			e.percentDiff = pair[1].value
		}
	case '{':
		var obj struct {
			AvgAmount          number `json:"avg_amount"`
			PercentageIncrease number `json:"percentage_increase"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return nil
		}
		*e = engagement{kind: shapeObject, avgAmount: obj.AvgAmount.value, percentDiff: obj.PercentageIncrease.value}
	}
	return nil
}

func (e engagement) resolve() (avg, diff float64) {
	avg, diff = e.avgAmount, e.percentDiff
	if avg == 0 {
		avg = defaultOrgAvgAmount
	}
	if diff == 0 {
		diff = defaultOrgPercentDiff
	}
	return avg, diff
}

// schoolTotal is the top funded school as [name, amount] or {name, amount}.
type schoolTotal struct {
	kind   shape
	name   string
	amount float64
}

const (
	defaultTopSchool       = "Vardhaman College"
	defaultTopSchoolAmount = 30_000_000
)

func (s *schoolTotal) UnmarshalJSON(b []byte) error {
	*s = schoolTotal{}
	switch leading(b) {
	case '[':
		var pair []json.RawMessage
		if err := json.Unmarshal(b, &pair); err != nil {
			return nil
		}
		*s = schoolTotal{kind: shapePair}
		if len(pair) > 0 {
			var name text
			_ = name.UnmarshalJSON(pair[0])
			s.name = name.value
		}
		if len(pair) > 1 {
			var amount number
			_ = amount.UnmarshalJSON(pair[1])
			s.amount = amount.value
		}
	case '{':
		var obj struct {
			Name   text   `json:"name"`
			Amount number `json:"amount"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return nil
		}
		*s = schoolTotal{kind: shapeObject, name: obj.Name.value, amount: obj.Amount.value}
	}
	return nil
}

func (s schoolTotal) resolve() (string, float64) {
	name, amount := s.name, s.amount
	if name == "" {
		name = defaultTopSchool
	}
	if amount == 0 {
		amount = defaultTopSchoolAmount
	}
	return name, amount
}

// legacyInsights is the /api/ai-insights body.
type legacyInsights struct {
	WeekendPerformance     signedMetric `json:"weekend_performance"`
	OrganizationEngagement engagement   `json:"organization_engagement"`
	RepeatDonorRate        number       `json:"repeat_donor_rate"`
	UPIPercentage          number       `json:"upi_percentage"`
	DonorRetentionRate     number       `json:"donor_retention_rate"`
	TopSchool              schoolTotal  `json:"top_school"`
	PeakDonationDay        text         `json:"peak_donation_day"`
	SeasonalTrend          text         `json:"seasonal_trend"`
}

// forecast is the /api/forecast body.
type forecast struct {
	NextMonthPrediction number `json:"next_month_prediction"`
	PredictedAmount     number `json:"predicted_amount"`
	GrowthRate          number `json:"growth_rate"`
	Confidence          text   `json:"confidence"`
	Basis               text   `json:"basis"`
}

// complete is the /api/ai-insights-complete body.
type complete struct {
	MLPredictions    *completePredictions `json:"ml_predictions"`
	PatternInsights  []rawInsight         `json:"pattern_insights"`
	AnalysisMetadata *rawMetadata         `json:"analysis_metadata"`
}

type completePredictions struct {
	NextMonthPrediction    number     `json:"next_month_prediction"`
	PredictedAmount        number     `json:"predicted_amount"`
	GrowthRate             number     `json:"growth_rate"`
	TopPredictedSchool     text       `json:"top_predicted_school"`
	PredictedSchoolAmount  number     `json:"predicted_school_amount"`
	DonorRetentionRate     number     `json:"donor_retention_rate"`
	PeakHourPrediction     text       `json:"peak_hour_prediction"`
	RecommendedCampaigns   []text     `json:"recommended_campaigns"`
	Confidence             text       `json:"confidence"`
	ForecastBasis          text       `json:"forecast_basis"`
	Basis                  text       `json:"basis"`
	OrganizationEngagement engagement `json:"organization_engagement"`
}

type rawInsight struct {
	ID          text         `json:"id"`
	Title       text         `json:"title"`
	Description text         `json:"description"`
	Metric      text         `json:"metric"`
	MetricValue signedMetric `json:"-"`
	Icon        text         `json:"icon"`
	Color       text         `json:"color"`
	Importance  text         `json:"importance"`
}

// UnmarshalJSON decodes the metric twice: once for display and once as a
// signed value for insights that are re-derived from it.
func (r *rawInsight) UnmarshalJSON(b []byte) error {
	type plain rawInsight
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var metric struct {
		Metric signedMetric `json:"metric"`
	}
	if err := json.Unmarshal(b, &metric); err != nil {
		return err
	}
	*r = rawInsight(p)
	r.MetricValue = metric.Metric
	return nil
}

type rawMetadata struct {
	LastUpdated        text   `json:"last_updated"`
	DataPointsAnalyzed text   `json:"data_points_analyzed"`
	ModelVersion       text   `json:"model_version"`
	AccuracyScore      number `json:"accuracy_score"`
}
