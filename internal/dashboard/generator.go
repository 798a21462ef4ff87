package dashboard

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// baseAmounts anchors every synthetic magnitude for a period.
var baseAmounts = map[Period]float64{
	PeriodWeekly:  125_000,
	PeriodMonthly: 750_000,
	PeriodYearly:  4_500_000,
	PeriodAll:     15_000_000,
}

type recipientSeed struct {
	name      string
	share     float64
	donations int
	donors    int
}

var schoolCatalog = []recipientSeed{
	{name: "Greenwood High", share: 0.22, donations: 85, donors: 65},
	{name: "Sunrise Academy", share: 0.18, donations: 72, donors: 58},
	{name: "Heritage School", share: 0.15, donations: 65, donors: 52},
	{name: "Bright Future School", share: 0.12, donations: 55, donors: 45},
	{name: "Knowledge Valley", share: 0.10, donations: 48, donors: 40},
	{name: "Wisdom International", share: 0.08, donations: 42, donors: 35},
}

var campaignCatalog = []recipientSeed{
	{name: "Digital Classrooms 2024", share: 0.30, donations: 125, donors: 105},
	{name: "Scholarship Program", share: 0.25, donations: 110, donors: 95},
	{name: "Sports Infrastructure", share: 0.20, donations: 95, donors: 85},
	{name: "Library Modernization", share: 0.15, donations: 80, donors: 70},
	{name: "Teacher Training", share: 0.10, donations: 65, donors: 60},
}

type donorSeed struct {
	name      string
	share     float64
	donations int
	avgShare  float64
}

// topDonorCatalog is kept in descending share order.
var topDonorCatalog = []donorSeed{
	{name: "Rajesh Kumar", share: 0.08, donations: 5, avgShare: 0.016},
	{name: "Sunita Sharma", share: 0.06, donations: 3, avgShare: 0.02},
	{name: "TechCorp Solutions", share: 0.05, donations: 2, avgShare: 0.025},
	{name: "Amit Patel", share: 0.04, donations: 4, avgShare: 0.01},
	{name: "Global Foundation", share: 0.03, donations: 1, avgShare: 0.03},
}

// hourlyProfile peaks at 20:00. Amounts are calibrated against the monthly
// base and scaled for other periods.
var hourlyProfile = []struct {
	count  int
	amount float64
}{
	{5, 12_500}, {3, 7_500}, {2, 5_000}, {8, 20_000},
	{15, 37_500}, {22, 55_000}, {28, 70_000}, {25, 62_500},
	{30, 75_000}, {35, 87_500}, {40, 100_000}, {18, 45_000},
}

// Generator produces synthetic dashboards when the upstream is unavailable.
// Structure is fixed; only trend counts draw from the random source.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator builds a generator over src. A nil src uses a randomly seeded
// PCG source.
func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{rng: rand.New(src), now: time.Now}
}

// WithNow overrides the generator clock for testing.
func (g *Generator) WithNow(fn func() time.Time) {
	if fn != nil {
		g.now = fn
	}
}

// Generate builds a complete synthetic dashboard for period. Unknown periods
// are generated as monthly but keep the requested label.
func (g *Generator) Generate(period Period) ViewModel {
	base, ok := baseAmounts[period]
	if !ok {
		base = baseAmounts[PeriodMonthly]
	}

	trend := g.trend(period, base)
	var transactions, donors int
	for _, point := range trend {
		transactions += point.Transactions
		donors += point.UniqueDonors
	}

	campaigns, schools := 65, 120
	switch period {
	case PeriodWeekly:
		campaigns, schools = 8, 12
	case PeriodMonthly:
		campaigns, schools = 15, 25
	}

	vm := ViewModel{
		Period: period,
		KPIs: KPIs{
			TotalDonations:    base,
			TotalDonors:       donors,
			TotalCampaigns:    campaigns,
			TotalSchools:      schools,
			AvgDonation:       2750,
			MaxDonation:       125_000,
			MinDonation:       100,
			MedianDonation:    1250,
			TotalTransactions: transactions,
		},
		Trend:     trend,
		Schools:   scaleRecipients(schoolCatalog, base),
		Campaigns: scaleRecipients(campaignCatalog, base),
		DonationType: []DonationTypeShare{
			{Name: "Individual", Value: scale(base, 0.45), Count: 150, AvgAmount: 3000},
			{Name: "Corporate", Value: scale(base, 0.35), Count: 45, AvgAmount: 8500},
			{Name: "Organization", Value: scale(base, 0.20), Count: 25, AvgAmount: 12000},
		},
		DonorType: []DonorTypeShare{
			{DonorType: "Individual", Value: scale(base, 0.45), Count: 150, UniqueCount: 150},
			{DonorType: "Organization", Value: scale(base, 0.35), Count: 45, UniqueCount: 35},
			{DonorType: "Group", Value: scale(base, 0.20), Count: 60, UniqueCount: 25},
		},
		PaymentMode: []PaymentModeShare{
			{Name: "UPI", Value: 350, TotalAmount: scale(base, 0.50), AvgAmount: 2800},
			{Name: "Credit Card", Value: 180, TotalAmount: scale(base, 0.25), AvgAmount: 3200},
			{Name: "Net Banking", Value: 120, TotalAmount: scale(base, 0.15), AvgAmount: 2900},
			{Name: "Cheque", Value: 45, TotalAmount: scale(base, 0.08), AvgAmount: 4000},
			{Name: "Cash", Value: 25, TotalAmount: scale(base, 0.02), AvgAmount: 1800},
		},
		TopDonors: scaleDonors(base),
		DonationFrequency: []FrequencyBucket{
			{Frequency: "One-time", DonorCount: 120, TotalDonations: 120},
			{Frequency: "Occasional (2-5)", DonorCount: 45, TotalDonations: 135},
			{Frequency: "Regular (6-10)", DonorCount: 25, TotalDonations: 200},
			{Frequency: "Frequent (10+)", DonorCount: 10, TotalDonations: 150},
		},
		TimeOfDay: timeOfDay(base),
		MLPredictions: Predictions{
			NextMonthPrediction:   scale(base, 1.15),
			GrowthRate:            15.5,
			TopPredictedSchool:    schoolCatalog[0].name,
			PredictedSchoolAmount: scale(base, 0.25),
			DonorRetentionRate:    78.5,
			PeakHourPrediction:    "Friday Afternoon",
			RecommendedCampaigns:  []string{},
		},
	}
	return vm
}

func (g *Generator) trend(period Period, base float64) []TrendPoint {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	var points []TrendPoint
	switch period {
	case PeriodWeekly:
		points = make([]TrendPoint, 0, 7)
		for i := 6; i >= 0; i-- {
			points = append(points, TrendPoint{
				Date:         now.AddDate(0, 0, -i).Format("2 Jan"),
				Total:        math.Round(base * 0.1 * (0.7 + 0.6*float64(i)/6)),
				Transactions: g.between(5, 20),
				UniqueDonors: g.between(3, 15),
			})
		}
	case PeriodMonthly:
		points = make([]TrendPoint, 0, 10)
		for i := 29; i >= 0; i -= 3 {
			points = append(points, TrendPoint{
				Date:         now.AddDate(0, 0, -i).Format("2 Jan"),
				Total:        math.Round(base * 0.04 * (0.6 + 0.8*float64(i)/29)),
				Transactions: g.between(8, 28),
				UniqueDonors: g.between(5, 20),
			})
		}
	default:
		points = make([]TrendPoint, 0, 12)
		for i := 11; i >= 0; i-- {
			points = append(points, TrendPoint{
				Date:         now.AddDate(0, -i, 0).Format("Jan 06"),
				Total:        math.Round(base * 0.09 * (0.5 + float64(i)/12)),
				Transactions: g.between(20, 70),
				UniqueDonors: g.between(15, 50),
			})
		}
	}
	return points
}

// between draws from [lo, hi).
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo)
}

func scale(base, share float64) float64 {
	return math.Round(base * share)
}

func scaleRecipients(seeds []recipientSeed, base float64) []Recipient {
	out := make([]Recipient, 0, len(seeds))
	for _, seed := range seeds {
		out = append(out, Recipient{
			Name:          seed.name,
			Value:         scale(base, seed.share),
			DonationCount: seed.donations,
			UniqueDonors:  seed.donors,
		})
	}
	return out
}

func scaleDonors(base float64) []TopDonor {
	out := make([]TopDonor, 0, len(topDonorCatalog))
	for _, seed := range topDonorCatalog {
		out = append(out, TopDonor{
			DonorName:     seed.name,
			TotalAmount:   scale(base, seed.share),
			DonationCount: seed.donations,
			AvgDonation:   scale(base, seed.avgShare),
		})
	}
	return out
}

func timeOfDay(base float64) []HourBucket {
	ratio := base / baseAmounts[PeriodMonthly]
	out := make([]HourBucket, 0, len(hourlyProfile))
	for i, slot := range hourlyProfile {
		out = append(out, HourBucket{
			Hour:          time.Date(0, 1, 1, i*2, 0, 0, 0, time.UTC).Format("15:04"),
			DonationCount: slot.count,
			TotalAmount:   math.Round(slot.amount * ratio),
		})
	}
	return out
}
