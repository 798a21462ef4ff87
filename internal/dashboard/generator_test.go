package dashboard

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
}

func newSeededGenerator(seed uint64) *Generator {
	g := NewGenerator(rand.NewPCG(seed, seed+1))
	g.WithNow(fixedClock)
	return g
}

func TestGenerateTrendLengths(t *testing.T) {
	g := newSeededGenerator(1)
	want := map[Period]int{PeriodWeekly: 7, PeriodMonthly: 10, PeriodYearly: 12, PeriodAll: 12}
	for period, n := range want {
		vm := g.Generate(period)
		assert.Len(t, vm.Trend, n, "period %s", period)
		assert.Equal(t, period, vm.Period)
	}
}

func TestGenerateTotalsMatchTrend(t *testing.T) {
	g := newSeededGenerator(7)
	for _, period := range Periods {
		vm := g.Generate(period)
		var tx, donors int
		for _, point := range vm.Trend {
			tx += point.Transactions
			donors += point.UniqueDonors
		}
		assert.Equal(t, tx, vm.KPIs.TotalTransactions, "period %s", period)
		assert.Equal(t, donors, vm.KPIs.TotalDonors, "period %s", period)
	}
}

func TestGenerateTrendCountRanges(t *testing.T) {
	g := newSeededGenerator(3)
	ranges := map[Period][4]int{
		PeriodWeekly:  {5, 20, 3, 15},
		PeriodMonthly: {8, 28, 5, 20},
		PeriodYearly:  {20, 70, 15, 50},
	}
	for period, r := range ranges {
		for _, point := range g.Generate(period).Trend {
			assert.GreaterOrEqual(t, point.Transactions, r[0])
			assert.Less(t, point.Transactions, r[1])
			assert.GreaterOrEqual(t, point.UniqueDonors, r[2])
			assert.Less(t, point.UniqueDonors, r[3])
		}
	}
}

func TestGenerateWeeklyAmountsAndLabels(t *testing.T) {
	vm := newSeededGenerator(11).Generate(PeriodWeekly)
	require.Len(t, vm.Trend, 7)
	// Oldest bucket first, six days back.
	assert.Equal(t, "13 Oct", vm.Trend[0].Date)
	assert.Equal(t, "19 Oct", vm.Trend[6].Date)
	assert.Equal(t, 16250.0, vm.Trend[0].Total)
	assert.Equal(t, 8750.0, vm.Trend[6].Total)
}

func TestGenerateYearlyLabels(t *testing.T) {
	vm := newSeededGenerator(5).Generate(PeriodYearly)
	require.Len(t, vm.Trend, 12)
	assert.Equal(t, "Nov 25", vm.Trend[0].Date)
	assert.Equal(t, "Oct 26", vm.Trend[11].Date)
}

func TestGenerateMonetaryFieldsAreNonNegativeIntegers(t *testing.T) {
	g := newSeededGenerator(9)
	isWhole := func(v float64) bool { return v >= 0 && v == math.Trunc(v) }
	for _, period := range Periods {
		vm := g.Generate(period)
		assert.True(t, isWhole(vm.KPIs.TotalDonations))
		for _, p := range vm.Trend {
			assert.True(t, isWhole(p.Total))
		}
		for _, s := range append(append([]Recipient{}, vm.Schools...), vm.Campaigns...) {
			assert.True(t, isWhole(s.Value))
		}
		for _, d := range vm.TopDonors {
			assert.True(t, isWhole(d.TotalAmount))
			assert.True(t, isWhole(d.AvgDonation))
		}
		for _, h := range vm.TimeOfDay {
			assert.True(t, isWhole(h.TotalAmount))
		}
		assert.True(t, isWhole(vm.MLPredictions.NextMonthPrediction))
	}
}

func TestGenerateCatalogStructureIsStable(t *testing.T) {
	g := NewGenerator(nil)
	first := g.Generate(PeriodWeekly)
	second := g.Generate(PeriodWeekly)
	assert.Equal(t, first.Schools, second.Schools)
	assert.Equal(t, first.Campaigns, second.Campaigns)
	require.Len(t, first.Schools, 6)
	require.Len(t, first.Campaigns, 5)
	assert.Equal(t, "Greenwood High", first.Schools[0].Name)
	assert.Equal(t, 27500.0, first.Schools[0].Value)
}

func TestGenerateTopDonorsSortedDescending(t *testing.T) {
	vm := newSeededGenerator(2).Generate(PeriodAll)
	for i := 1; i < len(vm.TopDonors); i++ {
		assert.GreaterOrEqual(t, vm.TopDonors[i-1].TotalAmount, vm.TopDonors[i].TotalAmount)
	}
}

func TestGenerateTimeOfDayPeaksAtEight(t *testing.T) {
	vm := newSeededGenerator(4).Generate(PeriodMonthly)
	require.Len(t, vm.TimeOfDay, 12)
	assert.Equal(t, "00:00", vm.TimeOfDay[0].Hour)
	assert.Equal(t, "22:00", vm.TimeOfDay[11].Hour)
	peak := vm.TimeOfDay[0]
	for _, slot := range vm.TimeOfDay {
		if slot.TotalAmount > peak.TotalAmount {
			peak = slot
		}
	}
	assert.Equal(t, "20:00", peak.Hour)
	assert.Equal(t, 100000.0, peak.TotalAmount)
}

func TestGeneratePredictions(t *testing.T) {
	vm := newSeededGenerator(6).Generate(PeriodYearly)
	assert.Equal(t, 5175000.0, vm.MLPredictions.NextMonthPrediction)
	assert.Equal(t, 15.5, vm.MLPredictions.GrowthRate)
	assert.Equal(t, 78.5, vm.MLPredictions.DonorRetentionRate)
	assert.Equal(t, "Greenwood High", vm.MLPredictions.TopPredictedSchool)
	assert.NotNil(t, vm.MLPredictions.RecommendedCampaigns)
	assert.Empty(t, vm.MLPredictions.RecommendedCampaigns)
	assert.Equal(t, 65, vm.KPIs.TotalCampaigns)
	assert.Equal(t, 120, vm.KPIs.TotalSchools)
}

func TestGenerateSameSeedSameTrend(t *testing.T) {
	a := newSeededGenerator(42).Generate(PeriodMonthly)
	b := newSeededGenerator(42).Generate(PeriodMonthly)
	assert.Equal(t, a.Trend, b.Trend)
}
