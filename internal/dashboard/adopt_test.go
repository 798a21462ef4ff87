package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdoptFillsDefaults(t *testing.T) {
	vm, err := Adopt([]byte(`{"kpis":{"total_donations":5000}}`), PeriodWeekly)
	require.NoError(t, err)
	assert.Equal(t, PeriodWeekly, vm.Period)
	assert.Equal(t, 5000.0, vm.KPIs.TotalDonations)
	assert.Equal(t, 0, vm.KPIs.TotalTransactions)
	assert.NotNil(t, vm.Trend)
	assert.NotNil(t, vm.Schools)
	assert.NotNil(t, vm.TimeOfDay)
	assert.NotNil(t, vm.MLPredictions.RecommendedCampaigns)
}

func TestAdoptMissingKPIs(t *testing.T) {
	for _, body := range []string{`{}`, `{"kpis":null}`, `{"trend":[]}`} {
		_, err := Adopt([]byte(body), PeriodMonthly)
		assert.ErrorIs(t, err, ErrMissingKPIs, body)
	}
}

func TestAdoptMalformed(t *testing.T) {
	_, err := Adopt([]byte(`{"kpis":"oops"}`), PeriodMonthly)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingKPIs)

	_, err = Adopt([]byte(`not json`), PeriodMonthly)
	require.Error(t, err)
}

func TestAdoptTransactionAlias(t *testing.T) {
	body := `{"kpis":{"total_transactions":7},"trend":[
		{"date":"Oct 01","total":100,"transaction_count":3,"unique_donors":2},
		{"date":"Oct 02","total":200,"transactions":4,"unique_donors":3}
	]}`
	vm, err := Adopt([]byte(body), PeriodMonthly)
	require.NoError(t, err)
	require.Len(t, vm.Trend, 2)
	assert.Equal(t, 3, vm.Trend[0].Transactions)
	assert.Equal(t, 4, vm.Trend[1].Transactions)
	assert.Equal(t, "Oct 01", vm.Trend[0].Date)
}

func TestAdoptRanksTopDonors(t *testing.T) {
	body := `{"kpis":{},"top_donors":[
		{"donor_name":"B","total_amount":10},
		{"donor_name":"A","total_amount":30},
		{"donor_name":"C","total_amount":20}
	]}`
	vm, err := Adopt([]byte(body), PeriodAll)
	require.NoError(t, err)
	require.Len(t, vm.TopDonors, 3)
	assert.Equal(t, "A", vm.TopDonors[0].DonorName)
	assert.Equal(t, "C", vm.TopDonors[1].DonorName)
}

func TestAdoptBackendFloatCounts(t *testing.T) {
	body := `{
		"kpis":{"total_donations":185677.5,"total_donors":42.0,"total_campaigns":6.0,"total_schools":"4","total_transactions":135.0,"median_donation":1250.0},
		"trend":[{"date":"2024-10-01","total":5400.0,"transaction_count":12.0,"unique_donors":9.0}],
		"schools":[{"name":"Vardhaman College","value":90000.0,"donation_count":40.0,"unique_donors":31.0}],
		"donation_type":[{"name":"General","value":1000.0,"count":3.0,"avg_amount":333.33}],
		"donor_type":[{"donor_type":"Individual","value":800.0,"count":5.0,"unique_count":4.0}],
		"payment_mode":[{"name":"UPI","value":81.0,"total_amount":40500.0,"avg_amount":500.0}],
		"top_donors":[{"donor_name":"A","total_amount":9000.0,"donation_count":3.0,"avg_donation":3000.0}],
		"donation_frequency":[{"frequency":"One-time","donor_count":3,"total_donations":135.0}],
		"time_of_day":[{"hour":"10-12","donation_count":17.0,"total_amount":8500.0}],
		"ml_predictions":{"next_month_prediction":210000.0,"growth_rate":-3.5}
	}`
	vm, err := Adopt([]byte(body), PeriodMonthly)
	require.NoError(t, err)
	assert.Equal(t, 42, vm.KPIs.TotalDonors)
	assert.Equal(t, 4, vm.KPIs.TotalSchools)
	assert.Equal(t, 135, vm.KPIs.TotalTransactions)
	assert.Equal(t, 12, vm.Trend[0].Transactions)
	assert.Equal(t, 9, vm.Trend[0].UniqueDonors)
	assert.Equal(t, 40, vm.Schools[0].DonationCount)
	assert.Equal(t, 3, vm.DonationType[0].Count)
	assert.Equal(t, 4, vm.DonorType[0].UniqueCount)
	assert.Equal(t, 81, vm.PaymentMode[0].Value)
	assert.Equal(t, 3, vm.TopDonors[0].DonationCount)
	assert.Equal(t, 135, vm.DonationFrequency[0].TotalDonations)
	assert.Equal(t, 17, vm.TimeOfDay[0].DonationCount)
	assert.Equal(t, -3.5, vm.MLPredictions.GrowthRate)
}

func TestAdoptClampsNegatives(t *testing.T) {
	body := `{"kpis":{"total_donations":-10,"min_donation":-1,"total_transactions":-4},
		"schools":[{"name":"X","value":-500,"donation_count":-2}],
		"ml_predictions":{"next_month_prediction":-1,"growth_rate":-12.5}}`
	vm, err := Adopt([]byte(body), PeriodWeekly)
	require.NoError(t, err)
	assert.Equal(t, 0.0, vm.KPIs.TotalDonations)
	assert.Equal(t, 0.0, vm.KPIs.MinDonation)
	assert.Equal(t, 0, vm.KPIs.TotalTransactions)
	assert.Equal(t, 0.0, vm.Schools[0].Value)
	assert.Equal(t, 0, vm.Schools[0].DonationCount)
	assert.Equal(t, 0.0, vm.MLPredictions.NextMonthPrediction)
	assert.Equal(t, -12.5, vm.MLPredictions.GrowthRate)
}

func TestCardsFormatting(t *testing.T) {
	cards := Cards(ViewModel{KPIs: KPIs{TotalDonations: 750000, TotalTransactions: 1500, TotalCampaigns: 15, AvgDonation: 2750}})
	require.Len(t, cards, 4)
	assert.Equal(t, "₹7.5 L", cards[0].Value)
	assert.Equal(t, "1.5k", cards[1].Value)
	assert.Equal(t, "15", cards[2].Value)
	assert.Equal(t, "₹2.8k", cards[3].Value)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonthly, p)

	p, err = ParsePeriod(" Yearly ")
	require.NoError(t, err)
	assert.Equal(t, PeriodYearly, p)

	_, err = ParsePeriod("daily")
	assert.Error(t, err)
	assert.Equal(t, "All Time", PeriodAll.Label())
}
