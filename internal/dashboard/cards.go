package dashboard

import "github.com/vistara/donation-dashboard/internal/format"

// Card is a formatted KPI tile.
type Card struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// Cards renders the headline KPI tiles for vm.
func Cards(vm ViewModel) []Card {
	return []Card{
		{Key: "total_donations", Title: "Total Donations", Value: format.Currency(vm.KPIs.TotalDonations)},
		{Key: "total_transactions", Title: "Transactions", Value: format.Number(vm.KPIs.TotalTransactions)},
		{Key: "total_campaigns", Title: "Active Campaigns", Value: format.Number(vm.KPIs.TotalCampaigns)},
		{Key: "avg_donation", Title: "Average Donation", Value: format.Currency(vm.KPIs.AvgDonation)},
	}
}
