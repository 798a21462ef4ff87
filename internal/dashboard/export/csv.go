// Package export serialises the canonical dashboard model for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/vistara/donation-dashboard/internal/dashboard"
)

// WriteDashboardCSV writes every section of vm separated by blank lines.
func WriteDashboardCSV(w io.Writer, vm dashboard.ViewModel) error {
	sections := []func(io.Writer, dashboard.ViewModel) error{
		WriteKPICSV,
		WriteTrendCSV,
		func(w io.Writer, vm dashboard.ViewModel) error { return WriteRecipientCSV(w, "School", vm.Schools) },
		func(w io.Writer, vm dashboard.ViewModel) error { return WriteRecipientCSV(w, "Campaign", vm.Campaigns) },
		WriteTopDonorCSV,
	}
	for i, section := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := section(w, vm); err != nil {
			return err
		}
	}
	return nil
}

// WriteKPICSV serialises the KPI block.
func WriteKPICSV(w io.Writer, vm dashboard.ViewModel) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	k := vm.KPIs
	records := [][]string{
		{"Period", vm.Period.String()},
		{"Total Donations", formatFloat(k.TotalDonations)},
		{"Total Donors", strconv.Itoa(k.TotalDonors)},
		{"Total Campaigns", strconv.Itoa(k.TotalCampaigns)},
		{"Total Schools", strconv.Itoa(k.TotalSchools)},
		{"Average Donation", formatFloat(k.AvgDonation)},
		{"Max Donation", formatFloat(k.MaxDonation)},
		{"Min Donation", formatFloat(k.MinDonation)},
		{"Median Donation", formatFloat(k.MedianDonation)},
		{"Total Transactions", strconv.Itoa(k.TotalTransactions)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTrendCSV emits the trend buckets in chronological order.
func WriteTrendCSV(w io.Writer, vm dashboard.ViewModel) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Date", "Total", "Transactions", "Unique Donors"}); err != nil {
		return err
	}
	for _, point := range vm.Trend {
		if err := writer.Write([]string{
			point.Date,
			formatFloat(point.Total),
			strconv.Itoa(point.Transactions),
			strconv.Itoa(point.UniqueDonors),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteRecipientCSV emits a school or campaign table under the given heading.
func WriteRecipientCSV(w io.Writer, heading string, rows []dashboard.Recipient) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{heading, "Amount", "Donations", "Unique Donors"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.Name,
			formatFloat(row.Value),
			strconv.Itoa(row.DonationCount),
			strconv.Itoa(row.UniqueDonors),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTopDonorCSV prints the donor ranking as produced, without re-sorting.
func WriteTopDonorCSV(w io.Writer, vm dashboard.ViewModel) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Donor", "Total Amount", "Donations", "Average Donation"}); err != nil {
		return err
	}
	for _, donor := range vm.TopDonors {
		if err := writer.Write([]string{
			donor.DonorName,
			formatFloat(donor.TotalAmount),
			strconv.Itoa(donor.DonationCount),
			formatFloat(donor.AvgDonation),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
