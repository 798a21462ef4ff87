package dashboard

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// The analytics backend sums counts in SQL and serialises them as floats
// (135.0), so every count field is decoded through count. Monetary fields
// stay float64 and are clamped in Adopt.

// count is a non-negative integer that may arrive as a float, a numeric
// string or null.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	*c = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var v float64
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		v = parsed
	} else if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if math.IsNaN(v) || v <= 0 {
		return nil
	}
	if v >= math.MaxInt32 {
		*c = math.MaxInt32
		return nil
	}
	*c = count(math.Round(v))
	return nil
}

func (k *KPIs) UnmarshalJSON(b []byte) error {
	type plain KPIs
	aux := struct {
		*plain
		TotalDonors       count `json:"total_donors"`
		TotalCampaigns    count `json:"total_campaigns"`
		TotalSchools      count `json:"total_schools"`
		TotalTransactions count `json:"total_transactions"`
	}{plain: (*plain)(k)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	k.TotalDonors = int(aux.TotalDonors)
	k.TotalCampaigns = int(aux.TotalCampaigns)
	k.TotalSchools = int(aux.TotalSchools)
	k.TotalTransactions = int(aux.TotalTransactions)
	return nil
}

func (r *Recipient) UnmarshalJSON(b []byte) error {
	type plain Recipient
	aux := struct {
		*plain
		DonationCount count `json:"donation_count"`
		UniqueDonors  count `json:"unique_donors"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.DonationCount = int(aux.DonationCount)
	r.UniqueDonors = int(aux.UniqueDonors)
	return nil
}

func (d *DonationTypeShare) UnmarshalJSON(b []byte) error {
	type plain DonationTypeShare
	aux := struct {
		*plain
		Count count `json:"count"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	d.Count = int(aux.Count)
	return nil
}

func (d *DonorTypeShare) UnmarshalJSON(b []byte) error {
	type plain DonorTypeShare
	aux := struct {
		*plain
		Count       count `json:"count"`
		UniqueCount count `json:"unique_count"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	d.Count = int(aux.Count)
	d.UniqueCount = int(aux.UniqueCount)
	return nil
}

func (p *PaymentModeShare) UnmarshalJSON(b []byte) error {
	type plain PaymentModeShare
	aux := struct {
		*plain
		Value count `json:"value"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	p.Value = int(aux.Value)
	return nil
}

func (d *TopDonor) UnmarshalJSON(b []byte) error {
	type plain TopDonor
	aux := struct {
		*plain
		DonationCount count `json:"donation_count"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	d.DonationCount = int(aux.DonationCount)
	return nil
}

func (f *FrequencyBucket) UnmarshalJSON(b []byte) error {
	type plain FrequencyBucket
	aux := struct {
		*plain
		DonorCount     count `json:"donor_count"`
		TotalDonations count `json:"total_donations"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	f.DonorCount = int(aux.DonorCount)
	f.TotalDonations = int(aux.TotalDonations)
	return nil
}

func (h *HourBucket) UnmarshalJSON(b []byte) error {
	type plain HourBucket
	aux := struct {
		*plain
		DonationCount count `json:"donation_count"`
	}{plain: (*plain)(h)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	h.DonationCount = int(aux.DonationCount)
	return nil
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// clampMoney zeroes negative monetary amounts. Growth rate and retention
// are ratios and keep their sign.
func (vm *ViewModel) clampMoney() {
	k := &vm.KPIs
	k.TotalDonations = nonNegative(k.TotalDonations)
	k.AvgDonation = nonNegative(k.AvgDonation)
	k.MaxDonation = nonNegative(k.MaxDonation)
	k.MinDonation = nonNegative(k.MinDonation)
	k.MedianDonation = nonNegative(k.MedianDonation)
	for i := range vm.Trend {
		vm.Trend[i].Total = nonNegative(vm.Trend[i].Total)
	}
	for i := range vm.Schools {
		vm.Schools[i].Value = nonNegative(vm.Schools[i].Value)
	}
	for i := range vm.Campaigns {
		vm.Campaigns[i].Value = nonNegative(vm.Campaigns[i].Value)
	}
	for i := range vm.DonationType {
		vm.DonationType[i].Value = nonNegative(vm.DonationType[i].Value)
		vm.DonationType[i].AvgAmount = nonNegative(vm.DonationType[i].AvgAmount)
	}
	for i := range vm.DonorType {
		vm.DonorType[i].Value = nonNegative(vm.DonorType[i].Value)
	}
	for i := range vm.PaymentMode {
		vm.PaymentMode[i].TotalAmount = nonNegative(vm.PaymentMode[i].TotalAmount)
		vm.PaymentMode[i].AvgAmount = nonNegative(vm.PaymentMode[i].AvgAmount)
	}
	for i := range vm.TopDonors {
		vm.TopDonors[i].TotalAmount = nonNegative(vm.TopDonors[i].TotalAmount)
		vm.TopDonors[i].AvgDonation = nonNegative(vm.TopDonors[i].AvgDonation)
	}
	for i := range vm.TimeOfDay {
		vm.TimeOfDay[i].TotalAmount = nonNegative(vm.TimeOfDay[i].TotalAmount)
	}
	p := &vm.MLPredictions
	p.NextMonthPrediction = nonNegative(p.NextMonthPrediction)
	p.PredictedSchoolAmount = nonNegative(p.PredictedSchoolAmount)
}
