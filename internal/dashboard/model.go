package dashboard

// KPIs holds the headline metrics shown on the dashboard cards.
type KPIs struct {
	TotalDonations    float64 `json:"total_donations"`
	TotalDonors       int     `json:"total_donors"`
	TotalCampaigns    int     `json:"total_campaigns"`
	TotalSchools      int     `json:"total_schools"`
	AvgDonation       float64 `json:"avg_donation"`
	MaxDonation       float64 `json:"max_donation"`
	MinDonation       float64 `json:"min_donation"`
	MedianDonation    float64 `json:"median_donation"`
	TotalTransactions int     `json:"total_transactions"`
}

// TrendPoint is one reporting bucket of the donation trend.
type TrendPoint struct {
	Date         string  `json:"date"`
	Total        float64 `json:"total"`
	Transactions int     `json:"transactions"`
	UniqueDonors int     `json:"unique_donors"`
}

// Recipient aggregates donations for a school or a campaign.
type Recipient struct {
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	DonationCount int     `json:"donation_count"`
	UniqueDonors  int     `json:"unique_donors"`
}

// DonationTypeShare splits donations by donation type.
type DonationTypeShare struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Count     int     `json:"count"`
	AvgAmount float64 `json:"avg_amount"`
}

// DonorTypeShare splits donations by donor type.
type DonorTypeShare struct {
	DonorType   string  `json:"donor_type"`
	Value       float64 `json:"value"`
	Count       int     `json:"count"`
	UniqueCount int     `json:"unique_count"`
}

// PaymentModeShare splits donations by payment mode. Value is the
// transaction count.
type PaymentModeShare struct {
	Name        string  `json:"name"`
	Value       int     `json:"value"`
	TotalAmount float64 `json:"total_amount"`
	AvgAmount   float64 `json:"avg_amount"`
}

// TopDonor ranks donors by total amount given.
type TopDonor struct {
	DonorName     string  `json:"donor_name"`
	TotalAmount   float64 `json:"total_amount"`
	DonationCount int     `json:"donation_count"`
	AvgDonation   float64 `json:"avg_donation"`
}

// FrequencyBucket groups donors by how often they give.
type FrequencyBucket struct {
	Frequency      string `json:"frequency"`
	DonorCount     int    `json:"donor_count"`
	TotalDonations int    `json:"total_donations"`
}

// HourBucket is one two-hour slot of the time-of-day distribution.
type HourBucket struct {
	Hour          string  `json:"hour"`
	DonationCount int     `json:"donation_count"`
	TotalAmount   float64 `json:"total_amount"`
}

// Predictions carries the forecast block of the dashboard.
type Predictions struct {
	NextMonthPrediction   float64  `json:"next_month_prediction"`
	GrowthRate            float64  `json:"growth_rate"`
	TopPredictedSchool    string   `json:"top_predicted_school"`
	PredictedSchoolAmount float64  `json:"predicted_school_amount"`
	DonorRetentionRate    float64  `json:"donor_retention_rate"`
	PeakHourPrediction    string   `json:"peak_hour_prediction"`
	RecommendedCampaigns  []string `json:"recommended_campaigns"`
}

// ViewModel is the canonical dashboard shape consumed by presentation.
// Instances are replaced wholesale, never mutated after publication.
type ViewModel struct {
	Period            Period              `json:"period"`
	KPIs              KPIs                `json:"kpis"`
	Trend             []TrendPoint        `json:"trend"`
	Schools           []Recipient         `json:"schools"`
	Campaigns         []Recipient         `json:"campaigns"`
	DonationType      []DonationTypeShare `json:"donation_type"`
	DonorType         []DonorTypeShare    `json:"donor_type"`
	PaymentMode       []PaymentModeShare  `json:"payment_mode"`
	TopDonors         []TopDonor          `json:"top_donors"`
	DonationFrequency []FrequencyBucket   `json:"donation_frequency"`
	TimeOfDay         []HourBucket        `json:"time_of_day"`
	MLPredictions     Predictions         `json:"ml_predictions"`
}

// fillEmpty replaces nil sequences with empty ones so consumers only ever
// check length.
func (vm *ViewModel) fillEmpty() {
	if vm.Trend == nil {
		vm.Trend = []TrendPoint{}
	}
	if vm.Schools == nil {
		vm.Schools = []Recipient{}
	}
	if vm.Campaigns == nil {
		vm.Campaigns = []Recipient{}
	}
	if vm.DonationType == nil {
		vm.DonationType = []DonationTypeShare{}
	}
	if vm.DonorType == nil {
		vm.DonorType = []DonorTypeShare{}
	}
	if vm.PaymentMode == nil {
		vm.PaymentMode = []PaymentModeShare{}
	}
	if vm.TopDonors == nil {
		vm.TopDonors = []TopDonor{}
	}
	if vm.DonationFrequency == nil {
		vm.DonationFrequency = []FrequencyBucket{}
	}
	if vm.TimeOfDay == nil {
		vm.TimeOfDay = []HourBucket{}
	}
	if vm.MLPredictions.RecommendedCampaigns == nil {
		vm.MLPredictions.RecommendedCampaigns = []string{}
	}
}
