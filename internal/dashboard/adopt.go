package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMissingKPIs reports a payload that decoded but carries no kpis block.
var ErrMissingKPIs = errors.New("dashboard: payload has no kpis")

// rawTrendPoint accepts both the canonical "transactions" key and the
// upstream SQL alias "transaction_count".
type rawTrendPoint struct {
	Date             string  `json:"date"`
	Total            float64 `json:"total"`
	Transactions     *count  `json:"transactions"`
	TransactionCount *count  `json:"transaction_count"`
	UniqueDonors     count   `json:"unique_donors"`
}

type rawPayload struct {
	ViewModel
	KPIs  *KPIs           `json:"kpis"`
	Trend []rawTrendPoint `json:"trend"`
}

// Adopt converts an upstream dashboard payload into the canonical model.
// The model is keyed by the requested period whatever the payload claims.
// Payloads without kpis yield ErrMissingKPIs; callers fall back to
// synthetic data for both that and decode failures.
func Adopt(raw []byte, period Period) (ViewModel, error) {
	var payload rawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ViewModel{}, fmt.Errorf("dashboard: decode payload: %w", err)
	}
	if payload.KPIs == nil {
		return ViewModel{}, ErrMissingKPIs
	}

	vm := payload.ViewModel
	vm.KPIs = *payload.KPIs
	vm.Period = period
	vm.Trend = make([]TrendPoint, 0, len(payload.Trend))
	for _, point := range payload.Trend {
		tp := TrendPoint{Date: point.Date, Total: point.Total, UniqueDonors: int(point.UniqueDonors)}
		switch {
		case point.Transactions != nil:
			tp.Transactions = int(*point.Transactions)
		case point.TransactionCount != nil:
			tp.Transactions = int(*point.TransactionCount)
		}
		vm.Trend = append(vm.Trend, tp)
	}
	vm.clampMoney()
	sort.SliceStable(vm.TopDonors, func(i, j int) bool {
		return vm.TopDonors[i].TotalAmount > vm.TopDonors[j].TotalAmount
	})
	vm.fillEmpty()
	return vm, nil
}
