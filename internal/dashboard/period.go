package dashboard

import (
	"fmt"
	"strings"
)

// Period selects the reporting window for a dashboard fetch.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
	PeriodAll     Period = "all"
)

// DefaultPeriod is used when no period has been chosen yet.
const DefaultPeriod = PeriodMonthly

// Periods lists every supported period in selector order.
var Periods = []Period{PeriodWeekly, PeriodMonthly, PeriodYearly, PeriodAll}

// ParsePeriod validates a period query value. An empty value yields DefaultPeriod.
func ParsePeriod(raw string) (Period, error) {
	value := Period(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return DefaultPeriod, nil
	}
	if !value.Valid() {
		return "", fmt.Errorf("dashboard: unknown period %q", raw)
	}
	return value, nil
}

// Valid reports whether p is one of the supported periods.
func (p Period) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly, PeriodAll:
		return true
	}
	return false
}

// Label returns the human readable window for p.
func (p Period) Label() string {
	switch p {
	case PeriodWeekly:
		return "Last 7 Days"
	case PeriodMonthly:
		return "Last 30 Days"
	case PeriodYearly:
		return "Last 12 Months"
	case PeriodAll:
		return "All Time"
	}
	return "Last 30 Days"
}

func (p Period) String() string {
	return string(p)
}
