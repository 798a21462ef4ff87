// Package format renders donation magnitudes for dashboard display.
package format

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// CurrencySymbol prefixes every rendered amount.
	CurrencySymbol = "₹"

	thousand = 1_000
	lakh     = 100_000
	crore    = 10_000_000
)

var indianPrinter = message.NewPrinter(language.MustParse("en-IN"))

// Currency renders value as rupees using crore, lakh and thousand suffixes.
// Nil or non-numeric input renders as "₹0". Negative values use the same
// thresholds on their magnitude and carry a leading minus sign.
func Currency(value interface{}) string {
	v, ok := toFloat64(value)
	if !ok {
		return CurrencySymbol + "0"
	}
	sign, abs := split(v)
	switch {
	case abs >= crore:
		return sign + CurrencySymbol + Fixed1(abs/crore) + " Cr"
	case abs >= lakh:
		return sign + CurrencySymbol + Fixed1(abs/lakh) + " L"
	case math.Round(abs) >= thousand:
		return sign + CurrencySymbol + Fixed1(abs/thousand) + "k"
	}
	return sign + CurrencySymbol + integer(abs)
}

// Number renders counts, abbreviating thousands with a "k" suffix.
func Number(value interface{}) string {
	v, ok := toFloat64(value)
	if !ok {
		return "0"
	}
	sign, abs := split(v)
	if math.Round(abs) >= thousand {
		return sign + Fixed1(abs/thousand) + "k"
	}
	return sign + integer(abs)
}

// Lakhs expresses v in lakhs with one decimal, without unit.
func Lakhs(v float64) string {
	return Fixed1(v / lakh)
}

// Crores expresses v in crores with one decimal, without unit.
func Crores(v float64) string {
	return Fixed1(v / crore)
}

// Fixed1 formats v with exactly one decimal place. Exact ties round away
// from zero, so 1.25 becomes "1.3".
func Fixed1(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	tenths := new(big.Rat).SetFloat64(math.Abs(v))
	tenths.Mul(tenths, big.NewRat(10, 1))
	if tenths.Denom().Cmp(big.NewInt(2)) != 0 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	up := new(big.Int).Add(tenths.Num(), big.NewInt(1))
	digits := up.Rsh(up, 1).String()
	if len(digits) < 2 {
		digits = "0" + digits
	}
	out := digits[:len(digits)-1] + "." + digits[len(digits)-1:]
	if v < 0 {
		out = "-" + out
	}
	return out
}

// Plain formats v with the shortest representation, so 12.3 stays "12.3" and
// 10 stays "10".
func Plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Indian groups digits the en-IN way, e.g. 185677 becomes "1,85,677".
func Indian(v float64) string {
	return indianPrinter.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

func split(v float64) (string, float64) {
	if v < 0 && math.Round(-v) != 0 {
		return "-", -v
	}
	return "", math.Abs(v)
}

func integer(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

func toFloat64(v interface{}) (float64, bool) {
	var out float64
	switch val := v.(type) {
	case nil:
		return 0, false
	case float32:
		out = float64(val)
	case float64:
		out = val
	case *float64:
		if val == nil {
			return 0, false
		}
		out = *val
	case int64:
		out = float64(val)
	case int32:
		out = float64(val)
	case uint64:
		out = float64(val)
	case uint32:
		out = float64(val)
	case int:
		out = float64(val)
	case *int:
		if val == nil {
			return 0, false
		}
		out = float64(*val)
	case uint:
		out = float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		out = f
	default:
		return 0, false
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, false
	}
	return out, true
}
