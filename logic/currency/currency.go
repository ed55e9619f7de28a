// Package currency converts and formats contract amounts for display in Indian Rupees.
package currency

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultUSDToINRRate is the fixed USD -> INR multiplier used when no override is configured.
const DefaultUSDToINRRate = 83.0

const (
	SymbolINR = "₹"

	NotSpecified = "Not specified"
)

// Code identifies the currency an amount was written in.
type Code string

const (
	INR     Code = "INR"
	USD     Code = "USD"
	Unknown Code = ""
)

var (
	numberRe    = regexp.MustCompile(`\d+(?:,\d{2,3})*(?:\.\d{1,2})?`)
	localRe     = regexp.MustCompile(`(?i)₹|(?:^|[^a-z])(?:rs\.?|inr|lakhs?|lacs?|crores?)(?:[^a-z]|$)`)
	usdRe       = regexp.MustCompile(`(?i)\$|(?:^|[^a-z])usd(?:[^a-z]|$)`)
	lakhUnitRe  = regexp.MustCompile(`(?i)\d\s*(?:lakhs?|lacs?)(?:[^a-z]|$)`)
	croreUnitRe = regexp.MustCompile(`(?i)\d\s*crores?(?:[^a-z]|$)`)
)

const (
	Lakh  = 100_000
	Crore = 10_000_000
)

// Amount is a parsed monetary or percentage token.
type Amount struct {
	Value   float64
	Code    Code
	Percent bool
}

// ParseAmount reads the first number in s together with its currency marker.
// A token that is only a percentage is reported with Percent set.
func ParseAmount(s string) (Amount, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return Amount{}, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return Amount{}, false
	}
	switch {
	case croreUnitRe.MatchString(s):
		v *= Crore
	case lakhUnitRe.MatchString(s):
		v *= Lakh
	}
	a := Amount{Value: v, Code: DetectCode(s)}
	if strings.Contains(s, "%") && a.Code == Unknown {
		a.Percent = true
	}
	return a, true
}

// DetectCode reports which currency marker s carries, if any.
func DetectCode(s string) Code {
	switch {
	case localRe.MatchString(s):
		return INR
	case usdRe.MatchString(s):
		return USD
	}
	return Unknown
}

// FormatINR renders v with Indian digit grouping, e.g. 500000 -> "₹5,00,000".
func FormatINR(v int64) string {
	if v == 0 {
		return SymbolINR + "0"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + SymbolINR + groupIndian(strconv.FormatInt(v, 10))
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}

// Converter applies one exchange rate. The zero value uses DefaultUSDToINRRate.
type Converter struct {
	rate float64
}

func NewConverter(rate float64) Converter {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		rate = DefaultUSDToINRRate
	}
	return Converter{rate: rate}
}

func (c Converter) Rate() float64 {
	if c.rate <= 0 {
		return DefaultUSDToINRRate
	}
	return c.rate
}

// USDToINR converts a dollar value to whole rupees.
func (c Converter) USDToINR(usd float64) int64 {
	return roundHalfUp(usd * c.Rate())
}

// WholeINR converts v, written in code, to whole rupees.
func (c Converter) WholeINR(v float64, code Code) int64 {
	if code == USD {
		v *= c.Rate()
	}
	return roundHalfUp(v)
}

// ToINR converts an amount string for display. Sentinels, percentages and
// strings already in rupees are returned unchanged.
func (c Converter) ToINR(amount string) string {
	if strings.TrimSpace(amount) == "" {
		return NotSpecified
	}
	if strings.Contains(amount, SymbolINR) {
		return amount
	}
	lower := strings.ToLower(amount)
	for _, keep := range []string{"not specified", "see contract", "variable", "unable to calculate"} {
		if strings.Contains(lower, keep) {
			return amount
		}
	}
	if strings.Contains(amount, "%") && !strings.Contains(amount, "$") {
		return amount
	}
	a, ok := ParseAmount(amount)
	if !ok {
		return amount
	}
	if a.Code == USD {
		return FormatINR(c.USDToINR(a.Value))
	}
	return FormatINR(roundHalfUp(a.Value))
}

// ValueINR returns the rupee value of an amount string; pure percentages are 0.
func (c Converter) ValueINR(amount string) float64 {
	a, ok := ParseAmount(amount)
	if !ok || a.Percent {
		return 0
	}
	if a.Code == USD {
		return a.Value * c.Rate()
	}
	return a.Value
}

// roundHalfUp 超出 int64 范围时取边界值
func roundHalfUp(v float64) int64 {
	r := math.Floor(v + 0.5)
	switch {
	case math.IsNaN(r):
		return 0
	case r >= math.MaxInt64:
		return math.MaxInt64
	case r <= -math.MaxInt64:
		return -math.MaxInt64
	}
	return int64(r)
}
