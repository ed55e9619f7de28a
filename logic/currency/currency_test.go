package currency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatINR(t *testing.T) {
	cases := map[int64]string{
		0:          "₹0",
		999:        "₹999",
		1000:       "₹1,000",
		100000:     "₹1,00,000",
		500000:     "₹5,00,000",
		1950500:    "₹19,50,500",
		10000000:   "₹1,00,00,000",
		1234567890: "₹1,23,45,67,890",
		-41500:     "-₹41,500",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatINR(in), "FormatINR(%d)", in)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	s := FormatINR(500000)
	require.Equal(t, "₹5,00,000", s)

	a, ok := ParseAmount(s)
	require.True(t, ok)
	assert.Equal(t, 500000.0, a.Value)
	assert.Equal(t, INR, a.Code)
	assert.False(t, a.Percent)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		value   float64
		code    Code
		percent bool
	}{
		{"$10,000", 10000, USD, false},
		{"USD 2,500.50", 2500.5, USD, false},
		{"Rs. 75,000", 75000, INR, false},
		{"INR 1,20,000", 120000, INR, false},
		{"5 lakh", 500000, INR, false},
		{"2.5 lacs", 250000, INR, false},
		{"1.2 crore", 12000000, INR, false},
		{"15%", 15, Unknown, true},
		{"18 %", 18, Unknown, true},
		{"4,500", 4500, Unknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, ok := ParseAmount(tt.in)
			require.True(t, ok)
			assert.InDelta(t, tt.value, a.Value, 0.001)
			assert.Equal(t, tt.code, a.Code)
			assert.Equal(t, tt.percent, a.Percent)
		})
	}

	_, ok := ParseAmount("See contract")
	assert.False(t, ok)
}

func TestDetectCodeIgnoresWordFragments(t *testing.T) {
	assert.Equal(t, Unknown, DetectCode("Access for 6 hours. Mrs. Smith signs."))
	assert.Equal(t, INR, DetectCode("Payable in rs. only"))
	assert.Equal(t, USD, DetectCode("fees in USD"))
}

func TestConverter(t *testing.T) {
	c := NewConverter(0)
	assert.Equal(t, DefaultUSDToINRRate, c.Rate())
	assert.Equal(t, int64(830000), c.USDToINR(10000))

	var zero Converter
	assert.Equal(t, DefaultUSDToINRRate, zero.Rate())

	custom := NewConverter(90)
	assert.Equal(t, int64(450), custom.USDToINR(5))
	assert.Equal(t, int64(42), custom.WholeINR(41.5, INR))

	assert.Equal(t, int64(math.MaxInt64), c.WholeINR(1e30, USD))
	assert.Equal(t, int64(-math.MaxInt64), c.WholeINR(-1e30, INR))
	assert.Equal(t, int64(0), c.WholeINR(math.NaN(), INR))
}

func TestToINR(t *testing.T) {
	c := NewConverter(DefaultUSDToINRRate)
	tests := map[string]string{
		"":                  NotSpecified,
		"$10,000":           "₹8,30,000",
		"$500":              "₹41,500",
		"₹5,00,000":         "₹5,00,000",
		"15%":               "15%",
		"See contract":      "See contract",
		"Not specified":     "Not specified",
		"250000":            "₹2,50,000",
		"Rs. 5 lakh":        "₹5,00,000",
		"Unable to calculate - review contract manually": "Unable to calculate - review contract manually",
	}
	for in, want := range tests {
		assert.Equal(t, want, c.ToINR(in), "ToINR(%q)", in)
	}
}

func TestValueINR(t *testing.T) {
	c := NewConverter(DefaultUSDToINRRate)
	assert.Equal(t, 830000.0, c.ValueINR("$10,000"))
	assert.Equal(t, 500000.0, c.ValueINR("₹5,00,000"))
	assert.Equal(t, 0.0, c.ValueINR("18%"))
	assert.Equal(t, 0.0, c.ValueINR("Not specified"))
}
