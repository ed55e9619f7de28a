package analyzer

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractscan/logic/currency"
	"contractscan/types"
)

const sampleContract = `WEDDING SERVICES AGREEMENT
Venue: The Grand Palace, Udaipur
Event Date: March 15, 2026
Guest count: 350

Venue rental: Rs. 8,00,000. Catering minimum spend: Rs. 3,00,000.
Service charge: 18%. Cleaning fee: Rs. 15,000. Security deposit: Rs. 50,000 (non-refundable).
Overtime rate: Rs. 10,000 per hour. Cancellation fee: 50%.
Client agrees to indemnify the venue. Disputes go to binding arbitration.
Prices subject to change. Complimentary welcome drinks. Payment plan available.
Service charge: 20% on beverages.`

func TestAnalyzeIsDeterministic(t *testing.T) {
	inputs := []string{"", sampleContract, "Service charge: 15%. Cleaning fee: $500. Total: $20,000."}
	for _, in := range inputs {
		a, err := json.Marshal(Analyze(in))
		require.NoError(t, err)
		b, err := json.Marshal(Analyze(in))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	}
}

func TestAnalyzeConcurrentCallsAgree(t *testing.T) {
	want, err := json.Marshal(Analyze(sampleContract))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, _ := json.Marshal(Analyze(sampleContract))
			results[i] = string(b)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, string(want), got)
	}
}

func TestDedupByNameAndTitle(t *testing.T) {
	text := strings.Repeat("Service charge: 10%. Non-refundable. Penalty applies. Penalties apply. ", 5) +
		"Service charge: 25%."
	got := Analyze(text)

	names := map[string]int{}
	for _, f := range got.HiddenFees {
		names[f.Name]++
	}
	for name, n := range names {
		assert.Equal(t, 1, n, "fee %s", name)
	}
	titles := map[string]int{}
	for _, r := range got.Risks {
		titles[r.Title]++
	}
	for title, n := range titles {
		assert.Equal(t, 1, n, "risk %s", title)
	}

	require.Len(t, got.HiddenFees, 1)
	assert.Equal(t, "10%", got.HiddenFees[0].Amount, "first occurrence wins")
}

func TestPositivesNeverEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "nothing here", sampleContract} {
		assert.NotEmpty(t, Analyze(in).Positives, "input %q", in)
	}
	assert.Equal(t, []string{types.DefaultPositiveTerm}, Analyze("plain text").Positives)
}

func TestScoreBoundsAndMonotonic(t *testing.T) {
	for h := 0; h <= 8; h++ {
		for m := 0; m <= 8; m++ {
			for f := 0; f <= 8; f++ {
				s := Score(h, m, f)
				assert.GreaterOrEqual(t, s, 1)
				assert.LessOrEqual(t, s, 10)
				assert.GreaterOrEqual(t, Score(h+1, m, f), s)
				assert.GreaterOrEqual(t, Score(h, m+1, f), s)
				assert.GreaterOrEqual(t, Score(h, m, f+1), s)
			}
		}
	}
	assert.Equal(t, 3, Score(0, 0, 0))
	assert.Equal(t, 4, Score(0, 1, 0), "3.5 rounds half up")
	assert.Equal(t, 5, Score(1, 0, 0), "4.5 rounds half up")
	assert.Equal(t, 10, Score(10, 10, 10))

	assert.Equal(t, 10, Analyze(sampleContract).RiskScore)
}

func TestUSDConversion(t *testing.T) {
	got := Analyze("Venue rental: $10,000 for the evening.")
	want := currency.FormatINR(int64(10000 * currency.DefaultUSDToINRRate))
	assert.Equal(t, want, got.BasePrice)
	assert.Equal(t, want, got.TotalValue)
	assert.Equal(t, "₹8,30,000", got.BasePrice)
}

func TestExchangeRateOverride(t *testing.T) {
	a := New(WithExchangeRate(90))
	got := a.Analyze("Venue rental: $10,000 for the evening.")
	assert.Equal(t, "₹9,00,000", got.BasePrice)
	assert.Equal(t, 90.0, a.Rate())

	assert.Equal(t, currency.DefaultUSDToINRRate, New(WithExchangeRate(-1)).Rate())
}

func TestFeesAndTotalRollUp(t *testing.T) {
	got := Analyze("Service charge: 15%. Cleaning fee: $500. Total: $20,000.")

	require.Len(t, got.HiddenFees, 2)
	assert.Equal(t, types.Fee{
		Name:        "Service Charge",
		Amount:      "15%",
		Severity:    types.SeverityMedium,
		Description: "Found reference to service charge in the contract.",
	}, got.HiddenFees[0])
	assert.Equal(t, "Cleaning Fee", got.HiddenFees[1].Name)
	assert.Equal(t, "$500", got.HiddenFees[1].Amount)
	assert.Equal(t, types.SeverityLow, got.HiddenFees[1].Severity)

	// 20000 + 0.15*20000 + 500 = 23500 USD
	assert.Equal(t, currency.FormatINR(23500*83), got.TotalValue)
	assert.Equal(t, "₹41,500", got.BasePrice)
	assert.Equal(t, "Found 2 potential fees in the contract.", got.Summary)
}

func TestMixedCurrencyRollUp(t *testing.T) {
	got := Analyze("Service charge: 15%. Total Rs. 50,000. Cleaning fee: 2,000 USD")

	require.Len(t, got.HiddenFees, 2)
	assert.Equal(t, "2,000 USD", got.HiddenFees[1].Amount, "suffix code stays with the fee")
	assert.Equal(t, "₹50,000", got.BasePrice)
	// 总价 166000 (2000 USD), 费用 0.15*166000 + 166000
	assert.Equal(t, "₹3,56,900", got.TotalValue)
}

func TestHugeFigureStaysPositive(t *testing.T) {
	got := Analyze("Venue rental: $99999999999999999999.")
	assert.NotEqual(t, types.PriceNotSpecified, got.BasePrice)
	assert.NotEqual(t, types.TotalNotCalculated, got.TotalValue)
	assert.True(t, strings.HasPrefix(got.BasePrice, "₹9"), got.BasePrice)
}

func TestPenaltyNeedsClauseContext(t *testing.T) {
	assert.Empty(t, Analyze("Late penalties apply after the event.").Risks)
	assert.Equal(t, 3, Analyze("Late penalties apply after the event.").RiskScore)

	got := Analyze("Penalties for early departure are listed below.")
	require.Len(t, got.Risks, 1)
	assert.Equal(t, "Penalty Clauses", got.Risks[0].Title)
	assert.Len(t, Analyze("A penalty is charged.").Risks, 1)
}

func TestTaxesNeedWordBoundary(t *testing.T) {
	assert.Empty(t, Analyze("Syntax 5% of the form is invalid.").HiddenFees)

	got := Analyze("GST: 18% extra.")
	require.Len(t, got.HiddenFees, 1)
	assert.Equal(t, "Taxes", got.HiddenFees[0].Name)
	assert.Equal(t, "18%", got.HiddenFees[0].Amount)
}

func TestRiskScenario(t *testing.T) {
	got := Analyze("The deposit is non-refundable. All disputes are settled by binding arbitration.")

	require.Len(t, got.Risks, 2)
	assert.Equal(t, "Non-Refundable Deposit", got.Risks[0].Title)
	assert.Equal(t, types.SeverityHigh, got.Risks[0].Severity)
	assert.Equal(t, "Binding Arbitration", got.Risks[1].Title)
	assert.Equal(t, types.SeverityMedium, got.Risks[1].Severity)
	assert.Equal(t, 5, got.RiskScore)

	require.Len(t, got.NegotiationSuggestions, 1)
	assert.Equal(t, types.NegotiationSuggestion{
		Clause:     "Non-Refundable Deposit",
		Suggestion: "Consider negotiating a more favorable non-refundable deposit clause.",
		Priority:   types.SeverityHigh,
	}, got.NegotiationSuggestions[0])
	assert.Equal(t, "Identified 2 risk factors to review. 1 high-priority item requires attention.", got.Summary)
}

func TestEmptyInput(t *testing.T) {
	got := Analyze("")

	assert.Equal(t, []types.Fee{}, got.HiddenFees)
	assert.Equal(t, []types.Risk{}, got.Risks)
	assert.Equal(t, []string{"Standard contract terms detected"}, got.Positives)
	assert.Equal(t, 3, got.RiskScore)
	assert.Equal(t, types.PriceNotSpecified, got.BasePrice)
	assert.Equal(t, types.TotalNotCalculated, got.TotalValue)
	assert.Equal(t, "Contract appears straightforward. Review all terms before signing.", got.Summary)
	assert.Empty(t, got.VenueName)
	assert.Empty(t, got.NegotiationSuggestions)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"hiddenFees":[]`)
	assert.Contains(t, string(b), `"negotiationSuggestions":[]`)
}

func TestBasePriceIsNextLargest(t *testing.T) {
	got := Analyze("Deposit $5,000 due now. Package $12,000. Decor $3,000.")
	assert.Equal(t, currency.FormatINR(5000*83), got.BasePrice)
	assert.Equal(t, currency.FormatINR(12000*83), got.TotalValue)
}

func TestImplausiblyLowBase(t *testing.T) {
	got := Analyze("Parking Rs. 500. Decor Rs. 2,000.")
	assert.Equal(t, types.PriceNotSpecified, got.BasePrice)
	assert.Equal(t, types.TotalNotCalculated, got.TotalValue)
}

func TestLocalCurrencyPool(t *testing.T) {
	got := Analyze("Hall rental 5 lakh. Decor package Rs. 1,20,000. Photographer $1,000.")
	assert.Equal(t, "₹1,20,000", got.BasePrice)
	assert.Equal(t, "₹5,00,000", got.TotalValue)
}

func TestSampleContract(t *testing.T) {
	got := Analyze(sampleContract)

	var names []string
	for _, f := range got.HiddenFees {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"Service Charge", "Cleaning Fee", "Overtime Fee", "Security Deposit",
		"Cancellation Fee", "Minimum Spend",
	}, names)
	assert.Equal(t, "18%", got.HiddenFees[0].Amount)
	assert.Equal(t, "Rs. 10,000 per hour", got.HiddenFees[2].Amount)

	assert.Equal(t, "The Grand Palace", got.VenueName)
	assert.Equal(t, "March 15, 2026", got.EventDate)
	assert.Equal(t, "350", got.GuestCapacity)
	assert.Equal(t, "₹3,00,000", got.BasePrice)
	assert.Contains(t, got.Positives, "Complimentary services or amenities included")
	assert.Contains(t, got.Positives, "Payment plan or installment options available")

	// 高风险建议在前, 高额费用建议在后
	var clauses []string
	for _, s := range got.NegotiationSuggestions {
		clauses = append(clauses, s.Clause)
	}
	assert.Equal(t, []string{
		"Non-Refundable Deposit", "Indemnification Clause",
		"Overtime Fee", "Cancellation Fee", "Minimum Spend",
	}, clauses)
}

func TestVenueRequiresCapitalizedPhrase(t *testing.T) {
	assert.Equal(t, "Leela Gardens", Analyze("Hotel: Leela Gardens, Bangalore").VenueName)
	assert.Empty(t, Analyze("the venue shall be decorated by the client").VenueName)
	assert.Empty(t, Analyze("Venue: grand hall\nTotal $20,000").VenueName, "match stays on one line")
}

func TestSeverityEnum(t *testing.T) {
	s, err := types.ParseSeverity(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, types.SeverityHigh, s)

	_, err = types.ParseSeverity("critical")
	assert.Error(t, err)

	var f types.Fee
	assert.Error(t, json.Unmarshal([]byte(`{"severity":"urgent"}`), &f))
}
