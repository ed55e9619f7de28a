package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractscan/logic/currency"
	"contractscan/types"
)

func sampleRecord() *types.ContractRecord {
	return &types.ContractRecord{
		ID:         "c1",
		Name:       "Grand Palace",
		Venue:      "Jaipur",
		Status:     types.StatusAnalyzed,
		UploadedAt: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Analysis: &types.ContractAnalysis{
			RiskScore:  7,
			BasePrice:  "$5,000",
			TotalValue: "₹4,98,000",
			HiddenFees: []types.Fee{{Name: "Cleaning Fee", Amount: "$200", Severity: types.SeverityMedium, Description: "a | b"}},
			Risks:      []types.Risk{{Title: "Non-Refundable Deposit", Severity: types.SeverityHigh, Description: "Deposit is lost."}},
			Positives:  []string{"Free parking"},
			Summary:    "Found 1 potential fee in the contract.",
			NegotiationSuggestions: []types.NegotiationSuggestion{
				{Clause: "Non-Refundable Deposit", Suggestion: "Ask for partial refund.", Priority: types.SeverityHigh},
			},
		},
	}
}

func TestMarkdownConvertsToINR(t *testing.T) {
	md := Markdown(sampleRecord(), currency.NewConverter(83))

	assert.Contains(t, md, "# Contract Analysis Report")
	assert.Contains(t, md, "**Grand Palace** - Jaipur")
	assert.Contains(t, md, "Analyzed on March 15, 2026")
	assert.Contains(t, md, "Risk Score: 7/10 (high)")
	assert.Contains(t, md, "| ₹4,15,000 | ₹4,98,000 | 1 | 1 |")
	assert.Contains(t, md, `| Cleaning Fee | ₹16,600 | medium | a \| b |`)
	assert.Contains(t, md, "## Negotiation Suggestions")
	assert.NotContains(t, md, "$")
}

func TestMarkdownPending(t *testing.T) {
	md := Markdown(&types.ContractRecord{FileName: "x.pdf", Status: types.StatusAnalyzing}, currency.Converter{})
	assert.Contains(t, md, "**x.pdf**")
	assert.Contains(t, md, "Analysis status: analyzing")
}

func TestHTMLRendersTables(t *testing.T) {
	out, err := HTML("Grand <Palace>", Markdown(sampleRecord(), currency.Converter{}))
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Contract Analysis Report - Grand &lt;Palace&gt;</title>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<h2>Hidden Fees Breakdown</h2>")
}

func TestRiskLevel(t *testing.T) {
	assert.Equal(t, "low", riskLevel(3))
	assert.Equal(t, "medium", riskLevel(4))
	assert.Equal(t, "high", riskLevel(7))
}
