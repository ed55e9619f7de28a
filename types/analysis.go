package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity 严重程度 is one of exactly three levels shared by fees, risks and suggestions.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// ParseSeverity accepts the three levels case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityHigh:
		return SeverityHigh, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityLow:
		return SeverityLow, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

func (s Severity) Valid() bool {
	_, err := ParseSeverity(string(s))
	return err == nil
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

const (
	PriceNotSpecified   = "Not specified"
	TotalNotCalculated  = "Unable to calculate - review contract manually"
	DefaultPositiveTerm = "Standard contract terms detected"
	FeeAmountUnknown    = "See contract"
)

type Fee struct {
	Name        string   `json:"name"`
	Amount      string   `json:"amount"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

type Risk struct {
	Title       string   `json:"title"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

type NegotiationSuggestion struct {
	Clause     string   `json:"clause"`
	Suggestion string   `json:"suggestion"`
	Priority   Severity `json:"priority"`
}

// ContractAnalysis 合同分析结果, built once per request and never mutated afterwards.
type ContractAnalysis struct {
	RiskScore              int                     `json:"riskScore"`
	BasePrice              string                  `json:"basePrice"`
	TotalValue             string                  `json:"totalValue"`
	HiddenFees             []Fee                   `json:"hiddenFees"`
	Risks                  []Risk                  `json:"risks"`
	Positives              []string                `json:"positives"`
	Summary                string                  `json:"summary"`
	VenueName              string                  `json:"venueName,omitempty"`
	EventDate              string                  `json:"eventDate,omitempty"`
	GuestCapacity          string                  `json:"guestCapacity,omitempty"`
	NegotiationSuggestions []NegotiationSuggestion `json:"negotiationSuggestions"`
}

func (a *ContractAnalysis) HighRiskCount() int {
	n := 0
	for _, r := range a.Risks {
		if r.Severity == SeverityHigh {
			n++
		}
	}
	return n
}
