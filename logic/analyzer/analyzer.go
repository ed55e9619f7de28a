// Package analyzer 本地合同分析: 在没有 LLM 或 LLM 调用失败时, 用规则表从合同文本中
// 提取费用, 风险条款, 有利条款和价格, 并给出风险评分.
package analyzer

import (
	"fmt"
	"math"
	"strings"

	"contractscan/logic/currency"
	"contractscan/types"
)

// 风险评分权重
const (
	baseRiskScore  = 3.0
	highRiskWeight = 1.5
	medRiskWeight  = 0.5
	highFeeWeight  = 1.0
	minRiskScore   = 1
	maxRiskScore   = 10
)

const straightforwardSummary = "Contract appears straightforward. Review all terms before signing."

// Analyzer 只持有不可变配置, 可并发使用.
type Analyzer struct {
	conv currency.Converter
}

type Option func(*Analyzer)

// WithExchangeRate 覆盖默认的 USD -> INR 汇率.
func WithExchangeRate(rate float64) Option {
	return func(a *Analyzer) {
		a.conv = currency.NewConverter(rate)
	}
}

func New(opts ...Option) *Analyzer {
	a := &Analyzer{conv: currency.NewConverter(currency.DefaultUSDToINRRate)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAnalyzer = New()

// Analyze 使用默认汇率分析合同文本.
func Analyze(text string) types.ContractAnalysis {
	return defaultAnalyzer.Analyze(text)
}

func (a *Analyzer) Rate() float64 {
	return a.conv.Rate()
}

// Analyze 纯函数: 相同输入总是得到相同输出, 空文本返回最低置信度结果.
func (a *Analyzer) Analyze(text string) types.ContractAnalysis {
	fees := extractFees(text)
	risks := extractRisks(text)
	positives := extractPositives(text)

	prices := a.extractPrices(text)
	total := a.rollUp(prices, fees)

	return types.ContractAnalysis{
		RiskScore:              riskScore(risks, fees),
		BasePrice:              prices.basePrice(a.conv),
		TotalValue:             total,
		HiddenFees:             fees,
		Risks:                  risks,
		Positives:              positives,
		Summary:                summarize(fees, risks),
		VenueName:              extractVenue(text),
		EventDate:              extractEventDate(text),
		GuestCapacity:          extractGuestCapacity(text),
		NegotiationSuggestions: suggest(fees, risks),
	}
}

func extractFees(text string) []types.Fee {
	fees := make([]types.Fee, 0)
	seen := make(map[string]bool)
	for _, rule := range feeRules {
		// 同一类别只保留第一次出现
		matches := rule.re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 || seen[rule.name] {
			continue
		}
		amount := strings.TrimSpace(matches[0][1])
		if amount == "" {
			amount = types.FeeAmountUnknown
		}
		seen[rule.name] = true
		fees = append(fees, types.Fee{
			Name:        rule.name,
			Amount:      amount,
			Severity:    rule.severity,
			Description: fmt.Sprintf("Found reference to %s in the contract.", strings.ToLower(rule.name)),
		})
	}
	return fees
}

func extractRisks(text string) []types.Risk {
	risks := make([]types.Risk, 0)
	seen := make(map[string]bool)
	for _, rule := range riskRules {
		if seen[rule.title] || !rule.re.MatchString(text) {
			continue
		}
		seen[rule.title] = true
		risks = append(risks, types.Risk{Title: rule.title, Severity: rule.severity, Description: rule.description})
	}
	return risks
}

func extractPositives(text string) []string {
	positives := make([]string, 0, 1)
	seen := make(map[string]bool)
	for _, rule := range positiveRules {
		if seen[rule.text] || !rule.re.MatchString(text) {
			continue
		}
		seen[rule.text] = true
		positives = append(positives, rule.text)
	}
	if len(positives) == 0 {
		positives = append(positives, types.DefaultPositiveTerm)
	}
	return positives
}

func riskScore(risks []types.Risk, fees []types.Fee) int {
	high, medium, highFees := 0, 0, 0
	for _, r := range risks {
		switch r.Severity {
		case types.SeverityHigh:
			high++
		case types.SeverityMedium:
			medium++
		}
	}
	for _, f := range fees {
		if f.Severity == types.SeverityHigh {
			highFees++
		}
	}
	return Score(high, medium, highFees)
}

// Score 风险评分: 基准 3 分, 每个高风险 +1.5, 每个中风险 +0.5, 每个高额费用 +1, 四舍五入后限制在 [1,10].
func Score(highRisks, mediumRisks, highFees int) int {
	s := baseRiskScore +
		float64(highRisks)*highRiskWeight +
		float64(mediumRisks)*medRiskWeight +
		float64(highFees)*highFeeWeight
	n := int(math.Floor(s + 0.5))
	return min(maxRiskScore, max(minRiskScore, n))
}

func suggest(fees []types.Fee, risks []types.Risk) []types.NegotiationSuggestion {
	out := make([]types.NegotiationSuggestion, 0)
	for _, r := range risks {
		if r.Severity != types.SeverityHigh {
			continue
		}
		out = append(out, types.NegotiationSuggestion{
			Clause:     r.Title,
			Suggestion: fmt.Sprintf("Consider negotiating a more favorable %s clause.", strings.ToLower(r.Title)),
			Priority:   types.SeverityHigh,
		})
	}
	for _, f := range fees {
		if f.Severity != types.SeverityHigh {
			continue
		}
		out = append(out, types.NegotiationSuggestion{
			Clause:     f.Name,
			Suggestion: fmt.Sprintf("Negotiate for a lower %s or a refundable deposit.", strings.ToLower(f.Name)),
			Priority:   types.SeverityHigh,
		})
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func summarize(fees []types.Fee, risks []types.Risk) string {
	var parts []string
	if n := len(fees); n > 0 {
		parts = append(parts, fmt.Sprintf("Found %d potential %s in the contract.", n, plural(n, "fee", "fees")))
	}
	if n := len(risks); n > 0 {
		parts = append(parts, fmt.Sprintf("Identified %d risk %s to review.", n, plural(n, "factor", "factors")))
	}
	high := 0
	for _, r := range risks {
		if r.Severity == types.SeverityHigh {
			high++
		}
	}
	if high > 0 {
		parts = append(parts, fmt.Sprintf("%d high-priority %s attention.", high, plural(high, "item requires", "items require")))
	}
	if len(parts) == 0 {
		return straightforwardSummary
	}
	return strings.Join(parts, " ")
}

func extractVenue(text string) string {
	m := venueRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func extractEventDate(text string) string {
	m := eventDateRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(m[1]), ",-/ ")
}

func extractGuestCapacity(text string) string {
	for _, re := range guestCountRes {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}
