package analyzer

import (
	"regexp"

	"contractscan/types"
)

// 金额片段: 百分比优先, 其次是带币种前缀或后缀的数字 (支持千分位和 lakh 分组, 最多两位小数)
const (
	pctPattern   = `\d+(?:\.\d+)?\s*%`
	moneyPattern = `(?:(?:\$|₹|\bRs\.?|\bINR|\bUSD)\s*)?\d+(?:,\d{2,3})*(?:\.\d{1,2})?(?:\s*(?:lakhs?|lacs?|crores?)\b)?(?:\s*(?:INR|USD)\b)?`
	sep          = `[:\s]*`
)

type feeRule struct {
	re       *regexp.Regexp
	name     string
	severity types.Severity
}

type riskRule struct {
	re          *regexp.Regexp
	title       string
	severity    types.Severity
	description string
}

type positiveRule struct {
	re   *regexp.Regexp
	text string
}

func fee(keyword, amount, name string, sev types.Severity) feeRule {
	return feeRule{
		re:       regexp.MustCompile(`(?i)` + keyword + sep + `(` + amount + `)`),
		name:     name,
		severity: sev,
	}
}

func risk(pattern, title string, sev types.Severity, desc string) riskRule {
	return riskRule{re: regexp.MustCompile(`(?i)` + pattern), title: title, severity: sev, description: desc}
}

func positive(pattern, text string) positiveRule {
	return positiveRule{re: regexp.MustCompile(`(?i)` + pattern), text: text}
}

var (
	moneyOrPct = pctPattern + `|` + moneyPattern

	// 顺序即输出顺序
	feeRules = []feeRule{
		fee(`service\s*(?:charge|fee)`, moneyOrPct, "Service Charge", types.SeverityMedium),
		fee(`cleaning\s*(?:fee|charge)`, moneyPattern, "Cleaning Fee", types.SeverityLow),
		fee(`overtime\s*(?:fee|charge|rate)`, moneyPattern+`(?:\s*per\s*hour)?`, "Overtime Fee", types.SeverityHigh),
		fee(`gratuity`, moneyOrPct, "Gratuity", types.SeverityMedium),
		fee(`admin(?:istrative|istration)?\s*(?:fee|charge)`, moneyOrPct, "Administrative Fee", types.SeverityMedium),
		fee(`security\s*(?:deposit|fee)`, moneyPattern, "Security Deposit", types.SeverityLow),
		fee(`damage\s*(?:deposit|waiver)`, moneyPattern, "Damage Deposit", types.SeverityLow),
		fee(`setup\s*(?:fee|charge)`, moneyPattern, "Setup Fee", types.SeverityMedium),
		fee(`breakdown\s*(?:fee|charge)`, moneyPattern, "Breakdown Fee", types.SeverityMedium),
		fee(`cancellation\s*(?:fee|penalty)`, moneyOrPct, "Cancellation Fee", types.SeverityHigh),
		fee(`late\s*(?:fee|penalty|charge)`, moneyOrPct, "Late Fee", types.SeverityHigh),
		fee(`corkage\s*(?:fee)?`, moneyPattern, "Corkage Fee", types.SeverityMedium),
		fee(`cake\s*cutting\s*(?:fee)?`, moneyPattern, "Cake Cutting Fee", types.SeverityLow),
		fee(`valet\s*(?:parking)?`, moneyPattern, "Valet Parking", types.SeverityLow),
		fee(`insurance\s*(?:fee|requirement)?`, moneyPattern, "Insurance Requirement", types.SeverityMedium),
		fee(`minimum\s*(?:spend|spending|purchase)`, moneyPattern, "Minimum Spend", types.SeverityHigh),
		fee(`\b(?:tax(?:es)?|gst)\b`, pctPattern, "Taxes", types.SeverityLow),
	}

	riskRules = []riskRule{
		risk(`non[\s-]?refundable`, "Non-Refundable Deposit", types.SeverityHigh,
			"Deposits or payments marked as non-refundable pose a financial risk if plans change."),
		risk(`no\s+cancellation|cannot\s+(?:be\s+)?cancel`, "No Cancellation Policy", types.SeverityHigh,
			"The contract may not allow cancellations, which limits your flexibility."),
		risk(`force\s+majeure`, "Force Majeure Clause", types.SeverityMedium,
			"Check what events are covered and how refunds are handled."),
		risk(`indemnif(?:y|ication)`, "Indemnification Clause", types.SeverityHigh,
			"You may be required to cover certain liabilities or legal costs."),
		risk(`waiv(?:e|er)\s+(?:all\s+)?(?:right|claim|liability)`, "Liability Waiver", types.SeverityHigh,
			"You may be waiving important legal rights or protections."),
		risk(`automatic(?:ally)?\s+renew`, "Auto-Renewal", types.SeverityMedium,
			"The contract may automatically renew if not cancelled within a specific timeframe."),
		risk(`exclusive\s+(?:vendor|caterer|photographer)`, "Exclusive Vendor Requirement", types.SeverityMedium,
			"You may be restricted to using only approved vendors."),
		risk(`binding\s+arbitration`, "Binding Arbitration", types.SeverityMedium,
			"Disputes must be resolved through arbitration rather than court."),
		risk(`penalty|penalties\s+(?:for|of)`, "Penalty Clauses", types.SeverityHigh,
			"The contract includes financial penalties for certain breaches."),
		risk(`forfeit`, "Forfeiture Terms", types.SeverityHigh,
			"Certain payments or deposits may be forfeited under specific conditions."),
		risk(`subject\s+to\s+change|prices?\s+(?:may|subject\s+to)\s+change`, "Price Subject to Change", types.SeverityMedium,
			"Prices are not fixed and may increase before your event."),
		risk(`weather\s+(?:cancellation|policy)`, "Weather Policy", types.SeverityLow,
			"Review how weather-related issues are handled."),
	}

	positiveRules = []positiveRule{
		positive(`full\s+refund`, "Full refund policy available under certain conditions"),
		positive(`flexible\s+(?:cancellation|reschedul)`, "Flexible cancellation or rescheduling options"),
		positive(`payment\s+plan|installment`, "Payment plan or installment options available"),
		positive(`complimentary|included\s+at\s+no`, "Complimentary services or amenities included"),
		positive(`rain\s+(?:date|backup)|backup\s+(?:date|plan)`, "Backup date or rain plan available"),
		positive(`discount|reduced\s+rate`, "Discounts or reduced rates mentioned"),
		positive(`satisfaction\s+guarantee`, "Satisfaction guarantee offered"),
		positive(`free\s+(?:parking|wifi|setup)`, "Free amenities included"),
	}
)

// 元数据启发式
var (
	venueRe = regexp.MustCompile(`(?i:\b(?:venue|hotel|estate|manor|hall|ballroom|garden|resort|palace|banquet))[: \t]+["']?([A-Z][^"'\n,.;]{2,40})`)

	eventDateRe = regexp.MustCompile(`(?i)(?:(?:event|wedding|reception|function)\s+date|date\s+of\s+(?:the\s+)?(?:event|wedding))\s*[:\-]?\s*([A-Za-z0-9][A-Za-z0-9 ,/\-]{3,30})`)

	guestCountRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:guest\s+count|number\s+of\s+guests|max(?:imum)?\s+guests|capacity)\s*[:\-]?\s*(?:of\s+)?(?:up\s+to\s+)?(\d{1,3}(?:,\d{3})+|\d+)`),
		regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+|\d+)\s+guests\b`),
	}
)
