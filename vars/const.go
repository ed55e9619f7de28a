package vars

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// GetEnv 获取环境变量，如果不存在则返回默认值. 首次调用时加载当前目录下的 .env
func GetEnv(key, fallback string) string {
	dotenvOnce.Do(func() { _ = godotenv.Load() })
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(GetEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func GetEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(GetEnv(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

func GetEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(GetEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(GetEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

// FirstEnv 返回第一个非空的环境变量
func FirstEnv(keys ...string) string {
	for _, k := range keys {
		if v := GetEnv(k, ""); v != "" {
			return v
		}
	}
	return ""
}

const (
	// 模型名称
	NOMIC       = "nomic-embed-text"
	GPT4OMINI   = "gpt-4o-mini"
	GROK3MINI   = "grok-3-mini-fast"
	QWEN7B      = "qwen2.5:7b"
	XAI_BASEURL = "https://api.x.ai/v1"

	// LLM 提供方
	PROVIDER_OPENAI = "openai"
	PROVIDER_OLLAMA = "ollama"
	PROVIDER_XAI    = "xai"
	PROVIDER_NONE   = "none"

	// Milvus Collection 名称
	COLLECTION = "contract_chunks_v1"
	// ES 索引名称
	ES_INDEX = "contract_chunks_v1"

	// 送入 LLM 的合同文本上限 (字符)
	MAX_PROMPT_CHARS = 12000
	// 对比时每份合同的原文摘录上限
	MAX_EXCERPT_CHARS = 3000
	// PDF 提取文本低于该长度视为无法识别
	MIN_PDF_TEXT_CHARS = 50
)

// 环境变量配置（支持 Docker 部署）
var (
	PORT = GetEnv("PORT", "8081")

	// LLM: openai | ollama | xai | none. 未配置 key 时自动退化为本地分析
	LLM_PROVIDER = strings.ToLower(GetEnv("LLM_PROVIDER", PROVIDER_OPENAI))
	LLM_TIMEOUT  = GetEnvDuration("LLM_TIMEOUT", 60*time.Second)

	OPENAI_API_KEY  = FirstEnv("OPENAI_API_KEY", "OPENAI_KEY")
	OPENAI_MODEL    = GetEnv("OPENAI_MODEL", GPT4OMINI)
	OPENAI_BASE_URL = GetEnv("OPENAI_BASE_URL", "")

	XAI_API_KEY = GetEnv("XAI_API_KEY", "")
	XAI_MODEL   = GetEnv("XAI_MODEL", GROK3MINI)

	// OLLAMA
	OLLAMA_PATH        = GetEnv("OLLAMA_PATH", "http://localhost:11434")
	OLLAMA_MODEL       = GetEnv("OLLAMA_MODEL", QWEN7B)
	OLLAMA_EMBED_MODEL = GetEnv("OLLAMA_EMBED_MODEL", NOMIC)

	// 汇率: 1 USD = ? INR
	USD_TO_INR_RATE = GetEnvFloat("USD_TO_INR_RATE", 83)

	// PG
	PGUSER = GetEnv("PGUSER", "postgres")
	PGPWD  = GetEnv("PGPWD", "postgres")
	PGDB   = GetEnv("PGDB", "contractscan")
	PGHOST = GetEnv("PGHOST", "localhost")
	PGPORT = GetEnv("PGPORT", "5432")

	// Milvus
	MILVUS_ENABLED = GetEnvBool("MILVUS_ENABLED", false)
	MILVUSADDR     = GetEnv("MILVUSADDR", "127.0.0.1:19530")

	// ES
	ES_ENABLED = GetEnvBool("ES_ENABLED", false)
	ESADDR     = GetEnv("ESADDR", "http://localhost:9200")

	// 定时任务: 超过该时长仍处于 analyzing 的记录标记为失败
	STALE_AFTER = GetEnvDuration("STALE_AFTER", 15*time.Minute)
	STALE_CRON  = GetEnv("STALE_CRON", "*/10 * * * *")

	// Chrome 可执行文件 (PDF 导出), 为空时由 chromedp 自行查找
	CHROME_PATH = GetEnv("CHROME_PATH", "")
)

// 提示词
var (
	ANALYZE = `You are an expert contract analyst specializing in event and venue contracts. Analyze this {{.ContractType}} contract thoroughly and provide detailed insights.

Contract file: {{.FileName}}

Contract content:
{{.Content}}

Analyze the contract for:
1. ALL hidden fees - service charges, gratuity, overtime, cleaning, setup, breakdown, cancellation fees, corkage, cake cutting, valet, insurance, minimum spend, taxes, etc.
2. Risk factors - non-refundable terms, liability waivers, indemnification, cancellation policies, force majeure, auto-renewal, exclusive vendor requirements, binding arbitration, penalty clauses
3. Positive aspects - refund policies, flexibility, payment plans, complimentary services, guarantees
4. Negotiation opportunities - clauses that can be negotiated for better terms
5. Overall risk assessment on a 1-10 scale (10 = highest risk)

Be thorough, specific, and extract actual amounts mentioned in the contract.

Respond with a single JSON object and nothing else:
{
  "riskScore": 1-10,
  "basePrice": "base price or rental fee",
  "totalValue": "estimated total including all fees",
  "hiddenFees": [{"name": "", "amount": "", "severity": "high|medium|low", "description": ""}],
  "risks": [{"title": "", "severity": "high|medium|low", "description": ""}],
  "positives": [""],
  "summary": "2-3 sentence summary",
  "venueName": "venue name if mentioned",
  "eventDate": "event date if mentioned",
  "guestCapacity": "guest count if mentioned",
  "negotiationSuggestions": [{"clause": "", "suggestion": "", "priority": "high|medium|low"}]
}
`

	// 图片合同没有文本, 以此代替 Content
	IMAGE_CONTENT = "The contract is provided as the attached image. Read all of its text before analyzing."

	COMPARE_SYSTEM = "You are an expert Indian wedding contract analyst. Analyze using ONLY the actual data provided. Be specific with numbers. All amounts in Indian Rupees (₹) with Indian formatting. Use markdown for formatting."

	COMPARE = `You are an expert Indian wedding contract analyst. Compare these {{len .Contracts}} venue contracts and provide a comprehensive comparison.
{{range $i, $c := .Contracts}}
================================================================
CONTRACT {{inc $i}}: {{$c.Name}}
================================================================
File: {{$c.FileName}}

PRICING (Indian Rupees ₹):
   • Base Price: {{$c.BasePrice}}
   • Total Estimated Value: {{$c.TotalValue}}
   • Risk Score: {{$c.RiskScore}}/10

HIDDEN FEES IDENTIFIED:
{{- range $c.Fees}}
   • {{.Name}}: {{.Amount}} [{{upper .Severity}}] - {{.Description}}
{{- else}}
   None identified
{{- end}}

RISK FACTORS:
{{- range $c.Risks}}
   • {{.Title}} [{{upper .Severity}}]: {{.Description}}
{{- else}}
   None identified
{{- end}}

POSITIVE ASPECTS:
{{- range $c.Positives}}
   • {{.}}
{{- else}}
   None identified
{{- end}}

SUMMARY: {{$c.Summary}}
{{if $c.Excerpt}}
CONTRACT TEXT EXCERPT:
{{$c.Excerpt}}
{{end -}}
----------------------------------------------------------------
{{end}}
Based on the ACTUAL DATA provided above, create this comparison:

## PRICE COMPARISON
- Venue Name | Base Price | Total Hidden Fees | Final Estimated Cost | Risk Score
Use EXACT amounts from the contracts in ₹.

## DETAILED COST BREAKDOWN
For EACH contract: list every fee with exact amount, the total of all fees, and hidden fees as % of base price.

## RISK ANALYSIS
Compare risk scores, list the most critical risks from each and identify any deal-breakers.

## PROS AND CONS
For EACH venue: top 3 advantages and top 3 disadvantages.

## NEGOTIATION OPPORTUNITIES
For EACH contract: what terms can be negotiated, potential savings, specific suggestions.

## RECOMMENDATION
- RECOMMENDED: [Venue Name]
- WHY: [Specific data-backed reasons]
- POTENTIAL SAVINGS: [Amount in ₹]

Use ONLY actual data from the contracts. ALL amounts in Indian Rupees (₹).`

	CHAT_SYSTEM = `You are an expert wedding/event contract analyst for ContractScan.

CRITICAL RULES:
1. ALL monetary amounts MUST be in Indian Rupees (₹)
2. Use Indian number format: ₹1,00,000 (one lakh), ₹10,00,000 (ten lakhs), ₹1,00,00,000 (one crore)
3. If you see USD ($) amounts, convert them: $1 = ₹{{.Rate}}
4. Provide SPECIFIC answers using ACTUAL data from the contract
5. Quote exact numbers, dates, percentages from the contract
6. If information is not in the contract, clearly state "This is not mentioned in the contract"
{{if .Context}}
=======================================================
CURRENT CONTRACT DATA:
=======================================================
{{.Context}}
=======================================================

Use this contract data to answer questions. Be specific with numbers and terms.
{{else}}
No specific contract loaded. You can help with general questions about wedding venue contracts.
{{end}}
When calculating total cost:
1. Start with Base Price
2. Add all fees (service charge %, GST %, etc.)
3. Add any per-person costs × number of guests
4. Show step-by-step breakdown
5. Display all amounts in ₹ (Indian Rupees)`

	VENUE_SYSTEM = "You are a wedding venue expert. Return valid JSON array only. All prices in ₹."

	VENUE_SEARCH = `You are a wedding venue expert. Search for REAL wedding venues matching:

Query: {{.Query}}
Location: {{.Location}}

Return 6 REAL venues as JSON array. Each venue MUST have:
- Real venue name and accurate location
- Realistic price range in Indian Rupees (₹)
- Real features and capacity
- A detailed imageKeyword for finding images (e.g., "taj palace hotel delhi ballroom", "leela palace bangalore wedding lawn")

All prices in ₹ with Indian numbering (₹10,00,000 = 10 lakhs).

JSON FORMAT:
[{
  "name": "Real Venue Name",
  "location": "City, State, India",
  "type": "Hotel/Palace/Resort/Banquet/Garden",
  "capacity": "200-500 guests",
  "priceRange": "₹10,00,000 - ₹25,00,000",
  "rating": 4.5,
  "features": ["Feature 1", "Feature 2", "Feature 3"],
  "bestFor": "Large traditional Indian weddings",
  "contact": "www.venue-website.com",
  "imageKeyword": "specific search term for this venue type",
  "description": "2-3 sentences about the venue",
  "amenities": ["Parking", "Catering", "Decor"],
  "venueHighlights": ["Celebrity weddings hosted", "Award-winning chef"]
}]

Return ONLY the JSON array.`
)
