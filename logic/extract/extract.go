// Package extract 调用 LLM 做结构化合同分析, 并把模型输出规整为 types.ContractAnalysis.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"contractscan/types"
	"contractscan/vars"
)

// ParseError 模型输出无法解析, Raw 保留原始输出便于排查
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse llm output failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errNoJSON = errors.New("no json object in output")

type Input struct {
	ContractType string
	FileName     string
	Content      string
	// data:image/...;base64,... 非空时按图片合同处理
	ImageURL string
}

var analyzeTmpl = template.Must(template.New("analyze").Parse(vars.ANALYZE))

// RenderPrompt 渲染分析提示词, 合同正文截断到 vars.MAX_PROMPT_CHARS 个字符
func RenderPrompt(in Input) (string, error) {
	contractType := in.ContractType
	if contractType == "" {
		contractType = types.DefaultContractType
	}
	content := Truncate(in.Content, vars.MAX_PROMPT_CHARS)
	if in.ImageURL != "" {
		content = vars.IMAGE_CONTENT
	}
	var buf bytes.Buffer
	err := analyzeTmpl.Execute(&buf, map[string]string{
		"ContractType": contractType,
		"FileName":     in.FileName,
		"Content":      content,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Truncate 按字符截断
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func buildMessages(prompt, imageURL string) []*schema.Message {
	if imageURL == "" {
		return []*schema.Message{schema.UserMessage(prompt)}
	}
	return []*schema.Message{{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: prompt},
			{Type: schema.ChatMessagePartTypeImageURL, ImageURL: &schema.ChatMessageImageURL{URL: imageURL}},
		},
	}}
}

// Analyze 调用模型并解析结果. 任何错误都应触发调用方的本地兜底
func Analyze(ctx context.Context, cm model.BaseChatModel, in Input) (*types.ContractAnalysis, error) {
	prompt, err := RenderPrompt(in)
	if err != nil {
		return nil, fmt.Errorf("render prompt failed: %w", err)
	}
	resp, err := cm.Generate(ctx, buildMessages(prompt, in.ImageURL))
	if err != nil {
		return nil, fmt.Errorf("llm generate failed: %w", err)
	}
	return ParseAnalysis(resp.Content)
}

// CleanJSON 去掉 markdown 代码块, 取第一个 open 到最后一个 close 之间的内容
func CleanJSON(raw string, open, close byte) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// rawAnalysis 模型输出的宽松形态: 评分可能是字符串或小数, 严重程度大小写不一
type rawAnalysis struct {
	RiskScore  any    `json:"riskScore"`
	BasePrice  any    `json:"basePrice"`
	TotalValue any    `json:"totalValue"`
	HiddenFees []struct {
		Name        string `json:"name"`
		Amount      any    `json:"amount"`
		Severity    string `json:"severity"`
		Description string `json:"description"`
	} `json:"hiddenFees"`
	Risks []struct {
		Title       string `json:"title"`
		Severity    string `json:"severity"`
		Description string `json:"description"`
	} `json:"risks"`
	Positives              []string `json:"positives"`
	Summary                string   `json:"summary"`
	VenueName              string   `json:"venueName"`
	EventDate              any      `json:"eventDate"`
	GuestCapacity          any      `json:"guestCapacity"`
	NegotiationSuggestions []struct {
		Clause     string `json:"clause"`
		Suggestion string `json:"suggestion"`
		Priority   string `json:"priority"`
	} `json:"negotiationSuggestions"`
}

// ParseAnalysis 解析并规整模型输出
func ParseAnalysis(raw string) (*types.ContractAnalysis, error) {
	jsonStr, ok := CleanJSON(raw, '{', '}')
	if !ok {
		return nil, &ParseError{Raw: raw, Err: errNoJSON}
	}
	var r rawAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &r); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	a, err := normalize(&r)
	if err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return a, nil
}

func normalize(r *rawAnalysis) (*types.ContractAnalysis, error) {
	score, err := toScore(r.RiskScore)
	if err != nil {
		return nil, err
	}
	out := &types.ContractAnalysis{
		RiskScore:              score,
		BasePrice:              orDefault(toText(r.BasePrice), types.PriceNotSpecified),
		TotalValue:             orDefault(toText(r.TotalValue), types.TotalNotCalculated),
		HiddenFees:             make([]types.Fee, 0, len(r.HiddenFees)),
		Risks:                  make([]types.Risk, 0, len(r.Risks)),
		Positives:              make([]string, 0, len(r.Positives)),
		Summary:                strings.TrimSpace(r.Summary),
		VenueName:              strings.TrimSpace(r.VenueName),
		EventDate:              toText(r.EventDate),
		GuestCapacity:          toText(r.GuestCapacity),
		NegotiationSuggestions: make([]types.NegotiationSuggestion, 0, len(r.NegotiationSuggestions)),
	}

	seen := make(map[string]bool)
	for _, f := range r.HiddenFees {
		name := strings.TrimSpace(f.Name)
		if name == "" || seen[name] {
			continue
		}
		sev, err := types.ParseSeverity(f.Severity)
		if err != nil {
			return nil, fmt.Errorf("fee %q: %w", name, err)
		}
		seen[name] = true
		out.HiddenFees = append(out.HiddenFees, types.Fee{
			Name:        name,
			Amount:      orDefault(toText(f.Amount), types.FeeAmountUnknown),
			Severity:    sev,
			Description: strings.TrimSpace(f.Description),
		})
	}

	seen = make(map[string]bool)
	for _, rk := range r.Risks {
		title := strings.TrimSpace(rk.Title)
		if title == "" || seen[title] {
			continue
		}
		sev, err := types.ParseSeverity(rk.Severity)
		if err != nil {
			return nil, fmt.Errorf("risk %q: %w", title, err)
		}
		seen[title] = true
		out.Risks = append(out.Risks, types.Risk{Title: title, Severity: sev, Description: strings.TrimSpace(rk.Description)})
	}

	seen = make(map[string]bool)
	for _, p := range r.Positives {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out.Positives = append(out.Positives, p)
	}
	if len(out.Positives) == 0 {
		out.Positives = append(out.Positives, types.DefaultPositiveTerm)
	}

	for _, s := range r.NegotiationSuggestions {
		if strings.TrimSpace(s.Clause) == "" {
			continue
		}
		pri, err := types.ParseSeverity(s.Priority)
		if err != nil {
			return nil, fmt.Errorf("suggestion %q: %w", s.Clause, err)
		}
		out.NegotiationSuggestions = append(out.NegotiationSuggestions, types.NegotiationSuggestion{
			Clause:     strings.TrimSpace(s.Clause),
			Suggestion: strings.TrimSpace(s.Suggestion),
			Priority:   pri,
		})
	}
	return out, nil
}

func toScore(v any) (int, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(x), "/10")), 64)
		if err != nil {
			return 0, fmt.Errorf("risk score %q: %w", x, err)
		}
		f = p
	case nil:
		return 0, errors.New("risk score missing")
	default:
		return 0, fmt.Errorf("risk score has type %T", v)
	}
	if math.IsNaN(f) {
		return 0, errors.New("risk score is NaN")
	}
	n := int(math.Floor(f + 0.5))
	return min(10, max(1, n)), nil
}

// toText 金额等字段模型可能返回数字
func toText(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
