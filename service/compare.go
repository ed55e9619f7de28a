package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/cloudwego/eino/schema"

	"contractscan/logic/chat"
	"contractscan/logic/currency"
	"contractscan/logic/extract"
	"contractscan/storage/postgres"
	"contractscan/types"
	"contractscan/vars"
)

var compareTmpl = template.Must(template.New("compare").Funcs(template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"upper": func(s types.Severity) string { return strings.ToUpper(string(s)) },
}).Parse(vars.COMPARE))

// compareEntry 一份参与对比的合同
type compareEntry struct {
	ID         string
	Name       string
	FileName   string
	BasePrice  string
	TotalValue string
	RiskScore  int
	Fees       []types.Fee
	Risks      []types.Risk
	Positives  []string
	Summary    string
	Excerpt    string
	// 卢比数值, 无法计算时为 0
	TotalINR float64
}

type CompareService struct {
	store   ContractStore
	chat    *chat.Model
	conv    currency.Converter
	timeout time.Duration
}

func NewCompareService(store ContractStore, cm *chat.Model, conv currency.Converter, timeout time.Duration) *CompareService {
	if timeout <= 0 {
		timeout = vars.LLM_TIMEOUT
	}
	return &CompareService{store: store, chat: cm, conv: conv, timeout: timeout}
}

func (s *CompareService) Compare(ctx context.Context, ids []string) (*types.CompareResult, error) {
	ids = uniqueIDs(ids)
	if len(ids) < 2 {
		return nil, ErrNotEnoughContracts
	}
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	rows, err := s.store.GetByDocIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrNotEnoughContracts, len(entries))
	}

	if s.chat == nil {
		return &types.CompareResult{Comparison: localComparison(entries), Provider: types.ProviderLocal}, nil
	}
	report, err := s.llmCompare(ctx, entries)
	if err != nil {
		slog.WarnContext(ctx, "llm comparison failed, using local", "err", err)
		return &types.CompareResult{Comparison: localComparison(entries), Provider: types.ProviderLocalFallback}, nil
	}
	return &types.CompareResult{Comparison: report, Provider: s.chat.Label()}, nil
}

// entries 只保留已完成分析的合同
func (s *CompareService) entries(rows []postgres.Contract) ([]compareEntry, error) {
	out := make([]compareEntry, 0, len(rows))
	for i := range rows {
		c := &rows[i]
		a, err := c.DecodeAnalysis()
		if err != nil {
			return nil, fmt.Errorf("decode analysis %s: %w", c.DocID, err)
		}
		if !c.IsAnalyzed() || a == nil {
			continue
		}
		name := orDefault(c.Name, orDefault(c.Venue, orDefault(c.FileName, fmt.Sprintf("Contract %d", len(out)+1))))
		out = append(out, compareEntry{
			ID:         c.DocID,
			Name:       name,
			FileName:   orDefault(c.FileName, "N/A"),
			BasePrice:  s.conv.ToINR(a.BasePrice),
			TotalValue: s.conv.ToINR(a.TotalValue),
			RiskScore:  a.RiskScore,
			Fees:       a.HiddenFees,
			Risks:      a.Risks,
			Positives:  a.Positives,
			Summary:    orDefault(a.Summary, "No summary available"),
			Excerpt:    extract.Truncate(c.RawText, vars.MAX_EXCERPT_CHARS),
			TotalINR:   s.conv.ValueINR(a.TotalValue),
		})
	}
	return out, nil
}

func (s *CompareService) llmCompare(ctx context.Context, entries []compareEntry) (string, error) {
	var buf bytes.Buffer
	if err := compareTmpl.Execute(&buf, map[string]any{"Contracts": entries}); err != nil {
		return "", fmt.Errorf("render compare prompt: %w", err)
	}
	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.chat.Generate(llmCtx, []*schema.Message{
		schema.SystemMessage(vars.COMPARE_SYSTEM),
		schema.UserMessage(buf.String()),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("empty comparison from llm")
	}
	return resp.Content, nil
}

// localComparison 不依赖 LLM 的对比报告: 价格表, 风险排序, 推荐风险最低者 (同分取总价更低)
func localComparison(entries []compareEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## PRICE COMPARISON\n\n")
	b.WriteString("| Venue | Base Price | Final Estimated Cost | Hidden Fees | Risk Score |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %d/10 |\n", cell(e.Name), cell(e.BasePrice), cell(e.TotalValue), len(e.Fees), e.RiskScore)
	}

	b.WriteString("\n## RISK ANALYSIS\n\n")
	for i, e := range rankByRisk(entries) {
		high, medium := severityCounts(e.Risks)
		fmt.Fprintf(&b, "%d. **%s** (risk score %d/10): %d high, %d medium risk factors\n", i+1, e.Name, e.RiskScore, high, medium)
		for _, r := range e.Risks {
			if r.Severity == types.SeverityHigh {
				fmt.Fprintf(&b, "   - %s: %s\n", r.Title, r.Description)
			}
		}
	}

	b.WriteString("\n## PROS AND CONS\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "### %s\n\n", e.Name)
		for _, p := range firstN(e.Positives, 3) {
			fmt.Fprintf(&b, "- ✓ %s\n", p)
		}
		for _, f := range firstN(e.Fees, 3) {
			fmt.Fprintf(&b, "- ✗ %s: %s\n", f.Name, f.Amount)
		}
		b.WriteString("\n")
	}

	best := rankByRisk(entries)[0]
	b.WriteString("## RECOMMENDATION\n\n")
	fmt.Fprintf(&b, "- RECOMMENDED: %s\n", best.Name)
	fmt.Fprintf(&b, "- WHY: Lowest risk score (%d/10) with an estimated total of %s.\n", best.RiskScore, best.TotalValue)
	return b.String()
}

// rankByRisk 风险分升序, 同分按总价升序, 未知总价排后
func rankByRisk(entries []compareEntry) []compareEntry {
	ranked := make([]compareEntry, len(entries))
	copy(ranked, entries)
	total := func(e compareEntry) float64 {
		if e.TotalINR <= 0 {
			return math.Inf(1)
		}
		return e.TotalINR
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RiskScore != ranked[j].RiskScore {
			return ranked[i].RiskScore < ranked[j].RiskScore
		}
		return total(ranked[i]) < total(ranked[j])
	})
	return ranked
}

func severityCounts(risks []types.Risk) (high, medium int) {
	for _, r := range risks {
		switch r.Severity {
		case types.SeverityHigh:
			high++
		case types.SeverityMedium:
			medium++
		}
	}
	return high, medium
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// uniqueIDs 去重并丢弃非 uuid 的 ID
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id, err := parseID(id)
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
