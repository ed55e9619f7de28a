package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
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

var chatSystemTmpl = template.Must(template.New("chat").Parse(vars.CHAT_SYSTEM))

type ChatService struct {
	store     ContractStore
	chat      *chat.Model
	retriever ContextRetriever
	conv      currency.Converter
	timeout   time.Duration
}

func NewChatService(store ContractStore, cm *chat.Model, retriever ContextRetriever, conv currency.Converter, timeout time.Duration) *ChatService {
	if timeout <= 0 {
		timeout = vars.LLM_TIMEOUT
	}
	return &ChatService{store: store, chat: cm, retriever: retriever, conv: conv, timeout: timeout}
}

func (s *ChatService) Chat(ctx context.Context, req types.ChatRequest) (*types.ChatResult, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrNoContent
	}
	if s.chat == nil {
		return nil, ErrLLMUnavailable
	}

	contractCtx, err := s.contractContext(ctx, req.ContractID, msg)
	if err != nil {
		return nil, err
	}
	system, err := s.systemPrompt(contractCtx)
	if err != nil {
		return nil, err
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.chat.Generate(llmCtx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(msg),
	})
	if err != nil {
		slog.WarnContext(ctx, "chat generate failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrLLMUnavailable, err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrLLMUnavailable)
	}
	return &types.ChatResult{Response: resp.Content}, nil
}

func (s *ChatService) systemPrompt(contractCtx string) (string, error) {
	var buf bytes.Buffer
	err := chatSystemTmpl.Execute(&buf, map[string]string{
		"Rate":    strconv.FormatFloat(s.conv.Rate(), 'f', -1, 64),
		"Context": contractCtx,
	})
	if err != nil {
		return "", fmt.Errorf("render chat prompt: %w", err)
	}
	return buf.String(), nil
}

// contractContext 已保存的分析结果 + 与问题相关的条款
func (s *ChatService) contractContext(ctx context.Context, id, question string) (string, error) {
	if id == "" {
		return "", nil
	}
	id, err := parseID(id)
	if err != nil {
		return "", err
	}
	if s.store == nil {
		return "", ErrStoreUnavailable
	}
	c, err := s.store.GetByDocID(ctx, id)
	if err != nil {
		return "", err
	}
	a, err := c.DecodeAnalysis()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	writeContractSummary(&b, c, a, s.conv)

	clauses := s.relevantClauses(ctx, id, question)
	switch {
	case len(clauses) > 0:
		b.WriteString("\nRELEVANT CONTRACT CLAUSES:\n")
		for _, cl := range clauses {
			fmt.Fprintf(&b, "- %s\n", cl)
		}
	case c.RawText != "":
		b.WriteString("\nCONTRACT TEXT EXCERPT:\n")
		b.WriteString(extract.Truncate(c.RawText, vars.MAX_EXCERPT_CHARS))
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (s *ChatService) relevantClauses(ctx context.Context, id, question string) []string {
	if s.retriever == nil || !s.retriever.Enabled() {
		return nil
	}
	docs, err := s.retriever.Retrieve(ctx, question, []string{id})
	if err != nil {
		slog.WarnContext(ctx, "chat context retrieval failed", "id", id, "err", err)
		return nil
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		if c := strings.TrimSpace(d.Content); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func writeContractSummary(b *strings.Builder, c *postgres.Contract, a *types.ContractAnalysis, conv currency.Converter) {
	fmt.Fprintf(b, "Contract: %s\n", orDefault(c.Name, c.FileName))
	if c.Venue != "" {
		fmt.Fprintf(b, "Venue: %s\n", c.Venue)
	}
	fmt.Fprintf(b, "Status: %s\n", c.Status)
	if a == nil {
		return
	}
	if a.EventDate != "" {
		fmt.Fprintf(b, "Event Date: %s\n", a.EventDate)
	}
	if a.GuestCapacity != "" {
		fmt.Fprintf(b, "Guest Capacity: %s\n", a.GuestCapacity)
	}
	fmt.Fprintf(b, "Base Price: %s\n", conv.ToINR(a.BasePrice))
	fmt.Fprintf(b, "Total Value: %s\n", conv.ToINR(a.TotalValue))
	fmt.Fprintf(b, "Risk Score: %d/10\n", a.RiskScore)

	b.WriteString("\nHidden Fees:\n")
	if len(a.HiddenFees) == 0 {
		b.WriteString("- None identified\n")
	}
	for _, f := range a.HiddenFees {
		fmt.Fprintf(b, "- %s: %s (%s)\n", f.Name, conv.ToINR(f.Amount), f.Severity)
	}
	b.WriteString("\nRisks:\n")
	if len(a.Risks) == 0 {
		b.WriteString("- None identified\n")
	}
	for _, r := range a.Risks {
		fmt.Fprintf(b, "- %s (%s): %s\n", r.Title, r.Severity, r.Description)
	}
	b.WriteString("\nPositives:\n")
	for _, p := range a.Positives {
		fmt.Fprintf(b, "- %s\n", p)
	}
	fmt.Fprintf(b, "\nSummary: %s\n", a.Summary)
}
