package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/cloudwego/eino/schema"

	"contractscan/logic/chat"
	"contractscan/logic/extract"
	"contractscan/types"
	"contractscan/vars"
)

const defaultVenueLocation = "India"

const venueParseFailed = "Could not parse venue results, please try a different search"

var venueTmpl = template.Must(template.New("venue").Parse(vars.VENUE_SEARCH))

type VenueService struct {
	chat    *chat.Model
	timeout time.Duration
}

func NewVenueService(cm *chat.Model, timeout time.Duration) *VenueService {
	if timeout <= 0 {
		timeout = vars.LLM_TIMEOUT
	}
	return &VenueService{chat: cm, timeout: timeout}
}

// Search LLM 推荐场地. 模型输出无法解析时返回空列表和提示, 不报错
func (s *VenueService) Search(ctx context.Context, req types.VenueSearchRequest) (*types.VenueSearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrNoContent
	}
	if s.chat == nil {
		return nil, ErrLLMUnavailable
	}
	location := orDefault(req.Location, defaultVenueLocation)

	var buf bytes.Buffer
	if err := venueTmpl.Execute(&buf, map[string]string{"Query": query, "Location": location}); err != nil {
		return nil, fmt.Errorf("render venue prompt: %w", err)
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.chat.Generate(llmCtx, []*schema.Message{
		schema.SystemMessage(vars.VENUE_SYSTEM),
		schema.UserMessage(buf.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLLMUnavailable, err)
	}

	venues, err := ParseVenues(resp.Content)
	if err != nil {
		slog.WarnContext(ctx, "venue output not parseable", "err", err, "raw", extract.Truncate(resp.Content, 300))
		return &types.VenueSearchResult{Venues: []types.Venue{}, Error: venueParseFailed}, nil
	}
	return &types.VenueSearchResult{Venues: venues}, nil
}

// ParseVenues 取第一个 [ 到最后一个 ] 之间的 JSON 数组
func ParseVenues(raw string) ([]types.Venue, error) {
	js, ok := extract.CleanJSON(raw, '[', ']')
	if !ok {
		return nil, fmt.Errorf("no json array in output")
	}
	var venues []types.Venue
	if err := json.Unmarshal([]byte(js), &venues); err != nil {
		return nil, err
	}
	out := make([]types.Venue, 0, len(venues))
	for _, v := range venues {
		if strings.TrimSpace(v.Name) != "" {
			out = append(out, v)
		}
	}
	return out, nil
}
