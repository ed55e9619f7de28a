package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// ErrNotConfigured 未配置可用的 LLM, 调用方应退化为本地分析
var ErrNotConfigured = errors.New("llm not configured")

type Config struct {
	Provider string // openai | xai | ollama | none
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// Model 包装 eino 的 chat model, 附带来源标签
type Model struct {
	model.BaseChatModel
	Provider string
	Name     string
	// 是否支持图片输入
	Vision bool
}

// Label 返回结果中的 provider 字段, 如 "OpenAI gpt-4o-mini"
func (m *Model) Label() string {
	return m.Provider + " " + m.Name
}

func NewChatModel(ctx context.Context, cfg Config) (*Model, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		if cfg.APIKey == "" {
			return nil, ErrNotConfigured
		}
		return newOpenAI(ctx, "OpenAI", cfg)
	case "xai":
		if cfg.APIKey == "" {
			return nil, ErrNotConfigured
		}
		return newOpenAI(ctx, "xAI", cfg)
	case "ollama":
		return CreateOllamaChatModel(ctx, cfg)
	case "none":
		return nil, ErrNotConfigured
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}

func newOpenAI(ctx context.Context, provider string, cfg Config) (*Model, error) {
	temperature := float32(0.2)
	maxTokens := 4000
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s chat model failed: %w", provider, err)
	}
	slog.Info("chat model ready", "provider", provider, "model", cfg.Model)
	return &Model{
		BaseChatModel: cm,
		Provider:      provider,
		Name:          cfg.Model,
		Vision:        supportsVision(cfg.Model),
	}, nil
}

func CreateOllamaChatModel(ctx context.Context, cfg Config) (*Model, error) {
	cm, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: cfg.BaseURL, // Ollama 服务地址
		Model:   cfg.Model,   // 模型名称
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create ollama chat model failed: %w", err)
	}
	slog.Info("chat model ready", "provider", "Ollama", "model", cfg.Model)
	return &Model{
		BaseChatModel: cm,
		Provider:      "Ollama",
		Name:          cfg.Model,
		Vision:        supportsVision(cfg.Model),
	}, nil
}

// supportsVision 按模型名判断是否能读图
func supportsVision(name string) bool {
	name = strings.ToLower(name)
	for _, k := range []string{"gpt-4o", "gpt-4.1", "vision", "llava", "grok-2-vision", "qwen2.5vl", "qwen-vl"} {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}
