package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/embedding/ollama"
	"github.com/cloudwego/eino/components/embedding"
)

// NewEmbedder 创建 Ollama embedder 并包装 NaN 清理
func NewEmbedder(ctx context.Context, baseURL, model string, timeout time.Duration) (embedding.Embedder, error) {
	emb, err := ollama.NewEmbedder(ctx, &ollama.EmbeddingConfig{
		BaseURL: baseURL,
		Model:   model,
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create ollama embedder failed: %w", err)
	}
	return NewCleanEmbedder(emb), nil
}
