// Package retrieval 为对话构建合同上下文: 向量检索与关键词检索融合
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"

	"contractscan/logic/ingestion/transform/score"
)

// ErrNoSearcher 两路检索都未启用
var ErrNoSearcher = errors.New("retrieval: no searcher configured")

// ChunkSearcher 由 storage/milvus 和 storage/es 实现
type ChunkSearcher interface {
	SearchChunks(ctx context.Context, query string, docIDs []string, topK int) ([]*schema.Document, error)
}

type Hybrid struct {
	vector  ChunkSearcher
	keyword ChunkSearcher
	cfg     *score.HybridRerankerConfig
	reorder document.Transformer
	// 每一路召回数量
	recall int
}

// NewHybrid vector 或 keyword 可以为 nil, 此时只走另一路
func NewHybrid(ctx context.Context, vector, keyword ChunkSearcher, cfg *score.HybridRerankerConfig) (*Hybrid, error) {
	if cfg == nil {
		cfg = score.DefaultHybridRerankerConfig()
	}
	reorder, err := score.NewReranker(ctx)
	if err != nil {
		return nil, err
	}
	return &Hybrid{
		vector:  vector,
		keyword: keyword,
		cfg:     cfg,
		reorder: reorder,
		recall:  max(cfg.TopK*2, 10),
	}, nil
}

func (h *Hybrid) Enabled() bool {
	return h != nil && (h.vector != nil || h.keyword != nil)
}

// Retrieve 两路检索, 加权融合后按首尾排序返回. 单路失败只记录日志
func (h *Hybrid) Retrieve(ctx context.Context, query string, docIDs []string) ([]*schema.Document, error) {
	if !h.Enabled() {
		return nil, ErrNoSearcher
	}

	vecDocs, vecErr := h.search(ctx, h.vector, score.SourceMilvus, query, docIDs)
	kwDocs, kwErr := h.search(ctx, h.keyword, score.SourceES, query, docIDs)
	if vecErr != nil && kwErr != nil {
		return nil, fmt.Errorf("hybrid retrieve: %w", errors.Join(vecErr, kwErr))
	}

	start := time.Now()
	fused := score.HybridReranker(vecDocs, kwDocs, h.cfg)
	docs := make([]*schema.Document, 0, len(fused))
	for _, r := range fused {
		d := &schema.Document{ID: r.ID, Content: r.Content, MetaData: make(map[string]any, len(r.MetaData)+1)}
		for k, v := range r.MetaData {
			d.MetaData[k] = v
		}
		docs = append(docs, d.WithScore(r.FinalScore))
	}
	docs, err := h.reorder.Transform(ctx, docs)
	if err != nil {
		return nil, err
	}
	slog.Debug("hybrid fused", "milvus", len(vecDocs), "es", len(kwDocs), "kept", len(docs), "took", time.Since(start))
	return docs, nil
}

func (h *Hybrid) search(ctx context.Context, s ChunkSearcher, source, query string, docIDs []string) ([]*schema.Document, error) {
	if s == nil {
		return nil, nil
	}
	start := time.Now()
	docs, err := s.SearchChunks(ctx, query, docIDs, h.recall)
	if err != nil {
		slog.Warn("retrieval source failed", "source", source, "err", err)
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	slog.Debug("retrieval source done", "source", source, "count", len(docs), "took", time.Since(start))
	return docs, nil
}
