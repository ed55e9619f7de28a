package score

import (
	"context"
	"sort"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

// 来源标记
const (
	SourceMilvus = "milvus"
	SourceES     = "es"
)

// NewReranker 按分数重排: 高分放在首尾, 低分放在中间, 便于 LLM 关注上下文两端
func NewReranker(ctx context.Context) (document.Transformer, error) {
	return &reranker{}, nil
}

type reranker struct{}

func (r *reranker) Transform(ctx context.Context, src []*schema.Document, opts ...document.TransformerOption) ([]*schema.Document, error) {
	sorted := make([]*schema.Document, len(src))
	copy(sorted, src)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score() > sorted[j].Score()
	})

	ret := make([]*schema.Document, len(sorted))
	for i, d := range sorted {
		if i%2 == 0 {
			ret[i/2] = d
		} else {
			ret[len(ret)-1-i/2] = d
		}
	}
	return ret, nil
}

func (r *reranker) GetType() string {
	return "ScoreReranker"
}

// HybridRerankerConfig 混合检索重排配置
type HybridRerankerConfig struct {
	MilvusWeight float64
	ESWeight     float64
	TopK         int
}

func DefaultHybridRerankerConfig() *HybridRerankerConfig {
	return &HybridRerankerConfig{
		MilvusWeight: 0.6,
		ESWeight:     0.4,
		TopK:         6,
	}
}

// RerankedDocument 融合后的切片, Sources 记录命中的检索通道
type RerankedDocument struct {
	*schema.Document
	FinalScore float64
	Sources    []string
}

// HybridReranker 合并 Milvus 和 ES 的检索结果:
// 各自 Min-Max 归一化, 按 ID 合并并加权累加, 按最终分数降序取 TopK
func HybridReranker(milvusDocs, esDocs []*schema.Document, config *HybridRerankerConfig) []*RerankedDocument {
	if config == nil {
		config = DefaultHybridRerankerConfig()
	}

	merged := make(map[string]*RerankedDocument)
	var order []string
	add := func(docs []*schema.Document, weight float64, source string) {
		for doc, s := range normalizedScores(docs) {
			if existing, ok := merged[doc.ID]; ok {
				existing.FinalScore += s * weight
				existing.Sources = append(existing.Sources, source)
				continue
			}
			merged[doc.ID] = &RerankedDocument{Document: doc, FinalScore: s * weight, Sources: []string{source}}
			order = append(order, doc.ID)
		}
	}
	add(milvusDocs, config.MilvusWeight, SourceMilvus)
	add(esDocs, config.ESWeight, SourceES)

	results := make([]*RerankedDocument, 0, len(order))
	for _, id := range order {
		results = append(results, merged[id])
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})
	if config.TopK > 0 && len(results) > config.TopK {
		results = results[:config.TopK]
	}
	return results
}

// normalizedScores Min-Max 归一化到 [0,1], 分数全相同时都记为 1. 不修改原文档
func normalizedScores(docs []*schema.Document) func(yield func(*schema.Document, float64) bool) {
	return func(yield func(*schema.Document, float64) bool) {
		var lo, hi float64
		first := true
		for _, d := range docs {
			if d == nil {
				continue
			}
			s := d.Score()
			if first {
				lo, hi, first = s, s, false
				continue
			}
			lo, hi = min(lo, s), max(hi, s)
		}
		for _, d := range docs {
			if d == nil {
				continue
			}
			n := 1.0
			if hi > lo {
				n = (d.Score() - lo) / (hi - lo)
			}
			if !yield(d, n) {
				return
			}
		}
	}
}
