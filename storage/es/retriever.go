package es

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/schema"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"contractscan/logic/ingestion/transform"
)

// Filter ES 检索的过滤条件
type Filter struct {
	DocIDs       []string // 限定合同范围（对话时只查当前合同）
	ContractType string
	Venue        string // 场地名精确匹配
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string      `json:"_id"`
			Score  float64     `json:"_score"`
			Source chunkSource `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *ESIndexer) search(ctx context.Context, body map[string]any) (*searchResponse, error) {
	buf, err := encode(body)
	if err != nil {
		return nil, err
	}
	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  buf,
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("error getting response: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error response: %s", res.String())
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("error parsing response body: %w", err)
	}
	return &out, nil
}

// Retrieve BM25 检索切片, 转为带分数的 schema.Document
func (e *ESIndexer) Retrieve(ctx context.Context, query string, filters *Filter, topK int) ([]*schema.Document, error) {
	out, err := e.search(ctx, BuildQuery(query, filters, topK))
	if err != nil {
		return nil, err
	}

	docs := make([]*schema.Document, 0, len(out.Hits.Hits))
	for _, hit := range out.Hits.Hits {
		doc := &schema.Document{
			ID:      hit.ID,
			Content: hit.Source.Content,
			MetaData: map[string]any{
				transform.MetaDocID:    hit.Source.DocID,
				transform.MetaFileName: hit.Source.FileName,
				transform.MetaVenue:    hit.Source.Venue,
			},
		}
		docs = append(docs, doc.WithScore(hit.Score))
	}

	slog.Debug("es retrieved", "query", query, "count", len(docs))
	return docs, nil
}

// SearchDocIDs 在正文、场地、文件名上做关键词搜索, 返回去重后的 doc_id (按首次命中顺序)
func (e *ESIndexer) SearchDocIDs(ctx context.Context, keyword string, limit int) ([]string, error) {
	if keyword == "" {
		return []string{}, nil
	}
	out, err := e.search(ctx, BuildKeywordQuery(keyword, limit))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	docIDs := make([]string, 0, len(out.Hits.Hits))
	for _, hit := range out.Hits.Hits {
		id := hit.Source.DocID
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		docIDs = append(docIDs, id)
	}
	return docIDs, nil
}

// BuildQuery 构建 ES 查询语句（BM25 + 过滤）
func BuildQuery(query string, filters *Filter, topK int) map[string]any {
	boolQuery := map[string]any{
		"must": []map[string]any{
			{"match": map[string]any{"content": map[string]any{"query": query}}},
		},
	}
	if f := buildFilterQueries(filters); len(f) > 0 {
		boolQuery["filter"] = f
	}
	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"size":  topK,
	}
}

// BuildKeywordQuery 多字段匹配, 场地名权重最高
func BuildKeywordQuery(keyword string, limit int) map[string]any {
	// 每个合同可能有多个切片命中
	size := max(limit, 1) * 5
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  keyword,
				"fields": []string{"venue^3", "file_name^2", "content"},
			},
		},
		"size":    size,
		"_source": []string{"doc_id"},
	}
}

func buildFilterQueries(filters *Filter) []map[string]any {
	if filters == nil {
		return nil
	}

	var filterQueries []map[string]any
	if len(filters.DocIDs) > 0 {
		filterQueries = append(filterQueries, map[string]any{
			"terms": map[string]any{"doc_id": filters.DocIDs},
		})
	}
	if filters.ContractType != "" {
		filterQueries = append(filterQueries, map[string]any{
			"term": map[string]any{"contract_type": filters.ContractType},
		})
	}
	if filters.Venue != "" {
		filterQueries = append(filterQueries, map[string]any{
			"term": map[string]any{"venue.keyword": filters.Venue},
		})
	}
	return filterQueries
}

// SearchChunks 限定合同范围的切片检索
func (e *ESIndexer) SearchChunks(ctx context.Context, query string, docIDs []string, topK int) ([]*schema.Document, error) {
	var f *Filter
	if len(docIDs) > 0 {
		f = &Filter{DocIDs: docIDs}
	}
	return e.Retrieve(ctx, query, f, topK)
}
