package milvus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino-ext/components/retriever/milvus"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"contractscan/logic/ingestion/transform"
)

// SearchChunks 向量检索, docIDs 非空时只在这些合同内检索
func (s *Store) SearchChunks(ctx context.Context, query string, docIDs []string, topK int) ([]*schema.Document, error) {
	if topK <= 0 {
		topK = 10
	}
	retr, err := milvus.NewRetriever(ctx, &milvus.RetrieverConfig{
		Client:            s.cli,
		Collection:        s.collection,
		VectorField:       fieldVector,
		OutputFields:      []string{fieldDocID, fieldContent, fieldFileName, fieldVenue},
		DocumentConverter: searchConverter,
		MetricType:        entity.L2,
		TopK:              topK,
		Embedding:         s.embedder,
	})
	if err != nil {
		return nil, fmt.Errorf("init retriever failed: %w", err)
	}

	var opts []retriever.Option
	if expr := BuildExpr(docIDs); expr != "" {
		opts = append(opts, milvus.WithFilter(expr))
	}
	docs, err := retr.Retrieve(ctx, query, opts...)
	if err != nil {
		return nil, fmt.Errorf("milvus retrieve failed: %w", err)
	}

	slog.Debug("milvus retrieved", "query", query, "count", len(docs))
	return docs, nil
}

// searchConverter 把检索结果转为带分数的文档. L2 距离越小越相似, 取负值使分数越大越好
func searchConverter(ctx context.Context, result client.SearchResult) ([]*schema.Document, error) {
	docs := make([]*schema.Document, result.IDs.Len())
	for i := 0; i < result.IDs.Len(); i++ {
		id, err := result.IDs.GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("failed to get id: %w", err)
		}
		doc := &schema.Document{ID: id, MetaData: map[string]any{}}
		if len(result.Scores) > i {
			doc = doc.WithScore(-float64(result.Scores[i]))
		}
		for _, field := range result.Fields {
			v, err := field.GetAsString(i)
			if err != nil {
				slog.Warn("milvus field read failed", "field", field.Name(), "row", i, "err", err)
				continue
			}
			switch field.Name() {
			case fieldContent:
				doc.Content = v
			case fieldDocID:
				doc.MetaData[transform.MetaDocID] = v
			case fieldFileName:
				doc.MetaData[transform.MetaFileName] = v
			case fieldVenue:
				doc.MetaData[transform.MetaVenue] = v
			}
		}
		docs[i] = doc
	}
	return docs, nil
}

// BuildExpr 构建 doc_id 过滤表达式
func BuildExpr(docIDs []string) string {
	switch len(docIDs) {
	case 0:
		return ""
	case 1:
		return DocIDExpr(docIDs[0])
	}
	quoted := make([]string, len(docIDs))
	for i, id := range docIDs {
		quoted[i] = quote(id)
	}
	return fmt.Sprintf("%s in [%s]", fieldDocID, strings.Join(quoted, ", "))
}

func DocIDExpr(docID string) string {
	return fmt.Sprintf("%s == %s", fieldDocID, quote(docID))
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
