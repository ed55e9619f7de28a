package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"contractscan/logic/ingestion/transform"
)

type ESIndexer struct {
	client *elasticsearch.Client
	index  string
}

// GetClient 返回 ES 客户端（用于检索）
func (e *ESIndexer) GetClient() *elasticsearch.Client {
	return e.client
}

func (e *ESIndexer) Index() string {
	return e.index
}

// NewESIndexer 初始化 ES 客户端并确保索引存在
func NewESIndexer(ctx context.Context, addresses []string, indexName string) (*ESIndexer, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("error creating the client: %w", err)
	}

	indexer := &ESIndexer{client: es, index: indexName}
	if err := indexer.initMapping(ctx); err != nil {
		return nil, err
	}
	return indexer, nil
}

// chunkMapping 合同切片索引: 英文正文用 english 分词, 场地名保留 keyword 子字段
const chunkMapping = `
{
  "settings": {
	"number_of_shards": 1,
	"number_of_replicas": 0
  },
  "mappings": {
	"properties": {
	  "doc_id":   { "type": "keyword" },
	  "chunk_id": { "type": "keyword" },
	  "content":  { "type": "text", "analyzer": "english" },
	  "file_name": {
		"type": "text",
		"fields": { "keyword": { "type": "keyword" } }
	  },
	  "venue": {
		"type": "text",
		"fields": { "keyword": { "type": "keyword" } }
	  },
	  "contract_type": { "type": "keyword" }
	}
  }
}`

func (e *ESIndexer) initMapping(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	slog.Info("creating es index", "index", e.index)
	res, err = e.client.Indices.Create(
		e.index,
		e.client.Indices.Create.WithBody(strings.NewReader(chunkMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index response error: %s", res.String())
	}
	return nil
}

// chunkSource 写入 ES 的切片文档
type chunkSource struct {
	DocID        string `json:"doc_id"`
	ChunkID      string `json:"chunk_id"`
	Content      string `json:"content"`
	FileName     string `json:"file_name,omitempty"`
	Venue        string `json:"venue,omitempty"`
	ContractType string `json:"contract_type,omitempty"`
}

func newChunkSource(docID, contractType string, chunk *schema.Document) chunkSource {
	return chunkSource{
		DocID:        docID,
		ChunkID:      chunk.ID,
		Content:      chunk.Content,
		FileName:     metaString(chunk.MetaData, transform.MetaFileName),
		Venue:        metaString(chunk.MetaData, transform.MetaVenue),
		ContractType: contractType,
	}
}

// Store 批量存储
func (e *ESIndexer) Store(ctx context.Context, docID, contractType string, chunks []*schema.Document) error {
	if len(chunks) == 0 {
		return nil
	}
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:   e.index,
		Client:  e.client,
		Refresh: "true",
	})
	if err != nil {
		return err
	}

	var failed int
	for _, chunk := range chunks {
		data, err := json.Marshal(newChunkSource(docID, contractType, chunk))
		if err != nil {
			return err
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: chunk.ID, // ChunkID 作为 _id，避免重复
			Body:       bytes.NewReader(data),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, _ esutil.BulkIndexerResponseItem, err error) {
				failed++
				slog.Warn("es bulk item failed", "chunk_id", item.DocumentID, "err", err)
			},
		})
		if err != nil {
			return err
		}
	}

	if err := bi.Close(ctx); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("es bulk index: %d of %d chunks failed", failed, len(chunks))
	}
	slog.Debug("es chunks stored", "doc_id", docID, "count", len(chunks))
	return nil
}

func (e *ESIndexer) DeleteByDocID(ctx context.Context, docID string) error {
	body, err := encode(map[string]any{
		"query": map[string]any{
			"term": map[string]any{"doc_id": docID},
		},
	})
	if err != nil {
		return err
	}

	res, err := e.client.DeleteByQuery(
		[]string{e.index},
		body,
		e.client.DeleteByQuery.WithContext(ctx),
		e.client.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("ES delete request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("ES delete response error: %s", res.String())
	}

	slog.Info("es chunks deleted", "doc_id", docID)
	return nil
}

func encode(v any) (*bytes.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error encoding query: %w", err)
	}
	return bytes.NewReader(data), nil
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}
