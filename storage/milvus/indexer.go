package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cloudwego/eino-ext/components/indexer/milvus"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"contractscan/logic/ingestion/transform"
)

// 集合字段名
const (
	fieldID       = "id"
	fieldDocID    = "doc_id"
	fieldVector   = "vector"
	fieldContent  = "content"
	fieldFileName = "file_name"
	fieldVenue    = "venue"
	fieldMetadata = "metadata"
)

// Store 合同切片的向量存储, 持有同一个 client 供写入, 检索和删除复用
type Store struct {
	cli        client.Client
	collection string
	embedder   embedding.Embedder
	indexer    indexer.Indexer
}

// NewStore 连接 Milvus 并确保集合与索引存在
func NewStore(ctx context.Context, addr, collection string, emb embedding.Embedder) (*Store, error) {
	slog.Info("connecting milvus", "addr", addr)
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cli, err := client.NewClient(connectCtx, client.Config{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}
	s, err := NewStoreWithClient(ctx, cli, collection, emb)
	if err != nil {
		_ = cli.Close()
		return nil, err
	}
	return s, nil
}

// NewStoreWithClient 使用外部创建的 Client（复用连接）
func NewStoreWithClient(ctx context.Context, cli client.Client, collection string, emb embedding.Embedder) (*Store, error) {
	vecs, err := emb.EmbedStrings(ctx, []string{"probe"})
	if err != nil {
		return nil, fmt.Errorf("probe embedder: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("probe embedder: empty vector")
	}
	dim := len(vecs[0])
	slog.Debug("milvus vector dim", "dim", dim)

	has, err := cli.HasCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("has collection: %w", err)
	}

	idx, err := milvus.NewIndexer(ctx, &milvus.IndexerConfig{
		Client:            cli,
		Collection:        collection,
		Embedding:         emb,
		Fields:            chunkFields(dim),
		DocumentConverter: rowConverter,
		MetricType:        milvus.L2,
	})
	if err != nil {
		return nil, fmt.Errorf("create milvus indexer: %w", err)
	}

	if !has {
		if err := createIndexes(ctx, cli, collection); err != nil {
			return nil, err
		}
	}
	if err := cli.LoadCollection(ctx, collection, false); err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}

	return &Store{cli: cli, collection: collection, embedder: emb, indexer: idx}, nil
}

func chunkFields(dim int) []*entity.Field {
	return []*entity.Field{
		{
			Name:       fieldID, // 主键, 切片 UUID
			DataType:   entity.FieldTypeVarChar,
			PrimaryKey: true,
			TypeParams: map[string]string{"max_length": "64"},
		},
		{
			Name:       fieldDocID, // 合同 ID
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": "64"},
		},
		{
			Name:       fieldVector,
			DataType:   entity.FieldTypeFloatVector,
			TypeParams: map[string]string{"dim": strconv.Itoa(dim)},
		},
		{
			Name:       fieldContent,
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": "65535"},
		},
		{
			Name:       fieldFileName,
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": "255"},
		},
		{
			Name:       fieldVenue,
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": "255"},
		},
		{
			Name:     fieldMetadata,
			DataType: entity.FieldTypeJSON,
		},
	}
}

// createIndexes 用 HNSW 替换默认向量索引, 并给 doc_id 建标量索引
func createIndexes(ctx context.Context, cli client.Client, collection string) error {
	_ = cli.ReleaseCollection(ctx, collection)

	if err := cli.DropIndex(ctx, collection, fieldVector); err != nil {
		slog.Debug("milvus drop default index", "err", err)
	}
	hnswIdx, err := entity.NewIndexHNSW(entity.L2, 16, 200)
	if err != nil {
		return err
	}
	if err := cli.CreateIndex(ctx, collection, fieldVector, hnswIdx, false); err != nil {
		return fmt.Errorf("create hnsw index: %w", err)
	}
	if err := cli.CreateIndex(ctx, collection, fieldDocID, entity.NewScalarIndex(), false); err != nil {
		return fmt.Errorf("create doc_id index: %w", err)
	}
	return nil
}

// rowConverter 把切片转为 Milvus 行
func rowConverter(ctx context.Context, docs []*schema.Document, vectors [][]float64) ([]interface{}, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("got %d vectors for %d docs", len(vectors), len(docs))
	}
	rows := make([]interface{}, len(docs))
	for i, doc := range docs {
		vec32 := make([]float32, len(vectors[i]))
		for j, v := range vectors[i] {
			vec32[j] = float32(v)
		}
		meta := doc.MetaData
		if meta == nil {
			meta = map[string]any{}
		}
		metaBytes, err := json.Marshal(meta)
		if err != nil {
			metaBytes = []byte("{}")
		}
		rows[i] = map[string]interface{}{
			fieldID:       doc.ID,
			fieldDocID:    metaString(meta, transform.MetaDocID),
			fieldVector:   vec32,
			fieldContent:  doc.Content,
			fieldFileName: metaString(meta, transform.MetaFileName),
			fieldVenue:    metaString(meta, transform.MetaVenue),
			fieldMetadata: metaBytes,
		}
	}
	return rows, nil
}

// Store 写入切片, 返回写入的 ID
func (s *Store) Store(ctx context.Context, chunks []*schema.Document) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	ids, err := s.indexer.Store(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("milvus store: %w", err)
	}
	slog.Debug("milvus chunks stored", "count", len(ids))
	return ids, nil
}

func (s *Store) DeleteByDocID(ctx context.Context, docID string) error {
	if err := s.cli.Delete(ctx, s.collection, "", DocIDExpr(docID)); err != nil {
		return fmt.Errorf("milvus delete: %w", err)
	}
	slog.Info("milvus chunks deleted", "doc_id", docID)
	return nil
}

func (s *Store) Close() error {
	return s.cli.Close()
}

func metaString(meta map[string]any, key string) string {
	v, _ := meta[key].(string)
	return v
}
