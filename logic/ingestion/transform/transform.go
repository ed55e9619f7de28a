package transform

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/semantic"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"contractscan/logic/ingestion/processors"
)

// 切片元数据字段
const (
	MetaDocID    = "doc_id"
	MetaFileName = "file_name"
	MetaVenue    = "venue"
)

// NewSplitter 语义切分, 按 unicode 字符数计算长度
func NewSplitter(ctx context.Context, emb embedding.Embedder) (document.Transformer, error) {
	return semantic.NewSplitter(ctx, &semantic.Config{
		Embedding:    emb,
		BufferSize:   5,
		MinChunkSize: 200,
		Separators:   []string{"\n\n", "\n", ". ", "; ", "? ", "! "},
		LenFunc: func(s string) int {
			return len([]rune(s))
		},
		Percentile: 0.85,
	})
}

type ChunkMeta struct {
	DocID    string
	FileName string
	Venue    string
}

// Split 切分合同全文并清洗 (splitter 可为 nil), 每个切片带上 doc_id 等元数据
func Split(ctx context.Context, splitter document.Transformer, text string, meta ChunkMeta) ([]*schema.Document, error) {
	doc := &schema.Document{ID: meta.DocID, Content: text, MetaData: map[string]any{}}
	chunks := []*schema.Document{doc}
	// 没有 embedder 时不切分, 整篇作为一个切片
	if splitter != nil {
		var err error
		chunks, err = splitter.Transform(ctx, chunks)
		if err != nil {
			return nil, fmt.Errorf("split failed: %w", err)
		}
	}
	chunks, err := processors.Processor(ctx, chunks)
	if err != nil {
		return nil, err
	}
	for _, chunk := range chunks {
		chunk.ID = uuid.New().String()
		if chunk.MetaData == nil {
			chunk.MetaData = make(map[string]any)
		}
		chunk.MetaData[MetaDocID] = meta.DocID
		chunk.MetaData[MetaFileName] = meta.FileName
		chunk.MetaData[MetaVenue] = meta.Venue
	}
	return chunks, nil
}
