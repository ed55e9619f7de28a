package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"contractscan/storage/postgres"
	"contractscan/types"
)

var (
	ErrNoContent          = errors.New("no contract content provided")
	ErrUnreadablePDF      = errors.New("could not extract readable text from this PDF, it may be scanned or image-based; paste the contract text instead")
	ErrInvalidImage       = errors.New("image data is not a supported image")
	ErrVisionUnavailable  = errors.New("image analysis requires a vision-capable AI model")
	ErrLLMUnavailable     = errors.New("AI model not configured or unavailable")
	ErrNotEnoughContracts = errors.New("select at least 2 analyzed contracts to compare")
	ErrStoreUnavailable   = errors.New("contract storage not configured")
	ErrNotFound           = postgres.ErrNotFound
)

// ContractStore 由 postgres.ContractRepo 实现
type ContractStore interface {
	Create(ctx context.Context, contract *postgres.Contract) error
	GetByDocID(ctx context.Context, docID string) (*postgres.Contract, error)
	GetByDocIDs(ctx context.Context, docIDs []string) ([]postgres.Contract, error)
	List(ctx context.Context, status string, limit, offset int) ([]postgres.Contract, int64, error)
	SearchByKeyword(ctx context.Context, keyword string, limit int) ([]postgres.Contract, error)
	UpdateAnalysis(ctx context.Context, docID, provider string, a *types.ContractAnalysis, totalINR float64) error
	MarkFailed(ctx context.Context, docID, msg string) error
	Delete(ctx context.Context, docID string) error
}

// KeywordIndex 由 es.ESIndexer 实现
type KeywordIndex interface {
	Store(ctx context.Context, docID, contractType string, chunks []*schema.Document) error
	DeleteByDocID(ctx context.Context, docID string) error
	SearchDocIDs(ctx context.Context, keyword string, limit int) ([]string, error)
}

// VectorIndex 由 milvus.Store 实现
type VectorIndex interface {
	Store(ctx context.Context, chunks []*schema.Document) ([]string, error)
	DeleteByDocID(ctx context.Context, docID string) error
}

// ContextRetriever 由 retrieval.Hybrid 实现
type ContextRetriever interface {
	Enabled() bool
	Retrieve(ctx context.Context, query string, docIDs []string) ([]*schema.Document, error)
}

func toRecords(rows []postgres.Contract) ([]types.ContractRecord, error) {
	out := make([]types.ContractRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].ToRecord(false)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// parseID 合同 ID 必须是 uuid, 否则视为不存在
func parseID(id string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}
	return u.String(), nil
}
