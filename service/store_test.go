package service

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"contractscan/storage/postgres"
	"contractscan/types"
)

// memStore 内存版 ContractStore
type memStore struct {
	mu    sync.Mutex
	rows  map[string]*postgres.Contract
	order []string
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]*postgres.Contract{}}
}

func (m *memStore) Create(ctx context.Context, c *postgres.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.CreatedAt, cp.UpdatedAt = time.Now(), time.Now()
	m.rows[c.DocID] = &cp
	m.order = append(m.order, c.DocID)
	return nil
}

func (m *memStore) GetByDocID(ctx context.Context, id string) (*postgres.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) GetByDocIDs(ctx context.Context, ids []string) ([]postgres.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []postgres.Contract
	for _, id := range ids {
		if c, ok := m.rows[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) List(ctx context.Context, status string, limit, offset int) ([]postgres.Contract, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []postgres.Contract
	for i := len(m.order) - 1; i >= 0; i-- {
		if c, ok := m.rows[m.order[i]]; ok && (status == "" || c.Status == status) {
			all = append(all, *c)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	return all[:min(limit, len(all))], total, nil
}

func (m *memStore) SearchByKeyword(ctx context.Context, kw string, limit int) ([]postgres.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kw = strings.ToLower(kw)
	var out []postgres.Contract
	for _, id := range m.order {
		c, ok := m.rows[id]
		if !ok {
			continue
		}
		for _, f := range []string{c.Name, c.Venue, c.FileName, c.Summary} {
			if strings.Contains(strings.ToLower(f), kw) {
				out = append(out, *c)
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) UpdateAnalysis(ctx context.Context, id, provider string, a *types.ContractAnalysis, totalINR float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return postgres.ErrNotFound
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	c.Status, c.Provider, c.Analysis = types.StatusAnalyzed, provider, raw
	c.RiskScore, c.BasePrice, c.TotalValue, c.TotalINR, c.Summary = a.RiskScore, a.BasePrice, a.TotalValue, totalINR, a.Summary
	if c.Venue == "" {
		c.Venue = a.VenueName
	}
	return nil
}

func (m *memStore) MarkFailed(ctx context.Context, id, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.rows[id]; ok {
		c.Status, c.ErrorMsg = types.StatusError, msg
	}
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return postgres.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memStore) only() *postgres.Contract {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		return c
	}
	return nil
}

// memIndex 同时实现 KeywordIndex 和 VectorIndex
type memIndex struct {
	mu      sync.Mutex
	chunks  map[string][]*schema.Document
	hits    []string
	err     error
	deleted []string
}

func newMemIndex() *memIndex {
	return &memIndex{chunks: map[string][]*schema.Document{}}
}

func (x *memIndex) put(docID string, chunks []*schema.Document) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.err != nil {
		return x.err
	}
	x.chunks[docID] = append(x.chunks[docID], chunks...)
	return nil
}

type keywordIndex struct{ *memIndex }

func (k keywordIndex) Store(ctx context.Context, docID, contractType string, chunks []*schema.Document) error {
	return k.put(docID, chunks)
}

func (k keywordIndex) SearchDocIDs(ctx context.Context, kw string, limit int) ([]string, error) {
	return k.hits, k.err
}

func (x *memIndex) DeleteByDocID(ctx context.Context, docID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.deleted = append(x.deleted, docID)
	delete(x.chunks, docID)
	return x.err
}

type vectorIndex struct{ *memIndex }

func (v vectorIndex) Store(ctx context.Context, chunks []*schema.Document) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	docID, _ := chunks[0].MetaData["doc_id"].(string)
	if err := v.put(docID, chunks); err != nil {
		return nil, err
	}
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids, nil
}

// stubPDF 返回固定文本
type stubPDF struct {
	text string
	err  error
}

func (p stubPDF) Text(ctx context.Context, r io.Reader, name string) (string, error) {
	return p.text, p.err
}
