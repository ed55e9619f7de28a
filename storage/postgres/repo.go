package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"contractscan/types"
)

var ErrNotFound = errors.New("contract not found")

// ContractRepo 封装对 Contract 表的所有操作
type ContractRepo struct {
	db *gorm.DB
}

func NewContractRepo(db *gorm.DB) *ContractRepo {
	return &ContractRepo{db: db}
}

func (r *ContractRepo) Create(ctx context.Context, contract *Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

// GetByDocID 根据 UUID 查询合同详情
func (r *ContractRepo) GetByDocID(ctx context.Context, docID string) (*Contract, error) {
	var contract Contract
	err := r.db.WithContext(ctx).
		Where("doc_id = ?", docID).
		First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// GetByDocIDs 按传入顺序返回, 缺失的 ID 被忽略
func (r *ContractRepo) GetByDocIDs(ctx context.Context, docIDs []string) ([]Contract, error) {
	var found []Contract
	if err := r.db.WithContext(ctx).Where("doc_id IN ?", docIDs).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]Contract, len(found))
	for _, c := range found {
		byID[c.DocID] = c
	}
	out := make([]Contract, 0, len(docIDs))
	for _, id := range docIDs {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// List 按上传时间倒序分页
func (r *ContractRepo) List(ctx context.Context, status string, limit, offset int) ([]Contract, int64, error) {
	tx := r.db.WithContext(ctx).Model(&Contract{})
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var results []Contract
	err := tx.Omit("raw_text").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error
	return results, total, err
}

// SearchByKeyword 简单的 SQL 模糊搜索 (不用 ES 时兜底)
func (r *ContractRepo) SearchByKeyword(ctx context.Context, keyword string, limit int) ([]Contract, error) {
	var results []Contract
	pattern := "%" + keyword + "%"
	err := r.db.WithContext(ctx).
		Omit("raw_text").
		Where("name ILIKE ? OR venue ILIKE ? OR file_name ILIKE ? OR summary ILIKE ?", pattern, pattern, pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error
	return results, err
}

// UpdateAnalysis 写入分析结果并标记为 analyzed
func (r *ContractRepo) UpdateAnalysis(ctx context.Context, docID, provider string, a *types.ContractAnalysis, totalINR float64) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"status":      types.StatusAnalyzed,
		"provider":    provider,
		"risk_score":  a.RiskScore,
		"base_price":  a.BasePrice,
		"total_value": a.TotalValue,
		"total_inr":   totalINR,
		"summary":     a.Summary,
		"analysis":    datatypes.JSON(raw),
		"error_msg":   "",
	}
	if a.VenueName != "" {
		// 用户未填写场地时使用分析出的场地名
		updates["venue"] = gorm.Expr("COALESCE(NULLIF(venue, ''), ?)", a.VenueName)
	}
	return r.db.WithContext(ctx).Model(&Contract{}).Where("doc_id = ?", docID).Updates(updates).Error
}

func (r *ContractRepo) MarkFailed(ctx context.Context, docID, msg string) error {
	return r.db.WithContext(ctx).Model(&Contract{}).
		Where("doc_id = ?", docID).
		Updates(map[string]any{"status": types.StatusError, "error_msg": msg}).Error
}

// FailStale 用于定时任务: 把超时仍在分析中的记录标记为失败
func (r *ContractRepo) FailStale(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&Contract{}).
		Where("status = ? AND updated_at < ?", types.StatusAnalyzing, before).
		Updates(map[string]any{"status": types.StatusError, "error_msg": "analysis timed out"})
	return result.RowsAffected, result.Error
}

func (r *ContractRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("doc_id = ?", id).Delete(&Contract{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
