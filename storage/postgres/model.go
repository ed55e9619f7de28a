package postgres

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"contractscan/types"
)

// Contract 对应数据库里的 contracts 表
type Contract struct {
	// DocID 不使用 gorm.Model 的自增 ID，而是手动指定的 UUID
	DocID        string `gorm:"column:doc_id;primaryKey;type:uuid"`
	Name         string `gorm:"column:name;type:varchar(255);index"`
	FileName     string `gorm:"column:file_name;type:varchar(255)"`
	FileType     string `gorm:"column:file_type;type:varchar(50)"`
	ContractType string `gorm:"column:contract_type;type:varchar(50);index"`
	Venue        string `gorm:"column:venue;type:varchar(255);index"`
	Status       string `gorm:"column:status;type:varchar(20);index;not null"` // analyzing, analyzed, error
	Provider     string `gorm:"column:provider;type:varchar(100)"`

	RiskScore  int     `gorm:"column:risk_score;type:smallint"`
	BasePrice  string  `gorm:"column:base_price;type:varchar(100)"`
	TotalValue string  `gorm:"column:total_value;type:varchar(100)"`
	TotalINR   float64 `gorm:"column:total_inr;type:decimal(15,2)"` // 卢比数值, 用于范围筛选
	Summary    string  `gorm:"column:summary;type:text"`
	RawText    string  `gorm:"column:raw_text;type:text"`

	Analysis datatypes.JSON `gorm:"column:analysis;type:jsonb"`
	ErrorMsg string         `gorm:"column:error_msg;type:text"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName 强制指定表名
func (Contract) TableName() string {
	return "contracts"
}

func (c *Contract) IsAnalyzed() bool {
	return c.Status == types.StatusAnalyzed
}

// DecodeAnalysis 反序列化 analysis 列, 未分析完成时返回 nil
func (c *Contract) DecodeAnalysis() (*types.ContractAnalysis, error) {
	if len(c.Analysis) == 0 {
		return nil, nil
	}
	var a types.ContractAnalysis
	if err := json.Unmarshal(c.Analysis, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ToRecord 转为 API 返回结构
func (c *Contract) ToRecord(withText bool) (*types.ContractRecord, error) {
	a, err := c.DecodeAnalysis()
	if err != nil {
		return nil, err
	}
	rec := &types.ContractRecord{
		ID:           c.DocID,
		Name:         c.Name,
		Venue:        c.Venue,
		FileName:     c.FileName,
		FileType:     c.FileType,
		ContractType: c.ContractType,
		Status:       c.Status,
		Provider:     c.Provider,
		Error:        c.ErrorMsg,
		UploadedAt:   c.CreatedAt,
		Analysis:     a,
	}
	if withText {
		rec.RawText = c.RawText
	}
	return rec, nil
}
