package types

import "time"

// 合同分析状态
const (
	StatusAnalyzing = "analyzing"
	StatusAnalyzed  = "analyzed"
	StatusError     = "error"
)

// 分析来源
const (
	ProviderLocal         = "Local Analysis"
	ProviderLocalFallback = "Local Analysis (AI fallback)"
)

const DefaultContractType = "venue"

// AnalyzeRequest 分析请求. Exactly one of Content, PDF or ImageData is expected.
type AnalyzeRequest struct {
	Content      string `json:"content"`
	FileName     string `json:"fileName"`
	ContractType string `json:"contractType"`
	ContractName string `json:"contractName"`
	Venue        string `json:"venue"`
	ImageData    string `json:"imageData"`

	PDF      []byte `json:"-"`
	FileType string `json:"-"`
}

type AnalyzeResult struct {
	ID       string           `json:"id"`
	Analysis ContractAnalysis `json:"analysis"`
	Provider string           `json:"provider"`
}

// ContractRecord 已保存的合同, the view returned by list/get endpoints.
type ContractRecord struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Venue        string            `json:"venue"`
	FileName     string            `json:"fileName"`
	FileType     string            `json:"fileType"`
	ContractType string            `json:"contractType"`
	Status       string            `json:"status"`
	Provider     string            `json:"provider,omitempty"`
	Error        string            `json:"error,omitempty"`
	UploadedAt   time.Time         `json:"uploadedAt"`
	RawText      string            `json:"rawText,omitempty"`
	Analysis     *ContractAnalysis `json:"analysis,omitempty"`
}
