package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/document"
	"github.com/google/uuid"

	"contractscan/logic/analyzer"
	"contractscan/logic/chat"
	"contractscan/logic/currency"
	"contractscan/logic/extract"
	"contractscan/logic/ingestion/loaders"
	"contractscan/logic/ingestion/processors"
	"contractscan/logic/ingestion/transform"
	"contractscan/storage/postgres"
	"contractscan/types"
	"contractscan/vars"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// PDFTextExtractor 由 parser.PDFParser 实现
type PDFTextExtractor interface {
	Text(ctx context.Context, r io.Reader, fileName string) (string, error)
}

// AnalysisDeps 除 Analyzer 外都可以为 nil
type AnalysisDeps struct {
	Store    ContractStore
	Chat     *chat.Model
	Analyzer *analyzer.Analyzer
	PDF      PDFTextExtractor
	Splitter document.Transformer
	Keyword  KeywordIndex
	Vector   VectorIndex
	Timeout  time.Duration
}

type AnalysisService struct {
	store    ContractStore
	chat     *chat.Model
	analyzer *analyzer.Analyzer
	conv     currency.Converter
	pdf      PDFTextExtractor
	splitter document.Transformer
	keyword  KeywordIndex
	vector   VectorIndex
	timeout  time.Duration
}

func NewAnalysisService(d AnalysisDeps) *AnalysisService {
	if d.Analyzer == nil {
		d.Analyzer = analyzer.New()
	}
	if d.Timeout <= 0 {
		d.Timeout = vars.LLM_TIMEOUT
	}
	return &AnalysisService{
		store:    d.Store,
		chat:     d.Chat,
		analyzer: d.Analyzer,
		conv:     currency.NewConverter(d.Analyzer.Rate()),
		pdf:      d.PDF,
		splitter: d.Splitter,
		keyword:  d.Keyword,
		vector:   d.Vector,
		timeout:  d.Timeout,
	}
}

// input 归一化后的分析输入, 图片合同没有 text
type input struct {
	text     string
	imageURL string
	fileType string
}

// Analyze LLM 优先, 失败或未配置时使用本地规则分析
func (s *AnalysisService) Analyze(ctx context.Context, req types.AnalyzeRequest) (*types.AnalyzeResult, error) {
	start := time.Now()
	in, err := s.readInput(ctx, req)
	if err != nil {
		return nil, err
	}
	if in.imageURL != "" && (s.chat == nil || !s.chat.Vision) {
		return nil, ErrVisionUnavailable
	}
	if req.ContractType == "" {
		req.ContractType = types.DefaultContractType
	}

	id := uuid.New().String()
	if s.store != nil {
		rec := &postgres.Contract{
			DocID:        id,
			Name:         contractName(req),
			FileName:     req.FileName,
			FileType:     in.fileType,
			ContractType: req.ContractType,
			Venue:        req.Venue,
			Status:       types.StatusAnalyzing,
			RawText:      in.text,
		}
		if err := s.store.Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("create contract record: %w", err)
		}
	}

	a, provider, err := s.run(ctx, req, in)
	if err != nil {
		s.markFailed(ctx, id, err)
		return nil, err
	}

	if s.store != nil {
		if err := s.store.UpdateAnalysis(ctx, id, provider, a, s.conv.ValueINR(a.TotalValue)); err != nil {
			return nil, fmt.Errorf("save analysis: %w", err)
		}
	}
	s.index(ctx, id, req, in.text, a)

	slog.InfoContext(ctx, "contract analyzed",
		"id", id, "provider", provider, "risk_score", a.RiskScore, "fees", len(a.HiddenFees), "took", time.Since(start))
	return &types.AnalyzeResult{ID: id, Analysis: *a, Provider: provider}, nil
}

func (s *AnalysisService) readInput(ctx context.Context, req types.AnalyzeRequest) (*input, error) {
	switch {
	case strings.TrimSpace(req.ImageData) != "":
		url, mime, err := imageDataURL(req.FileName, req.ImageData)
		if err != nil {
			return nil, err
		}
		return &input{imageURL: url, fileType: mime}, nil

	case len(req.PDF) > 0:
		if s.pdf == nil {
			return nil, fmt.Errorf("%w: pdf parser not configured", ErrUnreadablePDF)
		}
		raw, err := s.pdf.Text(ctx, bytes.NewReader(req.PDF), req.FileName)
		if err != nil {
			slog.WarnContext(ctx, "pdf extraction failed", "file", req.FileName, "err", err)
			return nil, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
		}
		text := processors.CleanText(raw)
		if utf8.RuneCountInString(text) < vars.MIN_PDF_TEXT_CHARS {
			return nil, ErrUnreadablePDF
		}
		return &input{text: text, fileType: orDefault(req.FileType, "application/pdf")}, nil
	}

	// 上传的 .txt 可能带 NUL 或无效字节, 入库前清洗
	text := processors.CleanContent(req.Content)
	if text == "" {
		return nil, ErrNoContent
	}
	return &input{text: text, fileType: orDefault(req.FileType, "text/plain")}, nil
}

// imageDataURL 接受 data URL 或裸 base64, 按内容确认是图片
func imageDataURL(fileName, data string) (string, string, error) {
	data = strings.TrimSpace(data)
	payload := data
	if strings.HasPrefix(data, "data:") {
		i := strings.Index(data, ",")
		if i < 0 {
			return "", "", ErrInvalidImage
		}
		payload = data[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	src, err := loaders.FromBytes(fileName, raw)
	if err != nil || src.Kind != loaders.KindImage {
		return "", "", ErrInvalidImage
	}
	return src.DataURL(), src.MIME, nil
}

func (s *AnalysisService) run(ctx context.Context, req types.AnalyzeRequest, in *input) (*types.ContractAnalysis, string, error) {
	if s.chat == nil {
		a := s.analyzer.Analyze(in.text)
		return &a, types.ProviderLocal, nil
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	a, err := extract.Analyze(llmCtx, s.chat, extract.Input{
		ContractType: req.ContractType,
		FileName:     req.FileName,
		Content:      in.text,
		ImageURL:     in.imageURL,
	})
	if err == nil {
		s.localize(a)
		return a, s.chat.Label(), nil
	}

	var pe *extract.ParseError
	if errors.As(err, &pe) {
		slog.WarnContext(ctx, "llm output not parseable", "err", pe.Err, "raw", extract.Truncate(pe.Raw, 500))
	} else {
		slog.WarnContext(ctx, "llm analysis failed", "provider", s.chat.Label(), "err", err)
	}
	if in.imageURL != "" {
		return nil, "", fmt.Errorf("%w: %w", ErrLLMUnavailable, err)
	}
	local := s.analyzer.Analyze(in.text)
	return &local, types.ProviderLocalFallback, nil
}

// localize 把 LLM 给出的金额统一换算为卢比
func (s *AnalysisService) localize(a *types.ContractAnalysis) {
	if a.BasePrice != types.PriceNotSpecified {
		a.BasePrice = s.conv.ToINR(a.BasePrice)
	}
	if a.TotalValue != types.TotalNotCalculated {
		a.TotalValue = s.conv.ToINR(a.TotalValue)
	}
	for i := range a.HiddenFees {
		a.HiddenFees[i].Amount = s.conv.ToINR(a.HiddenFees[i].Amount)
	}
}

func (s *AnalysisService) markFailed(ctx context.Context, id string, cause error) {
	if s.store == nil {
		return
	}
	if err := s.store.MarkFailed(ctx, id, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "mark contract failed", "id", id, "err", err)
	}
}

// index 写入 ES 和 Milvus, 失败只记录日志
func (s *AnalysisService) index(ctx context.Context, id string, req types.AnalyzeRequest, text string, a *types.ContractAnalysis) {
	if text == "" || (s.keyword == nil && s.vector == nil) {
		return
	}
	venue := orDefault(req.Venue, a.VenueName)
	chunks, err := transform.Split(ctx, s.splitter, text, transform.ChunkMeta{DocID: id, FileName: req.FileName, Venue: venue})
	if err != nil {
		slog.WarnContext(ctx, "split contract failed", "id", id, "err", err)
		return
	}
	if s.keyword != nil {
		if err := s.keyword.Store(ctx, id, req.ContractType, chunks); err != nil {
			slog.WarnContext(ctx, "es index failed", "id", id, "err", err)
		}
	}
	if s.vector != nil {
		if _, err := s.vector.Store(ctx, chunks); err != nil {
			slog.WarnContext(ctx, "milvus index failed", "id", id, "err", err)
		}
	}
}

func (s *AnalysisService) Get(ctx context.Context, id string) (*types.ContractRecord, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	c, err := s.store.GetByDocID(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.ToRecord(true)
}

func (s *AnalysisService) List(ctx context.Context, req types.ListRequest) (*types.ListResult, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	rows, total, err := s.store.List(ctx, req.Status, limit, max(req.Offset, 0))
	if err != nil {
		return nil, err
	}
	recs, err := toRecords(rows)
	if err != nil {
		return nil, err
	}
	return &types.ListResult{Contracts: recs, Total: total}, nil
}

// Search 启用 ES 时先查全文索引, 无结果或出错时退回 SQL 模糊匹配
func (s *AnalysisService) Search(ctx context.Context, keyword string) ([]types.ContractRecord, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []types.ContractRecord{}, nil
	}
	if s.keyword != nil {
		ids, err := s.keyword.SearchDocIDs(ctx, keyword, defaultListLimit)
		if err != nil {
			slog.WarnContext(ctx, "es search failed, using sql", "err", err)
		} else if len(ids) > 0 {
			rows, err := s.store.GetByDocIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			return toRecords(rows)
		}
	}
	rows, err := s.store.SearchByKeyword(ctx, keyword, defaultListLimit)
	if err != nil {
		return nil, err
	}
	return toRecords(rows)
}

// Delete 删除记录及其索引切片
func (s *AnalysisService) Delete(ctx context.Context, id string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}
	if s.store == nil {
		return ErrStoreUnavailable
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.keyword != nil {
		if err := s.keyword.DeleteByDocID(ctx, id); err != nil {
			slog.WarnContext(ctx, "es delete failed", "id", id, "err", err)
		}
	}
	if s.vector != nil {
		if err := s.vector.DeleteByDocID(ctx, id); err != nil {
			slog.WarnContext(ctx, "milvus delete failed", "id", id, "err", err)
		}
	}
	return nil
}

// Converter 供导出等下游复用同一汇率
func (s *AnalysisService) Converter() currency.Converter {
	return s.conv
}

func contractName(req types.AnalyzeRequest) string {
	switch {
	case req.ContractName != "":
		return req.ContractName
	case req.Venue != "":
		return req.Venue
	case req.FileName != "":
		return req.FileName
	}
	return "Untitled contract"
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
