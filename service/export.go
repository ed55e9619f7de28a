package service

import (
	"context"
	"errors"
	"fmt"

	"contractscan/logic/currency"
	"contractscan/logic/report"
	"contractscan/types"
)

var ErrUnsupportedFormat = errors.New("unsupported export format, use md, html or pdf")

// 导出格式
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
	FormatPDF      = "pdf"
)

// PDFRenderer 由 report.ChromeRenderer 实现
type PDFRenderer interface {
	PDF(ctx context.Context, html string) ([]byte, error)
}

type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	contracts *AnalysisService
	conv      currency.Converter
	pdf       PDFRenderer
}

func NewExportService(contracts *AnalysisService, pdf PDFRenderer) *ExportService {
	return &ExportService{contracts: contracts, conv: contracts.Converter(), pdf: pdf}
}

func (s *ExportService) Export(ctx context.Context, id, format string) (*ExportFile, error) {
	if format == "" {
		format = FormatHTML
	}
	if format != FormatMarkdown && format != FormatHTML && format != FormatPDF {
		return nil, ErrUnsupportedFormat
	}
	rec, err := s.contracts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, rec, format)
}

func (s *ExportService) render(ctx context.Context, rec *types.ContractRecord, format string) (*ExportFile, error) {
	base := "contract-analysis-" + rec.ID
	md := report.Markdown(rec, s.conv)
	if format == FormatMarkdown {
		return &ExportFile{FileName: base + ".md", ContentType: "text/markdown; charset=utf-8", Data: []byte(md)}, nil
	}

	page, err := report.HTML(orDefault(rec.Name, rec.FileName), md)
	if err != nil {
		return nil, err
	}
	if format == FormatHTML {
		return &ExportFile{FileName: base + ".html", ContentType: "text/html; charset=utf-8", Data: []byte(page)}, nil
	}

	if s.pdf == nil {
		return nil, fmt.Errorf("%w: pdf renderer not configured", ErrUnsupportedFormat)
	}
	pdf, err := s.pdf.PDF(ctx, page)
	if err != nil {
		return nil, err
	}
	return &ExportFile{FileName: base + ".pdf", ContentType: "application/pdf", Data: pdf}, nil
}
