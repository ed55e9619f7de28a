package parser

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

// PDFParser 把 PDF 解析为整篇文档
type PDFParser struct {
	p parser.Parser
}

func NewPDFParser(ctx context.Context) (*PDFParser, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("create pdf parser failed: %w", err)
	}
	return &PDFParser{p: p}, nil
}

func (p *PDFParser) Parse(ctx context.Context, r io.Reader, fileName string) ([]*schema.Document, error) {
	docs, err := p.p.Parse(ctx, r, parser.WithURI(fileName))
	if err != nil {
		return nil, fmt.Errorf("parse pdf failed: %w", err)
	}
	return docs, nil
}

// Text 解析并拼接全部页面文本
func (p *PDFParser) Text(ctx context.Context, r io.Reader, fileName string) (string, error) {
	docs, err := p.Parse(ctx, r, fileName)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}
