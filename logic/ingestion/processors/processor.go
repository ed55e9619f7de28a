package processors

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
)

var (
	ctrlRe      = regexp.MustCompile(`[\x00-\x08\x0B-\x0C\x0E-\x1F\x7F]`)
	spaceRe     = regexp.MustCompile(`\s+`)
	reportLabRe = regexp.MustCompile(`(?i)ReportLab Generated PDF document[^.]*\.|http://www\.reportlab\.com`)
)

// CleanText 清洗 PDF 提取的文本: 去除控制字符, 无效 UTF-8, 生成器水印, 合并空白
func CleanText(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = ctrlRe.ReplaceAllString(text, "")
	text = reportLabRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// CleanContent 清洗上传或粘贴的纯文本: 去除 NUL 等控制字符和无效 UTF-8, 保留换行
func CleanContent(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = strings.ReplaceAll(text, "\uFFFD", "")
	text = ctrlRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Processor 清洗切片: 去除无法处理的字符和空白文档, 否则 Embedding 会报错
func Processor(ctx context.Context, src []*schema.Document) ([]*schema.Document, error) {
	cleanDocs := make([]*schema.Document, 0, len(src))
	for _, doc := range src {
		content := doc.Content
		if !utf8.ValidString(content) {
			content = strings.ToValidUTF8(content, "")
		}
		content = CleanText(content)
		if content == "" {
			slog.DebugContext(ctx, "skip empty chunk", "id", doc.ID)
			continue
		}
		doc.Content = content
		cleanDocs = append(cleanDocs, doc)
	}
	return cleanDocs, nil
}
