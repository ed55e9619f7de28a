package loaders

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// 上传大小上限
const MaxUploadBytes = 20 << 20

type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
	KindText  Kind = "text"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

// Source 一份上传的合同文件
type Source struct {
	FileName string
	MIME     string
	Kind     Kind
	Data     []byte
}

// DataURL 图片以 data URL 形式交给视觉模型
func (s *Source) DataURL() string {
	return "data:" + s.MIME + ";base64," + base64.StdEncoding.EncodeToString(s.Data)
}

// Load 读取 multipart 文件并按内容嗅探类型
func Load(fh *multipart.FileHeader) (*Source, error) {
	if fh.Size > MaxUploadBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrTooLarge, fh.Filename, fh.Size, MaxUploadBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload failed: %w", err)
	}
	return FromBytes(fh.Filename, data)
}

func FromBytes(fileName string, data []byte) (*Source, error) {
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, fileName, MaxUploadBytes)
	}
	m := mimetype.Detect(data)
	src := &Source{FileName: fileName, MIME: m.String(), Data: data}
	switch {
	case m.Is("application/pdf"):
		src.Kind = KindPDF
	case strings.HasPrefix(m.String(), "image/"):
		src.Kind = KindImage
		src.MIME = strings.SplitN(m.String(), ";", 2)[0]
	case strings.HasPrefix(m.String(), "text/"):
		src.Kind = KindText
	default:
		// 部分纯文本 (如 .md) 嗅探结果为 octet-stream
		if ext := strings.ToLower(filepath.Ext(fileName)); ext == ".txt" || ext == ".md" {
			src.Kind = KindText
			break
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, m.String())
	}
	if src.Kind == KindText {
		src.Data = decodeText(src.Data)
	}
	return src, nil
}

// decodeText 按 BOM 把 UTF-16 文本转为 UTF-8, 无 BOM 时按 UTF-8 处理
func decodeText(data []byte) []byte {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return data
	}
	return out
}
