// Package logging 配置全局 slog: 终端输出文本, 否则输出 JSON.
// LOG_FORMAT (text/json) 和 LOG_LEVEL (debug/info/warn/error) 可覆盖默认值.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	gormlogger "gorm.io/gorm/logger"
)

func New() *slog.Logger {
	useText := useTextFormat(os.Getenv("LOG_FORMAT"), isatty.IsTerminal(os.Stdout.Fd()))
	return NewWithWriter(os.Stdout, useText, ParseLevel(os.Getenv("LOG_LEVEL")))
}

func NewWithWriter(w io.Writer, text bool, level slog.Level) *slog.Logger {
	wd, _ := os.Getwd()
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key != slog.SourceKey {
				return a
			}
			// 源码路径改为相对路径
			if src, ok := a.Value.Any().(*slog.Source); ok {
				if rel, err := filepath.Rel(wd, src.File); err == nil {
					src.File = rel
				} else {
					src.File = filepath.Base(src.File)
				}
			}
			return a
		},
	}
	if text {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func useTextFormat(format string, tty bool) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		return true
	case "json":
		return false
	}
	return tty
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GormLevel 让 gorm 的 SQL 日志跟随 LOG_LEVEL, 只有 debug 时打印每条 SQL
func GormLevel(level slog.Level) gormlogger.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return gormlogger.Info
	case level <= slog.LevelWarn:
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

// SetDefault 创建 logger 并设为 slog 默认 logger
func SetDefault() *slog.Logger {
	logger := New()
	slog.SetDefault(logger)
	return logger
}
