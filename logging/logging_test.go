package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestUseTextFormat(t *testing.T) {
	assert.True(t, useTextFormat("text", false))
	assert.False(t, useTextFormat("json", true))
	assert.True(t, useTextFormat("", true))
	assert.False(t, useTextFormat("", false))
}

func TestJSONOutputHasRelativeSource(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("analysis done", "doc_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "analysis done", entry["msg"])
	assert.Equal(t, "abc", entry["doc_id"])

	src, ok := entry["source"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "logging_test.go", src["file"])
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLevel(slog.LevelDebug))
	assert.Equal(t, gormlogger.Warn, GormLevel(slog.LevelInfo))
	assert.Equal(t, gormlogger.Error, GormLevel(slog.LevelError))
}
