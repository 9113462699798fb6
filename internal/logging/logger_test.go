package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithOutput(&buf), WithLevel(LevelDebug))

	logger.Info("request completed", "status", 200, "path", "/github/webhook")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "github-bot", entry["service"])
	assert.Equal(t, "request completed", entry["message"])

	fields, ok := entry["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(200), fields["status"])
	assert.Equal(t, "/github/webhook", fields["path"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithOutput(&buf), WithLevel(LevelWarn))

	logger.Debug("should be dropped")
	logger.Info("should be dropped too")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestLoggerCorrelationIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithOutput(&buf))

	ctx := WithCorrelationID(context.Background(), "abc-123")
	logger.InfoWithContext(ctx, "hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc-123", entry["correlation_id"])
}

func TestGenerateCorrelationID(t *testing.T) {
	a := GenerateCorrelationID()
	b := GenerateCorrelationID()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}
