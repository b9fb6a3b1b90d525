package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestRedaction_PerCallFields(t *testing.T) {
	l, buf := newBufferLogger(t, NewDefaultConfig())

	l.Info(context.Background(), "operator registered",
		zap.String("operator", "snakebot"),
		zap.String("Authentication", "7c1e"),
		zap.String("header", "Bearer abc.def"),
		zap.Any("token", map[string]string{"v": "x"}))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "snakebot", entry["operator"])
	assert.Equal(t, "[REDACTED]", entry["Authentication"])
	assert.Equal(t, "[REDACTED:pattern]", entry["header"])
	assert.Equal(t, "[REDACTED]", entry["token"])
}

func TestRedaction_WithFields(t *testing.T) {
	l, buf := newBufferLogger(t, NewDefaultConfig())

	child := &Logger{zap: l.Underlying().With(zap.String("secret", "hunter2"))}
	child.Info(context.Background(), "child")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "[REDACTED]", lines[0]["secret"])
}

func TestRedactedString(t *testing.T) {
	l, buf := newBufferLogger(t, NewDefaultConfig())
	l.Info(context.Background(), "registered", RedactedString("operator_token", "0123456789"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "[REDACTED:10]", lines[0]["operator_token"])
}

func TestRedaction_Disabled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Redaction.Enabled = false
	l, buf := newBufferLogger(t, cfg)
	l.Info(context.Background(), "plain", zap.String("token", "visible"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "visible", lines[0]["token"])
}

func TestTestLogger_AssertNoSecrets(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "registered", RedactedString("operator_token", "abc"))
	tl.AssertNoSecrets(t)

	tl.AssertLogged(t, zapcore.InfoLevel, "registered")
	tl.AssertField(t, "registered", "operator_token", "[REDACTED:3]")
	assert.Len(t, tl.All(), 1)
	assert.Equal(t, 1, tl.FilterMessage("registered").Len())
}
