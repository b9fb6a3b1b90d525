package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferLogger(t *testing.T, cfg *Config) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := newLogger(cfg, zapcore.AddSync(&buf), nil)
	require.NoError(t, err)
	return l, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"
	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestNewLogger_OTELWithoutProvider(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output = OutputConfig{OTEL: true}
	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
}

func TestLogger_ContextFields(t *testing.T) {
	l, buf := newBufferLogger(t, NewDefaultConfig())

	ctx := WithSessionID(context.Background(), "3f2a-game")
	ctx = WithTurn(ctx, 4, "robot")
	l.Info(ctx, "dice read", zap.Int("value", 5))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "dice read", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "3f2a-game", entry["session.id"])
	assert.Equal(t, float64(4), entry["turn.number"])
	assert.Equal(t, "robot", entry["turn.actor"])
	assert.Equal(t, float64(5), entry["value"])
	assert.Equal(t, "snakebot", entry["service"])
}

func TestLogger_Levels(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Level = zapcore.WarnLevel
	l, buf := newBufferLogger(t, cfg)
	ctx := context.Background()

	l.Trace(ctx, "trace")
	l.Debug(ctx, "debug")
	l.Info(ctx, "info")
	l.Warn(ctx, "warn")
	l.Error(ctx, "error")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "warn", lines[0]["msg"])
	assert.Equal(t, "error", lines[1]["msg"])
	assert.False(t, l.Enabled(zapcore.InfoLevel))
	assert.True(t, l.Enabled(zapcore.ErrorLevel))
}

func TestLogger_TraceLevel(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Level = TraceLevel
	l, buf := newBufferLogger(t, cfg)

	l.Trace(context.Background(), "robot request", zap.String("path", "/tcp/target"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "Level(-2)", lines[0]["level"])
}

func TestLogger_Named(t *testing.T) {
	l, buf := newBufferLogger(t, NewDefaultConfig())
	l.Named("game").Info(context.Background(), "turn started")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "game", lines[0]["logger"])
}

func TestLogger_SamplingKeepsErrors(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Sampling.Initial = 2
	cfg.Sampling.Thereafter = 0
	cfg.Caller = false
	l, buf := newBufferLogger(t, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.Info(ctx, "poll")
		l.Error(ctx, "move failed")
	}

	var polls, failures int
	for _, e := range decodeLines(t, buf) {
		switch e["msg"] {
		case "poll":
			polls++
		case "move failed":
			failures++
		}
	}
	assert.Equal(t, 2, polls)
	assert.Equal(t, 5, failures)
}

func TestLogger_Underlying(t *testing.T) {
	l, buf := newBufferLogger(t, NewDefaultConfig())
	l.Underlying().Info("plain", zap.String("operator_token", "abc"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "[REDACTED]", lines[0]["operator_token"])
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error(context.Background(), "dropped")
	assert.False(t, l.Enabled(zapcore.ErrorLevel))
}

func TestNewLogger_OTELBridge(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output = OutputConfig{OTEL: true}
	l, err := NewLogger(cfg, noop.NewLoggerProvider())
	require.NoError(t, err)
	assert.NotPanics(t, func() { l.Info(context.Background(), "bridged") })
}
