package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestContextFields_All(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})

	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithSessionID(ctx, "game-1")
	ctx = WithTurn(ctx, 2, "player")
	ctx = WithRequestID(ctx, "req_9")

	keys := map[string]bool{}
	for _, f := range ContextFields(ctx) {
		keys[f.Key] = true
	}
	for _, k := range []string{"trace_id", "span_id", "trace_sampled", "session.id", "turn.number", "turn.actor", "request.id"} {
		assert.True(t, keys[k], "missing %s", k)
	}
}

func TestSessionID(t *testing.T) {
	ctx := WithSessionID(context.Background(), "0b8e6d0c-1f7a-4f3e-9c55-3e2f1d7b9a10")
	assert.Equal(t, "0b8e6d0c-1f7a-4f3e-9c55-3e2f1d7b9a10", SessionIDFromContext(ctx))
	assert.Empty(t, SessionIDFromContext(context.Background()))
}

func TestWithSessionID_Invalid(t *testing.T) {
	for _, id := range []string{"", "has space", "semi;colon", strings.Repeat("a", maxIDLen+1)} {
		assert.Panics(t, func() { WithSessionID(context.Background(), id) }, "id %q", id)
	}
}

func TestTurn(t *testing.T) {
	ctx := WithTurn(context.Background(), 7, "robot")
	turn, ok := TurnFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, Turn{Number: 7, Actor: "robot"}, turn)

	_, ok = TurnFromContext(context.Background())
	assert.False(t, ok)

	assert.Panics(t, func() { WithTurn(context.Background(), 0, "player") })
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", RequestIDFromContext(ctx))
	assert.Panics(t, func() { WithRequestID(context.Background(), "a/b") })
}
