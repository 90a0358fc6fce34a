package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	t.Run("stores and retrieves request ID", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-123")
		assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		assert.Equal(t, "", RequestIDFromContext(context.Background()))
	})
}

func TestCorrelationIDContext(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr-1")
	assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(ctx))
}

func TestTraceSpanContext(t *testing.T) {
	ctx := WithTraceSpan(context.Background(), "trace-1", "span-1")

	traceID, spanID := TraceSpanFromContext(ctx)
	assert.Equal(t, "trace-1", traceID)
	assert.Equal(t, "span-1", spanID)

	traceID, spanID = TraceSpanFromContext(context.Background())
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)
}

func TestContextOverwrite(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithRequestID(ctx, "req-2")

	assert.Equal(t, "req-2", RequestIDFromContext(ctx))
}

func TestLoggerFromContext(t *testing.T) {
	t.Run("adds identifiers present in context", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := WithRequestID(context.Background(), "req-9")
		ctx = WithCorrelationID(ctx, "corr-9")

		logger := LoggerFromContext(ctx, zerolog.New(&buf))
		logger.Info().Msg("x")

		entry := decodeEntry(t, &buf)
		assert.Equal(t, "req-9", entry["request_id"])
		assert.Equal(t, "corr-9", entry["correlation_id"])
		assert.NotContains(t, entry, "trace_id")
	})

	t.Run("empty context adds nothing", func(t *testing.T) {
		var buf bytes.Buffer
		logger := LoggerFromContext(context.Background(), zerolog.New(&buf))
		logger.Info().Msg("x")

		entry := decodeEntry(t, &buf)
		assert.NotContains(t, entry, "request_id")
	})
}
