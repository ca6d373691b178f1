package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestNewTraceContext_UsesHeaders(t *testing.T) {
	tc := NewTraceContext("req-1", "trace-1", trace.SpanContext{})

	assert.Equal(t, "req-1", tc.RequestID)
	assert.Equal(t, "trace-1", tc.TraceID)
	assert.Len(t, tc.SpanID, 16)
}

func TestNewTraceContext_GeneratesMissingIDs(t *testing.T) {
	tc := NewTraceContext("", "", trace.SpanContext{})

	assert.NotEmpty(t, tc.RequestID)
	assert.NotEmpty(t, tc.TraceID)
	assert.NotEqual(t, tc.RequestID, tc.TraceID)
}

func TestNewTraceContext_PrefersSpanContext(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	require.True(t, sc.IsValid())

	tc := NewTraceContext("req-1", "ignored", sc)
	assert.Equal(t, sc.TraceID().String(), tc.TraceID)
	assert.Equal(t, sc.SpanID().String(), tc.SpanID)
}

func TestGetRequestID(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))

	ctx := WithTrace(context.Background(), &TraceContext{RequestID: "req-9"})
	assert.Equal(t, "req-9", GetRequestID(ctx))
	assert.Equal(t, "req-9", GetTrace(ctx).RequestID)
}
