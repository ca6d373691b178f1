package context

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceContext contains request tracing information.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// NewTraceContext builds the ids for one inbound request.
// A valid span context supplies trace and span ids; otherwise traceID (from
// the caller's header) is used, and a random id when that is empty too.
// An empty requestID is generated.
func NewTraceContext(requestID, traceID string, sc trace.SpanContext) *TraceContext {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	tc := &TraceContext{RequestID: requestID}
	if sc.IsValid() {
		tc.TraceID = sc.TraceID().String()
		tc.SpanID = sc.SpanID().String()
		return tc
	}

	tc.TraceID = traceID
	if tc.TraceID == "" {
		tc.TraceID = uuid.New().String()
	}
	tc.SpanID = uuid.New().String()[:16]
	return tc
}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}
