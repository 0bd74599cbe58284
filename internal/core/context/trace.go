package context

import (
	"context"
)

// TraceContext carries per-request correlation identifiers. The trace
// middleware populates it from inbound headers or generates fresh IDs.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// WithTrace attaches trace information to the context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns the trace information, or nil outside a request.
func GetTrace(ctx context.Context) *TraceContext {
	v, _ := ctx.Value(traceContextKey{}).(*TraceContext)
	return v
}

// GetRequestID returns the request ID, or the empty string outside a request.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}
