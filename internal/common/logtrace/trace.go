package logtrace

import (
	"context"
)

type requestIdContextKey string

const requestIdKey = requestIdContextKey("requestId")

// WithRequestId stores the request id in the context for later retrieval.
func WithRequestId(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIdKey, id)
}

func RequestIdFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	r, ok := ctx.Value(requestIdKey).(string)
	if !ok {
		return ""
	}
	return r
}

// TODO - wire OpenTelemetry once the gateway exports trace headers
func IsTraceEnabled() bool {
	return false
}
