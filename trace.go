package browsersdk

import "context"

// TraceProvider is an optional capability for cross-system trace correlation.
// The tracker probes it once per request. A missing provider, or a provider
// with no active trace, is a normal silent case, not an error.
type TraceProvider interface {
	ActiveTraceID() (string, bool)
}

// TraceProviderFunc adapts a plain function to TraceProvider.
type TraceProviderFunc func() (string, bool)

func (f TraceProviderFunc) ActiveTraceID() (string, bool) { return f() }

// ctxKey is the base for all context keys in browsersdk (prevents collisions).
type ctxKey string

const traceCtxKey ctxKey = "browsersdk:trace"

// ContextWithTraceID attaches a correlation id to ctx for a single request.
// A per-request id takes precedence over the configured TraceProvider.
func ContextWithTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, traceCtxKey, id)
}

// TraceIDFromContext retrieves a correlation id previously attached to ctx.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	if v := ctx.Value(traceCtxKey); v != nil {
		if id, ok := v.(string); ok && id != "" {
			return id, true
		}
	}
	return "", false
}
