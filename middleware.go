package browsersdk

import (
	"fmt"

	"github.com/trickstertwo/xlog"
)

// Handler processes a single lifecycle event.
type Handler func(e LifecycleEvent)

// Middleware composes processing concerns around a Handler.
type Middleware func(next Handler) Handler

// RecoveryMiddleware keeps a handler panic from escaping into the instrumented
// call path that published the event. The panic is logged and swallowed.
func RecoveryMiddleware(logger *xlog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(e LifecycleEvent) {
			defer func() {
				if r := recover(); r != nil {
					if logger != nil {
						logger.Warn().
							Str("kind", string(e.Kind)).
							Str("panic", fmt.Sprint(r)).
							Msg("lifecycle handler panic recovered")
					}
				}
			}()
			next(e)
		}
	}
}

// LoggingMiddleware emits a debug line per handled event.
func LoggingMiddleware(logger *xlog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(e LifecycleEvent) {
			if logger != nil {
				logger.Debug().Str("kind", string(e.Kind)).Msg("lifecycle event")
			}
			next(e)
		}
	}
}

// Chain composes middlewares around a handler in order.
func Chain(h Handler, mws ...Middleware) Handler {
	if len(mws) == 0 {
		return h
	}
	wrapped := h
	// Apply in reverse so that first middleware wraps last.
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		wrapped = mws[i](wrapped)
	}
	return wrapped
}
