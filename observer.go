package browsersdk

import (
	"github.com/trickstertwo/xlog"
)

// Observer receives lifecycle events from the collector's hub.
// Implementations should be non-blocking.
type Observer interface {
	OnLifecycleEvent(e LifecycleEvent)
}

// ObserverFunc is an Adapter that lets a plain function satisfy Observer.
type ObserverFunc func(e LifecycleEvent)

func (f ObserverFunc) OnLifecycleEvent(e LifecycleEvent) { f(e) }

// LoggingObserver is an Adapter that emits lifecycle events via xlog.
type LoggingObserver struct {
	Logger *xlog.Logger
}

func (o LoggingObserver) OnLifecycleEvent(e LifecycleEvent) {
	if o.Logger == nil {
		return
	}
	switch e.Kind {
	case KindRequestStart:
		o.Logger.Debug().
			Str("request_id", e.Request.RequestID).
			Str("method", e.Request.Method).
			Str("url", e.Request.URL).
			Msg("request start")
	case KindRequestEnd:
		ev := o.Logger.With(
			xlog.Str("request_id", e.Request.RequestID),
			xlog.Str("url", e.Request.URL),
			xlog.Dur("duration", e.Request.Duration),
		)
		if e.Request.IsRejected() || e.Request.IsServerError() {
			ev.Warn().Str("response", e.Request.Response).Msg("request failed")
		} else {
			ev.Debug().Msg("request end")
		}
	case KindInteractionUpdate:
		o.Logger.Debug().
			Str("interaction_id", e.Report.InteractionID).
			Str("reason", e.Report.Context.Reason).
			Dur("elapsed", e.Report.Duration).
			Msg("interaction extended")
	case KindInteractionReport:
		o.Logger.Info().
			Str("interaction_id", e.Report.InteractionID).
			Str("name", e.Report.Name).
			Dur("duration", e.Report.Duration).
			Msg("interaction report")
	default:
		o.Logger.Debug().Str("kind", string(e.Kind)).Msg("lifecycle event")
	}
}
