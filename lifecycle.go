package browsersdk

import (
	"github.com/trickstertwo/xlog"
)

// Kind enumerates the closed set of event kinds carried by the Hub.
type Kind string

const (
	KindRequestStart      Kind = "request_start"
	KindRequestEnd        Kind = "request_end"
	KindDomMutated        Kind = "dom_mutated"
	KindPerformanceEntry  Kind = "performance_entry"
	KindInteractionUpdate Kind = "interaction_update"
	KindInteractionReport Kind = "interaction_report"
)

// LifecycleEvent is the tagged union traveling the Hub. The payload field
// matching Kind is set; the others are nil. DomMutated carries no payload.
type LifecycleEvent struct {
	Kind    Kind               `json:"kind"`
	Request *RequestDetails    `json:"request,omitempty"`
	Entry   *PerformanceEntry  `json:"entry,omitempty"`
	Report  *InteractionReport `json:"report,omitempty"`
}

// Hub is the single multiplexer decoupling signal producers from the
// correlation engine and downstream consumers. It is scoped per logical
// page/session; producers must not assume any consumer exists.
type Hub struct {
	bus         *Bus[LifecycleEvent]
	logger      *xlog.Logger
	middlewares []Middleware
}

// NewHub creates a hub. Handlers registered on it are wrapped with recovery
// plus any configured middlewares.
func NewHub(logger *xlog.Logger, mws ...Middleware) *Hub {
	if logger == nil {
		logger = xlog.Default()
	}
	return &Hub{
		bus:         NewBus[LifecycleEvent](),
		logger:      logger,
		middlewares: mws,
	}
}

// Notify publishes e to the subscribers of its kind, synchronously.
func (h *Hub) Notify(e LifecycleEvent) {
	h.bus.Notify(e)
}

// Subscribe registers handler for every event kind.
func (h *Hub) Subscribe(handler Handler) *Subscription {
	wh := h.wrap(handler)
	return h.bus.Subscribe(func(e LifecycleEvent) { wh(e) })
}

// SubscribeKind registers handler for events of kind k only. Events of other
// kinds are not delivered to it.
func (h *Hub) SubscribeKind(k Kind, handler Handler) *Subscription {
	wh := h.wrap(handler)
	return h.bus.Subscribe(func(e LifecycleEvent) {
		if e.Kind != k {
			return
		}
		wh(e)
	})
}

func (h *Hub) wrap(handler Handler) Handler {
	base := RecoveryMiddleware(h.logger)(handler)
	return Chain(base, h.middlewares...)
}
