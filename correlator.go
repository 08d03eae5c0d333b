package browsersdk

import (
	"sync"

	"github.com/trickstertwo/xlog"
)

// Activity reasons published by the correlator.
const (
	ReasonDomMutation   = "dom mutation"
	ReasonResourceEntry = "resource entry"
	ReasonRequestStart  = "request start"
	ReasonRequestEnd    = "request end"
)

// Activity is the coarse busy/idle signal emitted each time any tracked
// activity occurs. Busy means at least one request was outstanding at the
// moment of the signal.
type Activity struct {
	Busy    bool
	Reason  string
	Details []string
}

// ActivityCorrelator folds DOM mutation, resource performance-entry and
// request lifecycle events into a single activity stream. It owns the
// pending-request set and holds no timers; timing policy lives in the
// InteractionDetector.
type ActivityCorrelator struct {
	hub    *Hub
	logger *xlog.Logger
	out    *Bus[Activity]

	mu      sync.Mutex
	pending map[string]string // request id -> url
	subs    []*Subscription
}

// NewActivityCorrelator creates a detached correlator. Call Start to attach
// it to the hub.
func NewActivityCorrelator(hub *Hub, logger *xlog.Logger) *ActivityCorrelator {
	if logger == nil {
		logger = xlog.Default()
	}
	return &ActivityCorrelator{
		hub:     hub,
		logger:  logger,
		out:     NewBus[Activity](),
		pending: make(map[string]string),
	}
}

// Start attaches the correlator to the hub. Idempotent.
func (c *ActivityCorrelator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subs) > 0 {
		return
	}
	c.subs = []*Subscription{
		c.hub.SubscribeKind(KindDomMutated, c.onDomMutated),
		c.hub.SubscribeKind(KindPerformanceEntry, c.onPerformanceEntry),
		c.hub.SubscribeKind(KindRequestStart, c.onRequestStart),
		c.hub.SubscribeKind(KindRequestEnd, c.onRequestEnd),
	}
}

// Stop detaches the correlator from the hub.
func (c *ActivityCorrelator) Stop() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
}

// Subscribe registers fn on the correlator's activity stream.
func (c *ActivityCorrelator) Subscribe(fn func(Activity)) *Subscription {
	return c.out.Subscribe(fn)
}

// Pending returns the number of outstanding requests.
func (c *ActivityCorrelator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *ActivityCorrelator) onDomMutated(LifecycleEvent) {
	c.emit(ReasonDomMutation)
}

func (c *ActivityCorrelator) onPerformanceEntry(e LifecycleEvent) {
	entry := e.Entry
	if entry == nil || entry.EntryType != EntryTypeResource {
		return
	}
	c.emit(ReasonResourceEntry, entry.InitiatorType, entry.Name)
}

func (c *ActivityCorrelator) onRequestStart(e LifecycleEvent) {
	req := e.Request
	if req == nil {
		return
	}
	c.mu.Lock()
	c.pending[req.RequestID] = req.URL
	busy := len(c.pending) > 0
	c.mu.Unlock()
	c.out.Notify(Activity{Busy: busy, Reason: ReasonRequestStart, Details: []string{req.URL}})
}

// onRequestEnd removes the id if tracked. An end for an id that started before
// the correlator attached is not reported as activity.
func (c *ActivityCorrelator) onRequestEnd(e LifecycleEvent) {
	req := e.Request
	if req == nil {
		return
	}
	c.mu.Lock()
	url, tracked := c.pending[req.RequestID]
	if tracked {
		delete(c.pending, req.RequestID)
	}
	busy := len(c.pending) > 0
	c.mu.Unlock()

	if !tracked {
		c.logger.Debug().Str("request_id", req.RequestID).Msg("untracked request end")
		return
	}
	c.out.Notify(Activity{Busy: busy, Reason: ReasonRequestEnd, Details: []string{url}})
}

func (c *ActivityCorrelator) emit(reason string, details ...string) {
	c.mu.Lock()
	busy := len(c.pending) > 0
	c.mu.Unlock()
	c.out.Notify(Activity{Busy: busy, Reason: reason, Details: details})
}
