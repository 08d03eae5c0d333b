package browsersdk

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/trickstertwo/xlog"
)

// Collector wires the tracker, correlator and detector on one Hub. It is the
// Facade for the correlation core: host integrations feed triggers and
// mutation/performance signals in, and consume interaction reports out.
type Collector struct {
	hub        *Hub
	tracker    *RequestTracker
	correlator *ActivityCorrelator
	detector   *InteractionDetector
	logger     *xlog.Logger
	clock      clock.Clock

	metrics *collectorMetrics

	mu        sync.Mutex
	subs      []*Subscription
	closed    atomic.Bool
	closeOnce sync.Once
}

// collectorMetrics uses lock-free atomics for telemetry counters.
type collectorMetrics struct {
	requestsStarted       atomic.Uint64
	requestsEnded         atomic.Uint64
	requestsRejected      atomic.Uint64
	interactionsExtended  atomic.Uint64
	interactionsIgnored   atomic.Uint64
	interactionsCompleted atomic.Uint64
}

// Metrics is observable telemetry for the collector.
type Metrics struct {
	RequestsStarted       uint64
	RequestsEnded         uint64
	RequestsRejected      uint64
	InteractionsExtended  uint64
	InteractionsIgnored   uint64
	InteractionsCompleted uint64
}

// Hub returns the collector's lifecycle multiplexer.
func (c *Collector) Hub() *Hub { return c.hub }

// Tracker returns the collector's request lifecycle tracker.
func (c *Collector) Tracker() *RequestTracker { return c.tracker }

// StartCollection installs request interception and attaches the correlator.
// Idempotent; duplicate installation is prevented, not treated as an error.
func (c *Collector) StartCollection() error {
	if c.closed.Load() {
		return ErrCollectorClosed
	}
	c.tracker.Start()
	c.correlator.Start()
	return nil
}

// HandleTrigger forwards a user input to the interaction detector.
func (c *Collector) HandleTrigger(t Trigger) error {
	if c.closed.Load() {
		return ErrCollectorClosed
	}
	c.detector.HandleTrigger(t)
	return nil
}

// RecordDomMutation publishes a DomMutated signal. Host mutation watchers are
// expected to rate-limit themselves.
func (c *Collector) RecordDomMutation() error {
	if c.closed.Load() {
		return ErrCollectorClosed
	}
	c.hub.Notify(LifecycleEvent{Kind: KindDomMutated})
	return nil
}

// RecordPerformanceEntry publishes a performance-timeline entry.
func (c *Collector) RecordPerformanceEntry(entry PerformanceEntry) error {
	if c.closed.Load() {
		return ErrCollectorClosed
	}
	c.hub.Notify(LifecycleEvent{Kind: KindPerformanceEntry, Entry: &entry})
	return nil
}

// CurrentInteractionID returns the live interaction id, if any.
func (c *Collector) CurrentInteractionID() (string, bool) {
	return c.detector.CurrentInteractionID()
}

// OnReport registers fn for terminal interaction reports only.
func (c *Collector) OnReport(fn func(*InteractionReport)) *Subscription {
	return c.hub.SubscribeKind(KindInteractionReport, func(e LifecycleEvent) {
		fn(e.Report)
	})
}

// AddObserver subscribes obs to every lifecycle event.
func (c *Collector) AddObserver(obs Observer) *Subscription {
	if obs == nil {
		return nil
	}
	sub := c.hub.Subscribe(obs.OnLifecycleEvent)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

// Client instruments an explicit HTTP client with request tracking.
func (c *Collector) Client(client *http.Client) {
	c.tracker.Client(client)
}

// GetMetrics returns current collector metrics.
func (c *Collector) GetMetrics() Metrics {
	return Metrics{
		RequestsStarted:       c.metrics.requestsStarted.Load(),
		RequestsEnded:         c.metrics.requestsEnded.Load(),
		RequestsRejected:      c.metrics.requestsRejected.Load(),
		InteractionsExtended:  c.metrics.interactionsExtended.Load(),
		InteractionsIgnored:   c.metrics.interactionsIgnored.Load(),
		InteractionsCompleted: c.metrics.interactionsCompleted.Load(),
	}
}

// Close detaches the correlator and all observer subscriptions. Idempotent.
// Instrumentation already installed on http.DefaultTransport stays in place;
// it publishes onto a hub nothing listens to anymore.
func (c *Collector) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.correlator.Stop()

		c.mu.Lock()
		subs := c.subs
		c.subs = nil
		c.mu.Unlock()
		for _, s := range subs {
			s.Unsubscribe()
		}
		c.logger.Debug().Msg("collector closed")
	})
	return nil
}

// observeMetrics counts lifecycle events. Attached once at build time.
func (c *Collector) observeMetrics(e LifecycleEvent) {
	switch e.Kind {
	case KindRequestStart:
		c.metrics.requestsStarted.Add(1)
	case KindRequestEnd:
		c.metrics.requestsEnded.Add(1)
		if e.Request.IsRejected() {
			c.metrics.requestsRejected.Add(1)
		}
	case KindInteractionUpdate:
		c.metrics.interactionsExtended.Add(1)
	case KindInteractionReport:
		switch e.Report.Name {
		case ReportIgnored:
			c.metrics.interactionsIgnored.Add(1)
		case ReportCompleted:
			c.metrics.interactionsCompleted.Add(1)
		}
	}
}
