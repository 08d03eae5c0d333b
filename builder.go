package browsersdk

import (
	"net/url"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/trickstertwo/xlog"
)

// CollectorBuilder constructs Collector instances (Builder pattern).
type CollectorBuilder struct {
	origin      string
	traces      TraceProvider
	bodyLimit   int64
	busyDelay   time.Duration
	idleDelay   time.Duration
	overlap     OverlapPolicy
	observers   []Observer
	middlewares []Middleware
	logger      *xlog.Logger
	clock       clock.Clock
}

// NewCollectorBuilder returns a new builder with sensible defaults.
func NewCollectorBuilder() *CollectorBuilder {
	return &CollectorBuilder{
		busyDelay: DefaultBusyDelay,
		idleDelay: DefaultIdleDelay,
		bodyLimit: DefaultBodyLimit,
	}
}

// WithOrigin sets the document origin request URLs are resolved against.
func (cb *CollectorBuilder) WithOrigin(origin string) *CollectorBuilder {
	cb.origin = origin
	return cb
}

// WithTraceProvider sets the optional cross-system correlation probe.
func (cb *CollectorBuilder) WithTraceProvider(p TraceProvider) *CollectorBuilder {
	cb.traces = p
	return cb
}

// WithBodyLimit caps response body capture.
func (cb *CollectorBuilder) WithBodyLimit(n int64) *CollectorBuilder {
	if n > 0 {
		cb.bodyLimit = n
	}
	return cb
}

// WithBusyDelay sets the validation timeout.
func (cb *CollectorBuilder) WithBusyDelay(d time.Duration) *CollectorBuilder {
	cb.busyDelay = d
	return cb
}

// WithIdleDelay sets the idle timeout.
func (cb *CollectorBuilder) WithIdleDelay(d time.Duration) *CollectorBuilder {
	cb.idleDelay = d
	return cb
}

// WithOverlapPolicy selects the behavior for triggers arriving while an
// interaction is still open.
func (cb *CollectorBuilder) WithOverlapPolicy(p OverlapPolicy) *CollectorBuilder {
	cb.overlap = p
	return cb
}

// WithObserver attaches observers for lifecycle events.
func (cb *CollectorBuilder) WithObserver(obs ...Observer) *CollectorBuilder {
	for _, o := range obs {
		if o != nil {
			cb.observers = append(cb.observers, o)
		}
	}
	return cb
}

// WithMiddleware adds processing middlewares around hub handlers.
func (cb *CollectorBuilder) WithMiddleware(mw ...Middleware) *CollectorBuilder {
	if len(mw) == 0 {
		return cb
	}
	cb.middlewares = append(cb.middlewares, mw...)
	return cb
}

// WithLogger injects a custom xlog logger.
func (cb *CollectorBuilder) WithLogger(l *xlog.Logger) *CollectorBuilder {
	cb.logger = l
	return cb
}

// WithClock injects a custom clock (timers included).
func (cb *CollectorBuilder) WithClock(c clock.Clock) *CollectorBuilder {
	cb.clock = c
	return cb
}

// Build assembles the collector.
func (cb *CollectorBuilder) Build() (*Collector, error) {
	if cb.busyDelay < 0 || cb.idleDelay < 0 {
		return nil, ErrInvalidDelay
	}

	var origin *url.URL
	if cb.origin != "" {
		u, err := url.Parse(cb.origin)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return nil, ErrInvalidOrigin
		}
		origin = u
	}

	clk := cb.clock
	if clk == nil {
		clk = clock.New()
	}
	logger := cb.logger
	if logger == nil {
		logger = xlog.Default()
	}

	hub := NewHub(logger, cb.middlewares...)
	tracker := NewRequestTracker(hub, TrackerConfig{
		Origin:    origin,
		Traces:    cb.traces,
		BodyLimit: cb.bodyLimit,
		Clock:     clk,
		Logger:    logger,
	})
	correlator := NewActivityCorrelator(hub, logger)
	detector, err := NewInteractionDetector(hub, correlator, DetectorConfig{
		BusyDelay: cb.busyDelay,
		IdleDelay: cb.idleDelay,
		Overlap:   cb.overlap,
		Clock:     clk,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	c := &Collector{
		hub:        hub,
		tracker:    tracker,
		correlator: correlator,
		detector:   detector,
		logger:     logger,
		clock:      clk,
		metrics:    &collectorMetrics{},
	}
	c.subs = append(c.subs, hub.Subscribe(c.observeMetrics))

	// Attach a logging observer first for dependable telemetry unless one was
	// supplied externally.
	hasLoggingObserver := false
	for _, o := range cb.observers {
		if _, ok := o.(LoggingObserver); ok {
			hasLoggingObserver = true
			break
		}
	}
	if !hasLoggingObserver {
		c.AddObserver(LoggingObserver{Logger: logger})
	}
	for _, o := range cb.observers {
		c.AddObserver(o)
	}

	return c, nil
}

// New constructs a Collector via Builder and returns a close func for
// convenience.
func New(init func(b *CollectorBuilder)) (*Collector, func() error, error) {
	b := NewCollectorBuilder()
	if init != nil {
		init(b)
	}
	c, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}
