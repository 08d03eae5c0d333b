package browsersdk

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/trickstertwo/xlog"
)

// Default validation (busy) and idle intervals.
const (
	DefaultBusyDelay = 100 * time.Millisecond
	DefaultIdleDelay = 100 * time.Millisecond
)

// OverlapPolicy decides what happens when a trigger arrives while an
// interaction window is still open.
type OverlapPolicy int

const (
	// OverlapDiscard ignores the new trigger (the default).
	OverlapDiscard OverlapPolicy = iota
	// OverlapReplace terminates the open window with an "ignored" report,
	// then opens a new one.
	OverlapReplace
)

// Trigger is the user input that opens a correlation window.
type Trigger struct {
	// Name is the input kind, e.g. "click".
	Name string
	// Element is the target element, optional.
	Element *Element
}

// DetectorConfig controls interaction detection. Zero delays select the
// defaults; negative delays are rejected by NewInteractionDetector.
type DetectorConfig struct {
	BusyDelay time.Duration
	IdleDelay time.Duration
	Overlap   OverlapPolicy
	Clock     clock.Clock
	Logger    *xlog.Logger
}

// InteractionDetector is the per-interaction state machine. It owns two
// timers: a validation timer that terminates an interaction with no follow-on
// activity, and an idle timer that completes one once activity settles.
// Exactly one terminal report is published per interaction id, and it is
// always the last event published for that id.
type InteractionDetector struct {
	hub        *Hub
	correlator *ActivityCorrelator
	clock      clock.Clock
	logger     *xlog.Logger
	busyDelay  time.Duration
	idleDelay  time.Duration
	overlap    OverlapPolicy

	mu     sync.Mutex
	window *interactionWindow

	// current holds the live interaction id as a string, "" when none. It is
	// written only by the detector and read by external reporters.
	current atomic.Value
}

type interactionWindow struct {
	id          string
	trigger     string
	element     string
	content     string
	start       time.Time
	sub         *Subscription
	validation  *clock.Timer
	idle        *clock.Timer
	gotActivity bool
	terminal    bool
}

// NewInteractionDetector creates a detector publishing reports onto hub and
// consuming the correlator's activity stream.
func NewInteractionDetector(hub *Hub, correlator *ActivityCorrelator, cfg DetectorConfig) (*InteractionDetector, error) {
	if cfg.BusyDelay < 0 || cfg.IdleDelay < 0 {
		return nil, ErrInvalidDelay
	}
	if cfg.BusyDelay == 0 {
		cfg.BusyDelay = DefaultBusyDelay
	}
	if cfg.IdleDelay == 0 {
		cfg.IdleDelay = DefaultIdleDelay
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = xlog.Default()
	}
	d := &InteractionDetector{
		hub:        hub,
		correlator: correlator,
		clock:      clk,
		logger:     logger,
		busyDelay:  cfg.BusyDelay,
		idleDelay:  cfg.IdleDelay,
		overlap:    cfg.Overlap,
	}
	d.current.Store("")
	return d, nil
}

// CurrentInteractionID returns the live interaction id, if any. The id becomes
// visible only once at least one activity signal has arrived for the window,
// and is cleared on the terminal report.
func (d *InteractionDetector) CurrentInteractionID() (string, bool) {
	id, _ := d.current.Load().(string)
	return id, id != ""
}

// HandleTrigger opens a correlation window for the given user input and arms
// the validation timer. Behavior while another window is still open follows
// the configured OverlapPolicy.
func (d *InteractionDetector) HandleTrigger(t Trigger) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.window != nil && !d.window.terminal {
		if d.overlap == OverlapDiscard {
			d.logger.Debug().
				Str("trigger", t.Name).
				Str("interaction_id", d.window.id).
				Msg("trigger discarded: interaction still open")
			return
		}
		d.terminate(d.window, ReportIgnored, false)
	}

	w := &interactionWindow{
		id:      uuid.NewString(),
		trigger: t.Name,
		element: t.Element.Label(),
		content: ElementContent(t.Element, nil),
		start:   d.clock.Now(),
	}
	d.window = w
	w.sub = d.correlator.Subscribe(func(a Activity) { d.onActivity(w, a) })
	w.validation = d.clock.AfterFunc(d.busyDelay, func() { d.abort(w) })

	d.logger.Debug().
		Str("interaction_id", w.id).
		Str("trigger", w.trigger).
		Msg("interaction window opened")
}

// onActivity processes one activity signal for an open window: both timers are
// cancelled, an "extended" observation is published, the current id late-binds,
// and the idle timer is re-armed when no request is outstanding.
func (d *InteractionDetector) onActivity(w *interactionWindow, a Activity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w.terminal {
		return
	}

	w.stopTimers()
	w.gotActivity = true
	d.current.Store(w.id)

	report := &InteractionReport{
		Name:          ReportExtended,
		InteractionID: w.id,
		StartTime:     w.start,
		Duration:      d.clock.Since(w.start),
		Context: InteractionContext{
			Element: w.element,
			Content: w.content,
			Reason:  a.Reason,
			Details: a.Details,
		},
	}
	d.hub.Notify(LifecycleEvent{Kind: KindInteractionUpdate, Report: report})

	if !a.Busy {
		w.idle = d.clock.AfterFunc(d.idleDelay, func() { d.complete(w) })
	}
}

// abort fires when the validation timer expires with no activity observed.
func (d *InteractionDetector) abort(w *interactionWindow) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// The timer may lose the race against a concurrent activity signal.
	if w.terminal || w.gotActivity {
		return
	}
	d.terminate(w, ReportIgnored, false)
}

// complete fires when the idle timer expires uninterrupted.
func (d *InteractionDetector) complete(w *interactionWindow) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w.terminal {
		return
	}
	d.terminate(w, ReportCompleted, true)
}

// terminate finalizes w with its single terminal report. Caller holds d.mu.
func (d *InteractionDetector) terminate(w *interactionWindow, name string, withDuration bool) {
	w.terminal = true
	w.stopTimers()
	w.sub.Unsubscribe()
	if d.window == w {
		d.window = nil
	}
	d.current.CompareAndSwap(w.id, "")

	report := &InteractionReport{
		Name:          name,
		InteractionID: w.id,
		StartTime:     w.start,
		Context: InteractionContext{
			Element: w.element,
			Content: w.content,
		},
	}
	if withDuration {
		report.Duration = d.clock.Since(w.start)
	}
	d.hub.Notify(LifecycleEvent{Kind: KindInteractionReport, Report: report})

	d.logger.Debug().
		Str("interaction_id", w.id).
		Str("outcome", name).
		Dur("duration", report.Duration).
		Msg("interaction window closed")
}

// stopTimers cancels both timers so no stale firing can race a new arm.
func (w *interactionWindow) stopTimers() {
	if w.validation != nil {
		w.validation.Stop()
		w.validation = nil
	}
	if w.idle != nil {
		w.idle.Stop()
		w.idle = nil
	}
}
