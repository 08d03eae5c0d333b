package browsersdk

import (
	"net/http"
	"sync"
	"time"
)

// eventRecorder captures lifecycle events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []LifecycleEvent
}

func (r *eventRecorder) record(e LifecycleEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *eventRecorder) list() []LifecycleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LifecycleEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *eventRecorder) ofKind(k Kind) []LifecycleEvent {
	var out []LifecycleEvent
	for _, e := range r.list() {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// reports returns extended observations and terminal reports, in order.
func (r *eventRecorder) reports() []*InteractionReport {
	var out []*InteractionReport
	for _, e := range r.list() {
		if e.Kind == KindInteractionUpdate || e.Kind == KindInteractionReport {
			out = append(out, e.Report)
		}
	}
	return out
}

func (r *eventRecorder) terminals() []*InteractionReport {
	var out []*InteractionReport
	for _, rep := range r.reports() {
		if rep.Terminal() {
			out = append(out, rep)
		}
	}
	return out
}

// waitUntil polls cond until it holds or timeout elapses. Timer callbacks run
// on their own goroutines, so assertions that depend on a timer firing poll.
func waitUntil(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
