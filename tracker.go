package browsersdk

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/trickstertwo/xlog"
)

// DefaultBodyLimit bounds response body capture per request.
const DefaultBodyLimit = 16 << 10

// TrackerConfig controls request lifecycle tracking.
type TrackerConfig struct {
	// Origin is the document origin request URLs are resolved against. May be
	// nil, in which case URLs are published as-is.
	Origin *url.URL
	// Traces is the optional cross-system correlation probe.
	Traces TraceProvider
	// BodyLimit caps response body capture (default: DefaultBodyLimit).
	BodyLimit int64
	Clock     clock.Clock
	Logger    *xlog.Logger
}

// RequestTracker wraps the process HTTP entry points and publishes exactly one
// RequestStart and one terminal RequestEnd event per call on the Hub. The
// original call semantics, response and error included, are preserved
// unchanged for all callers.
type RequestTracker struct {
	hub       *Hub
	clock     clock.Clock
	logger    *xlog.Logger
	origin    *url.URL
	traces    TraceProvider
	bodyLimit int64
	started   atomic.Bool
}

// NewRequestTracker creates a tracker publishing onto hub.
func NewRequestTracker(hub *Hub, cfg TrackerConfig) *RequestTracker {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = xlog.Default()
	}
	limit := cfg.BodyLimit
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	return &RequestTracker{
		hub:       hub,
		clock:     clk,
		logger:    logger,
		origin:    cfg.Origin,
		traces:    cfg.Traces,
		bodyLimit: limit,
	}
}

// Start installs instrumentation on http.DefaultTransport. It is idempotent;
// repeated calls install nothing further and are not an error.
func (t *RequestTracker) Start() {
	if t.started.Swap(true) {
		return
	}
	if tt, ok := http.DefaultTransport.(*trackedTransport); ok && tt.tracker == t {
		return
	}
	http.DefaultTransport = &trackedTransport{
		tracker: t,
		next:    http.DefaultTransport,
		typ:     RequestTypeTransport,
	}
	t.logger.Debug().Msg("request tracking installed")
}

// Client instruments c in place. Instrumenting an already instrumented client
// is a no-op.
func (t *RequestTracker) Client(c *http.Client) {
	if c == nil {
		return
	}
	next := c.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	if tt, ok := next.(*trackedTransport); ok && tt.tracker == t {
		return
	}
	c.Transport = &trackedTransport{tracker: t, next: next, typ: RequestTypeClient}
}

// RoundTripper decorates next with request lifecycle tracking. A nil next
// falls back to http.DefaultTransport.
func (t *RequestTracker) RoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &trackedTransport{tracker: t, next: next, typ: RequestTypeClient}
}

type trackedTransport struct {
	tracker *RequestTracker
	next    http.RoundTripper
	typ     string
}

var _ http.RoundTripper = (*trackedTransport)(nil)

// RoundTrip publishes the start event synchronously before dispatching the
// underlying call, and exactly one end event once it settles. Network-level
// failure is a business event (status 0), never swallowed: the caller receives
// the original response and error untouched.
func (tt *trackedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t := tt.tracker

	details := RequestDetails{
		RequestID: uuid.NewString(),
		Type:      tt.typ,
		Method:    req.Method,
		URL:       t.normalizeURL(req.URL),
		StartTime: t.clock.Now(),
	}
	if id, ok := t.traceID(req); ok {
		details.TraceID = id
	}

	start := details
	t.hub.Notify(LifecycleEvent{Kind: KindRequestStart, Request: &start})

	resp, err := tt.next.RoundTrip(req)

	end := details
	end.Duration = t.clock.Since(details.StartTime)
	end.ResponseType = t.responseType(req.URL)
	if err != nil {
		end.Status = 0
		end.Response = err.Error()
		t.hub.Notify(LifecycleEvent{Kind: KindRequestEnd, Request: &end})
		return resp, err
	}

	end.Status = resp.StatusCode
	if body, ok := t.captureBody(resp); ok {
		end.Response = body
	}
	t.hub.Notify(LifecycleEvent{Kind: KindRequestEnd, Request: &end})
	return resp, nil
}

// normalizeURL resolves u against the configured document origin.
func (t *RequestTracker) normalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	if t.origin != nil && !u.IsAbs() {
		return t.origin.ResolveReference(u).String()
	}
	return u.String()
}

// responseType classifies a response the way the browser fetch model does:
// same origin is "basic", anything else "cors". Opaque responses are marked by
// the host integration itself.
func (t *RequestTracker) responseType(u *url.URL) string {
	if t.origin == nil || u == nil || u.Host == "" || strings.EqualFold(u.Host, t.origin.Host) {
		return ResponseTypeBasic
	}
	return ResponseTypeCORS
}

func (t *RequestTracker) traceID(req *http.Request) (string, bool) {
	if id, ok := TraceIDFromContext(req.Context()); ok {
		return id, true
	}
	if t.traces != nil {
		if id, ok := t.traces.ActiveTraceID(); ok && id != "" {
			return id, true
		}
	}
	return "", false
}

// captureBody reads a bounded prefix of an error response body for reporting.
// Whatever was consumed is replayed, so the caller still sees the original
// stream. A read failure degrades to a placeholder description and never
// prevents the end event.
func (t *RequestTracker) captureBody(resp *http.Response) (string, bool) {
	if resp == nil || resp.Body == nil || resp.StatusCode < http.StatusBadRequest {
		return "", false
	}
	orig := resp.Body
	data, err := io.ReadAll(io.LimitReader(orig, t.bodyLimit))
	resp.Body = replayBody{
		Reader: io.MultiReader(bytes.NewReader(data), orig),
		Closer: orig,
	}
	if err != nil {
		return "unreadable response body: " + err.Error(), true
	}
	return string(data), true
}

type replayBody struct {
	io.Reader
	io.Closer
}
