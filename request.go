package browsersdk

import "time"

// Request mechanism labels published in RequestDetails.Type.
const (
	// RequestTypeTransport marks calls captured via the process default
	// transport installed by RequestTracker.Start.
	RequestTypeTransport = "transport"
	// RequestTypeClient marks calls captured via an explicitly instrumented
	// client or round tripper.
	RequestTypeClient = "client"
)

// Response type classifications, mirroring the browser fetch model. Opaque
// responses are cross-origin responses the host deliberately withholds; they
// always carry status 0 without being failures.
const (
	ResponseTypeBasic  = "basic"
	ResponseTypeCORS   = "cors"
	ResponseTypeOpaque = "opaque"
)

// RequestDetails describes one tracked network call. For a given RequestID
// exactly one start and one end event are ever published; the end event
// carries a fresh RequestDetails value referencing the same id.
type RequestDetails struct {
	RequestID    string        `json:"requestId"`
	Type         string        `json:"type"`
	Method       string        `json:"method"`
	URL          string        `json:"url"`
	StartTime    time.Time     `json:"startTime"`
	Duration     time.Duration `json:"duration"`
	Status       int           `json:"status,omitempty"`
	Response     string        `json:"response,omitempty"`
	ResponseType string        `json:"responseType,omitempty"`
	TraceID      string        `json:"traceId,omitempty"`
}

// IsRejected reports whether the finished request failed at the network level.
func (r *RequestDetails) IsRejected() bool {
	return r.Status == 0 && r.ResponseType != ResponseTypeOpaque
}

// IsServerError reports whether the request finished with a 5xx status.
func (r *RequestDetails) IsServerError() bool {
	return r.Status >= 500
}

// PerformanceEntry mirrors a host performance-timeline entry. Only entries of
// type EntryTypeResource are consulted by the correlator.
type PerformanceEntry struct {
	EntryType     string        `json:"entryType"`
	Name          string        `json:"name"`
	InitiatorType string        `json:"initiatorType,omitempty"`
	StartTime     time.Time     `json:"startTime"`
	Duration      time.Duration `json:"duration"`
}

// EntryTypeResource is the performance entry type describing a fetched
// resource.
const EntryTypeResource = "resource"
