package browsersdk

import "time"

// Report names. An interaction publishes zero or more "extended" observations
// followed by exactly one terminal report, either "ignored" or "completed".
const (
	ReportIgnored   = "ignored"
	ReportExtended  = "extended"
	ReportCompleted = "completed"
)

// InteractionContext carries trigger and activity metadata on a report.
type InteractionContext struct {
	Element string   `json:"element,omitempty"`
	Content string   `json:"content,omitempty"`
	Reason  string   `json:"reason,omitempty"`
	Details []string `json:"details,omitempty"`
}

// InteractionReport describes an interaction outcome or, for "extended", an
// in-flight observation. Duration is the elapsed time since the trigger; it is
// absent (zero) on "ignored" reports.
type InteractionReport struct {
	Name          string             `json:"name"`
	InteractionID string             `json:"interactionId"`
	StartTime     time.Time          `json:"startTime"`
	Duration      time.Duration      `json:"duration,omitempty"`
	Context       InteractionContext `json:"context"`
}

// Terminal reports whether r is the final report for its interaction id.
func (r *InteractionReport) Terminal() bool {
	return r.Name != ReportExtended
}
