package browsersdk

import "net/http"

// API represents the complete collector surface for extensibility.
type API interface {
	StartCollection() error
	HandleTrigger(t Trigger) error
	RecordDomMutation() error
	RecordPerformanceEntry(entry PerformanceEntry) error
	CurrentInteractionID() (string, bool)
	OnReport(fn func(*InteractionReport)) *Subscription
	AddObserver(obs Observer) *Subscription
	Client(c *http.Client)
	GetMetrics() Metrics
	Close() error
}

var _ API = (*Collector)(nil)
