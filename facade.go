package browsersdk

import (
	"fmt"
	"sync"
)

var (
	defaultCollector   *Collector
	defaultCollectorMu sync.Mutex
)

// Default returns the process-wide singleton Collector, building one with
// defaults on first use.
func Default() *Collector {
	defaultCollectorMu.Lock()
	defer defaultCollectorMu.Unlock()

	if defaultCollector != nil {
		return defaultCollector
	}
	c, err := NewCollectorBuilder().Build()
	if err != nil {
		panic(fmt.Sprintf("browsersdk: failed to initialize default collector: %v", err))
	}
	defaultCollector = c
	return defaultCollector
}

// SetDefault replaces the process-wide default Collector.
func SetDefault(c *Collector) {
	if c == nil {
		panic("browsersdk: SetDefault called with nil Collector")
	}
	defaultCollectorMu.Lock()
	defaultCollector = c
	defaultCollectorMu.Unlock()
}

// StartCollection is the Facade using the default collector.
func StartCollection() error {
	return Default().StartCollection()
}

// HandleTrigger is the Facade using the default collector.
func HandleTrigger(t Trigger) error {
	return Default().HandleTrigger(t)
}

// CurrentInteractionID is the Facade using the default collector.
func CurrentInteractionID() (string, bool) {
	return Default().CurrentInteractionID()
}

// OnReport is the Facade using the default collector.
func OnReport(fn func(*InteractionReport)) *Subscription {
	return Default().OnReport(fn)
}
