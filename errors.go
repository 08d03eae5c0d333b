package browsersdk

import "errors"

var (
	// ErrInvalidDelay is returned when a detection delay is negative.
	ErrInvalidDelay = errors.New("browsersdk: detection delays must not be negative")
	// ErrInvalidOrigin is returned when the configured document origin is not
	// an absolute URL.
	ErrInvalidOrigin = errors.New("browsersdk: document origin must be an absolute URL")
	// ErrCollectorClosed is returned by operations on a closed collector.
	ErrCollectorClosed = errors.New("browsersdk: collector is closed")
)
