package sensor

import "errors"

// Domain errors for the sensor endpoint.
var (
	// ErrRecoveryFailed is returned by Poll and Run when the session could
	// not be rebuilt after a failed publish.
	ErrRecoveryFailed = errors.New("sensor: session recovery failed")

	// ErrNoButtons is returned by New when no button is configured.
	ErrNoButtons = errors.New("sensor: no buttons configured")
)
