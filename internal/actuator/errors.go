package actuator

import "errors"

// Domain errors for the actuator endpoint.
var (
	// ErrLEDWrite is returned by HandleMessage when the LED cannot be driven.
	ErrLEDWrite = errors.New("actuator: LED write failed")
)
