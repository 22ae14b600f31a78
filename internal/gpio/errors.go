package gpio

import "errors"

// Domain errors for the gpio package.
var (
	// ErrUnknownDriver is returned by NewDriver for an unsupported name.
	ErrUnknownDriver = errors.New("gpio: unknown driver")

	// ErrUnknownPin is returned when a pin name does not resolve.
	ErrUnknownPin = errors.New("gpio: unknown pin")

	// ErrHostInit is returned when the host drivers fail to load.
	ErrHostInit = errors.New("gpio: host init failed")

	// ErrPinSetup is returned when a pin cannot be put into the requested mode.
	ErrPinSetup = errors.New("gpio: pin setup failed")
)
