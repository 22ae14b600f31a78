package gpio

import (
	"fmt"

	"github.com/nerrad567/pico-link/internal/infrastructure/config"
)

// Input is a pull-up digital input.
type Input interface {
	// Read returns true while the pin is high (button released).
	Read() bool
}

// Output is a push-pull digital output.
type Output interface {
	// Set drives the pin high (true) or low (false).
	Set(on bool) error

	// Get reads the current level back.
	Get() bool
}

// Driver hands out pins by name (e.g. "GPIO21").
type Driver interface {
	Input(name string) (Input, error)
	Output(name string, initial bool) (Output, error)
}

// NewDriver returns the driver selected in config.
//
// Parameters:
//   - name: config.DriverPeriph or config.DriverSim
//
// Returns:
//   - Driver: Ready to hand out pins
//   - error: ErrUnknownDriver, or ErrHostInit (wrapped) if periph cannot
//     load its host drivers
func NewDriver(name string) (Driver, error) {
	switch name {
	case config.DriverPeriph:
		p, err := NewPeriph()
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.DriverSim:
		return NewSim(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
	}
}
