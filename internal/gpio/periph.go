package gpio

import (
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Periph drives real pins through periph.io.
type Periph struct{}

// NewPeriph loads the periph.io host drivers.
func NewPeriph() (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHostInit, err)
	}
	return &Periph{}, nil
}

// Input configures name as a pull-up input without edge detection; the
// endpoints poll levels themselves.
func (p *Periph) Input(name string) (Input, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPin, name)
	}
	if err := pin.In(pgpio.PullUp, pgpio.NoEdge); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPinSetup, name, err)
	}
	return periphInput{pin: pin}, nil
}

// Output configures name as an output driven to initial.
func (p *Periph) Output(name string, initial bool) (Output, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPin, name)
	}
	if err := pin.Out(pgpio.Level(initial)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPinSetup, name, err)
	}
	return &periphOutput{pin: pin}, nil
}

type periphInput struct {
	pin pgpio.PinIO
}

func (i periphInput) Read() bool {
	return i.pin.Read() == pgpio.High
}

type periphOutput struct {
	pin pgpio.PinIO
}

func (o *periphOutput) Set(on bool) error {
	if err := o.pin.Out(pgpio.Level(on)); err != nil {
		return fmt.Errorf("gpio: driving %s: %w", o.pin.Name(), err)
	}
	return nil
}

func (o *periphOutput) Get() bool {
	return o.pin.Read() == pgpio.High
}
