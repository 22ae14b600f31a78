package gpio

import (
	"sync"
)

// Sim is an in-memory driver. Inputs idle high like a released pull-up
// button; Drive changes them. Asking twice for the same name returns the
// same pin.
type Sim struct {
	mu      sync.Mutex
	inputs  map[string]*SimPin
	outputs map[string]*SimPin
}

// NewSim returns an empty simulated driver.
func NewSim() *Sim {
	return &Sim{
		inputs:  make(map[string]*SimPin),
		outputs: make(map[string]*SimPin),
	}
}

// SimPin is one simulated pin.
type SimPin struct {
	mu     sync.Mutex
	level  bool
	writes int
}

// Input implements Driver.
func (s *Sim) Input(name string) (Input, error) {
	return s.InputPin(name), nil
}

// InputPin returns the simulated input for name, creating it high.
func (s *Sim) InputPin(name string) *SimPin {
	s.mu.Lock()
	defer s.mu.Unlock()
	pin, ok := s.inputs[name]
	if !ok {
		pin = &SimPin{level: true}
		s.inputs[name] = pin
	}
	return pin
}

// Output implements Driver.
func (s *Sim) Output(name string, initial bool) (Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pin, ok := s.outputs[name]
	if !ok {
		pin = &SimPin{}
		s.outputs[name] = pin
	}
	pin.mu.Lock()
	pin.level = initial
	pin.mu.Unlock()
	return pin, nil
}

// Drive sets the level of a simulated input: false presses a button.
func (p *SimPin) Drive(level bool) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}

// Read implements Input.
func (p *SimPin) Read() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Set implements Output.
func (p *SimPin) Set(on bool) error {
	p.mu.Lock()
	p.level = on
	p.writes++
	p.mu.Unlock()
	return nil
}

// Get implements Output.
func (p *SimPin) Get() bool {
	return p.Read()
}

// Writes returns how many times Set was called.
func (p *SimPin) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}
