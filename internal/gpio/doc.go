// Package gpio provides the digital pins used by the endpoints.
//
// Two drivers are available:
//   - "periph": real hardware through periph.io (Raspberry Pi and other
//     boards periph.io/x/host supports)
//   - "sim": in-memory pins for workstations and tests
//
// Inputs are configured pull-up, so an idle button reads high and a press
// reads low. Outputs are push-pull and can be read back.
package gpio
