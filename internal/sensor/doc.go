// Package sensor implements the button endpoint.
//
// Each configured button is a pull-up input polled every loop interval. A
// falling edge (released to pressed) publishes the button's payload once;
// the rising edge on release publishes nothing. There is no debounce.
//
// When a publish fails the endpoint asks the session manager to Recover:
// the old session is closed and a single new one is opened. If that open
// fails too, Run returns the error and the endpoint stops.
package sensor
