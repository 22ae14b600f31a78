// Package actuator implements the LED endpoint.
//
// The endpoint subscribes to the command topic and flips its LED on every
// exact TOGGLE, acknowledging the new state with ON or OFF. Its loop checks
// for inbound messages without blocking; when the check fails it waits one
// retry delay and opens a fresh session, forever.
package actuator
