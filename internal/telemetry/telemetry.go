// Package telemetry defines the endpoint events recorded by the optional
// InfluxDB and journal sinks.
//
// Recording is always best effort: a sink that cannot write logs the
// failure itself and never reports it to the endpoint loop.
package telemetry

import "time"

// Kind classifies an endpoint event.
type Kind string

// Event kinds.
const (
	KindNetworkUp        Kind = "network_up"
	KindSessionOpened    Kind = "session_opened"
	KindSessionFailed    Kind = "session_failed"
	KindSessionRecovered Kind = "session_recovered"
	KindSessionClosed    Kind = "session_closed"
	KindButtonPressed    Kind = "button_pressed"
	KindPublishFailed    Kind = "publish_failed"
	KindLEDToggled       Kind = "led_toggled"
	KindAckFailed        Kind = "ack_failed"
)

// Event is one thing that happened on an endpoint.
type Event struct {
	Kind Kind

	// Device is the status-topic device id (devA, devB).
	Device string

	// Subject is what the event is about: a button name, a topic, a client id.
	Subject string

	// Value is the payload or state involved, if any.
	Value string

	// Err is the failure text for *_failed events.
	Err string

	At time.Time
}

// Recorder receives endpoint events.
type Recorder interface {
	Record(e Event)
}

// Nop discards every event.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(Event) {}

// Multi fans an event out to several recorders in order.
type Multi []Recorder

// Record implements Recorder. A zero At is stamped once so every sink sees
// the same time.
func (m Multi) Record(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	for _, r := range m {
		r.Record(e)
	}
}

// New returns Nop for no recorders, the recorder itself for one, and a
// Multi otherwise.
func New(recorders ...Recorder) Recorder {
	var live Multi
	for _, r := range recorders {
		if r != nil {
			live = append(live, r)
		}
	}
	switch len(live) {
	case 0:
		return Nop{}
	case 1:
		return live[0]
	default:
		return live
	}
}

// ErrText returns the text of err, or "" for nil.
func ErrText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
