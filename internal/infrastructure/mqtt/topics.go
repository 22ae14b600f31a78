package mqtt

import "fmt"

// TopicPrefix is the root of every pico-link topic.
const TopicPrefix = "stm"

// Fixed command/acknowledgement topics shared by both endpoints.
const (
	// TopicCommand carries TOGGLE from the sensor to the actuator.
	TopicCommand = TopicPrefix + "/led/cmd"

	// TopicHello carries HELLO notifications from the sensor.
	TopicHello = TopicPrefix + "/led/hello"

	// TopicAck carries the actuator's new LED state.
	TopicAck = TopicPrefix + "/led/ack"
)

// Payloads exchanged on the fixed topics.
const (
	PayloadToggle = "TOGGLE"
	PayloadHello  = "HELLO"
	PayloadOn     = "ON"
	PayloadOff    = "OFF"

	// StatusOnline is retained on the status topic while a session is live.
	StatusOnline = "online"

	// StatusOffline is the last-testament payload, and the graceful shutdown payload.
	StatusOffline = "offline"
)

// QoSAtLeastOnce is the delivery-confirmed level used for every pico-link message.
const QoSAtLeastOnce byte = 1

// Topics provides builders for per-device topics.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.DeviceStatus("devA")
//	// Returns: "stm/devA/status"
type Topics struct{}

// DeviceStatus returns the retained presence topic of a device.
//
// Example: stm/devB/status
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefix, deviceID)
}

// AllDeviceStatus returns a pattern matching every device's presence topic.
//
// Pattern: stm/+/status
func (Topics) AllDeviceStatus() string {
	return fmt.Sprintf("%s/+/status", TopicPrefix)
}
