package mqtt

import (
	"fmt"
)

// maxPayloadSize caps outgoing payloads. pico-link payloads are a few bytes;
// anything larger is a programming error.
const maxPayloadSize = 1 << 10 // 1KB

// Publish sends a message and waits for the broker's acknowledgment.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "stm/led/cmd")
//   - payload: The message payload (e.g., "TOGGLE")
//   - qos: Quality of Service level (0, 1, or 2); pico-link always uses 1
//   - retained: Whether the broker should keep the message for new subscribers
//
// Returns:
//   - error: nil on success, ErrNotConnected/ErrConnectionLost if the link is
//     gone, or ErrPublishFailed (wrapped) on timeout or broker error
//
// Example:
//
//	err := client.Publish(mqtt.TopicCommand, []byte(mqtt.PayloadToggle), mqtt.QoSAtLeastOnce, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if err := c.linkError(); err != nil {
		return err
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString is a convenience method that publishes a string payload.
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}
