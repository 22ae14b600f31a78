package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Subscribe registers a handler for messages on the specified topic.
//
// Received messages are not handed to the handler straight away: paho's
// goroutine parks them in the client's inbox and CheckMsg dispatches them
// on the caller's goroutine. A subscription lives exactly as long as this
// Client; replacement clients must subscribe again.
//
// Parameters:
//   - topic: The topic filter to subscribe to
//   - qos: Maximum QoS level for received messages (0, 1, or 2)
//   - handler: Callback invoked from CheckMsg for each message
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	if err := c.linkError(); err != nil {
		return err
	}

	c.mu.Lock()
	c.subscriptions[topic] = handler
	c.mu.Unlock()

	token := c.client.Subscribe(topic, qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.enqueue(msg.Topic(), msg.Payload(), handler)
	})
	if !token.WaitTimeout(defaultPublishTimeout) {
		c.forget(topic)
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		c.forget(topic)
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return nil
}

// forget drops a subscription that the broker did not accept.
func (c *Client) forget(topic string) {
	c.mu.Lock()
	delete(c.subscriptions, topic)
	c.mu.Unlock()
}

// HasSubscription checks if a subscription exists for the given topic filter.
func (c *Client) HasSubscription(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.subscriptions[topic]
	return exists
}

// enqueue parks a received message for CheckMsg. It blocks while the inbox
// is full (paho runs each delivery on its own goroutine, so only that
// delivery waits) and gives up once the client is closed.
func (c *Client) enqueue(topic string, payload []byte, handler MessageHandler) {
	msg := inboundMessage{
		topic:   topic,
		payload: append([]byte(nil), payload...),
		handler: handler,
	}

	select {
	case c.inbox <- msg:
	case <-c.done:
	}
}

// CheckMsg dispatches at most one queued message without blocking.
//
// It is the non-blocking "check for inbound messages" step of the actuator
// loop: if a message is waiting, its handler runs now, on this goroutine.
// Queued messages are drained before a lost link is reported, so nothing
// the broker already delivered is dropped silently.
//
// Returns:
//   - error: nil when a message was handled or none was waiting;
//     ErrConnectionLost (wrapped) or ErrNotConnected when the link is gone
func (c *Client) CheckMsg() error {
	select {
	case msg := <-c.inbox:
		c.dispatch(msg)
		return nil
	default:
	}

	return c.linkError()
}

// dispatch runs a handler with panic recovery and optional logging.
func (c *Client) dispatch(msg inboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Error("MQTT handler panic recovered",
					"topic", msg.topic,
					"panic", r,
				)
			}
		}
	}()

	if err := msg.handler(msg.topic, msg.payload); err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("MQTT handler returned error",
				"topic", msg.topic,
				"error", err,
			)
		}
	}
}
